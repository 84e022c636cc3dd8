package models

import (
	"swapp/api/internal/utils"
)

// IBase is implemented by every document that carries a SixID primary key.
type IBase interface {
	GenIDIfEmpty()
	GenID()
	SetID(id utils.SixID)
	GetID() utils.SixID
}

type Base struct {
	ID utils.SixID `bson:"_id,omitempty" json:"id"`
}

func (m *Base) GenIDIfEmpty() {
	if m.ID.IsZero() {
		m.GenID()
	}
}

func (m *Base) GenID() {
	m.ID = utils.NewSixID()
}

func (m *Base) SetID(id utils.SixID) {
	m.ID = id
}

func (m *Base) GetID() utils.SixID {
	return m.ID
}

func NewBase() Base {
	return Base{
		ID: utils.NewSixID(),
	}
}
