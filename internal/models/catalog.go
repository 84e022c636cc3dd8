package models

import (
	"swapp/api/internal/utils"
)

type Category struct {
	Base `bson:",inline"`
	Name string `bson:"name" json:"name"`
}

type Subcategory struct {
	Base       `bson:",inline"`
	CategoryID utils.SixID `bson:"category_id" json:"category_id"`
	Name       string      `bson:"name" json:"name"`
}

type Tag struct {
	Base `bson:",inline"`
	Name string `bson:"name" json:"name"`
}
