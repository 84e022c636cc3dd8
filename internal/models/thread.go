package models

import (
	"time"

	"swapp/api/internal/utils"
)

// MaxMessageLength bounds Message.Text in characters.
const MaxMessageLength = 500

// Thread is the conversation attached to a Transaction.
// Sender is the owner of item1, Receiver the owner of item2.
type Thread struct {
	Base          `bson:",inline"`
	TransactionID utils.SixID `bson:"transaction_id" json:"transaction_id"`
	SenderID      utils.SixID `bson:"sender_id" json:"sender_id"`
	ReceiverID    utils.SixID `bson:"receiver_id" json:"receiver_id"`
	DateInitiated time.Time   `bson:"date_initiated" json:"date_initiated"`
	DateModified  time.Time   `bson:"date_modified" json:"date_modified"`
}

// HasParticipant reports whether userID is the sender or the receiver.
func (t *Thread) HasParticipant(userID utils.SixID) bool {
	return t.SenderID == userID || t.ReceiverID == userID
}

type Message struct {
	Base       `bson:",inline"`
	ThreadID   utils.SixID `bson:"thread_id" json:"thread_id"`
	SenderID   utils.SixID `bson:"sender_id" json:"sender_id"`
	ReceiverID utils.SixID `bson:"receiver_id" json:"receiver_id"`
	Text       string      `bson:"text" json:"text"`
	Read       bool        `bson:"read" json:"read"`
	DateSent   time.Time   `bson:"date_sent" json:"date_sent"`
}
