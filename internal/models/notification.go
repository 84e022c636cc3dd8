package models

import (
	"time"

	"swapp/api/internal/utils"
)

type NotificationType string

const (
	NotificationOffer  NotificationType = "offer"
	NotificationAccept NotificationType = "accept"
	NotificationReject NotificationType = "reject"
)

type Notification struct {
	Base          `bson:",inline"`
	RecipientID   utils.SixID      `bson:"recipient_id" json:"recipient_id"`
	ActorID       utils.SixID      `bson:"actor_id" json:"actor_id"`
	Type          NotificationType `bson:"type" json:"type"`
	TransactionID utils.SixID      `bson:"transaction_id" json:"transaction_id"`
	Text          string           `bson:"text" json:"text"`
	Read          bool             `bson:"read" json:"read"`
	DateCreated   time.Time        `bson:"date_created" json:"date_created"`
}
