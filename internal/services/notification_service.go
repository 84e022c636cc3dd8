package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"swapp/api/internal/apperr"
	"swapp/api/internal/models"
	"swapp/api/internal/utils"
)

// NotificationDetail is a notification with the item the proposer offered.
type NotificationDetail struct {
	Notification *models.Notification `json:"notification"`
	Transaction  *models.Transaction  `json:"transaction"`
	OfferedItem  *models.Item         `json:"offered_item"`
}

type INotificationService interface {
	List(ctx context.Context, userID utils.SixID) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID utils.SixID) error
	Detail(ctx context.Context, userID, notificationID utils.SixID) (*NotificationDetail, error)
}

type notificationService struct {
	db *mongo.Database
}

func NewNotificationService(db *mongo.Database) INotificationService {
	return &notificationService{db: db}
}

func (s *notificationService) List(ctx context.Context, userID utils.SixID) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date_created", Value: -1}})
	return findAll[models.Notification](ctx, s.db.Collection(notificationsCollection), bson.M{"recipient_id": userID}, opts)
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID utils.SixID) error {
	res, err := s.db.Collection(notificationsCollection).UpdateOne(ctx,
		bson.M{"_id": notificationID, "recipient_id": userID},
		bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return fmt.Errorf("failed to mark notification %s read: %w", notificationID, err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("notification", notificationID.String())
	}
	return nil
}

func (s *notificationService) Detail(ctx context.Context, userID, notificationID utils.SixID) (*NotificationDetail, error) {
	n, err := findOne[models.Notification](ctx, s.db.Collection(notificationsCollection),
		bson.M{"_id": notificationID, "recipient_id": userID}, "notification", notificationID.String())
	if err != nil {
		return nil, err
	}
	tx, err := findByID[models.Transaction](ctx, s.db.Collection(transactionsCollection), "transaction", n.TransactionID)
	if err != nil {
		return nil, err
	}
	item, err := findByID[models.Item](ctx, s.db.Collection(itemsCollection), "item", tx.Item1ID)
	if err != nil {
		return nil, err
	}
	return &NotificationDetail{Notification: n, Transaction: tx, OfferedItem: item}, nil
}
