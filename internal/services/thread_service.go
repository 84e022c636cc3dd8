package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"swapp/api/internal/apperr"
	"swapp/api/internal/db"
	"swapp/api/internal/models"
	"swapp/api/internal/push"
	"swapp/api/internal/utils"
)

// ThreadSummary is a thread with its most recent message, if any.
type ThreadSummary struct {
	models.Thread
	LatestMessage *models.Message `json:"latest_message,omitempty"`
}

// ThreadDetail is everything the conversation screen shows.
type ThreadDetail struct {
	Thread             *models.Thread          `json:"thread"`
	Messages           []models.Message        `json:"messages"`
	TransactionState   models.TransactionState `json:"transaction_state"`
	Item1              *models.Item            `json:"item1"`
	Item2              *models.Item            `json:"item2"`
	TransactionIsValid bool                    `json:"transaction_is_valid"`
}

type IThreadService interface {
	List(ctx context.Context, userID utils.SixID) ([]ThreadSummary, error)
	// Detail marks the caller's received messages read.
	Detail(ctx context.Context, userID, threadID utils.SixID) (*ThreadDetail, error)
	GetOrCreate(ctx context.Context, userID, transactionID utils.SixID) (*models.Thread, error)
	SendMessage(ctx context.Context, userID, threadID utils.SixID, text string) (*models.Message, error)
}

type threadService struct {
	db      *mongo.Database
	effects Effects
}

func NewThreadService(db *mongo.Database, effects Effects) IThreadService {
	return &threadService{db: db, effects: effects}
}

func (s *threadService) List(ctx context.Context, userID utils.SixID) ([]ThreadSummary, error) {
	filter := bson.M{"$or": bson.A{bson.M{"sender_id": userID}, bson.M{"receiver_id": userID}}}
	opts := options.Find().SetSort(bson.D{{Key: "date_modified", Value: -1}})
	threads, err := findAll[models.Thread](ctx, s.db.Collection(threadsCollection), filter, opts)
	if err != nil {
		return nil, err
	}

	latest := options.FindOne().SetSort(bson.D{{Key: "date_sent", Value: -1}})
	out := make([]ThreadSummary, 0, len(threads))
	for _, th := range threads {
		summary := ThreadSummary{Thread: th}
		var msg models.Message
		err := s.db.Collection(messagesCollection).FindOne(ctx, bson.M{"thread_id": th.ID}, latest).Decode(&msg)
		switch {
		case err == nil:
			summary.LatestMessage = &msg
		case !errors.Is(err, mongo.ErrNoDocuments):
			return nil, fmt.Errorf("loading latest message of thread %s: %w", th.ID, err)
		}
		out = append(out, summary)
	}
	return out, nil
}

// participantThread loads a thread the user takes part in; others read as missing.
func (s *threadService) participantThread(ctx context.Context, userID, threadID utils.SixID) (*models.Thread, error) {
	th, err := findByID[models.Thread](ctx, s.db.Collection(threadsCollection), "thread", threadID)
	if err != nil {
		return nil, err
	}
	if !th.HasParticipant(userID) {
		return nil, apperr.NotFound("thread", threadID.String())
	}
	return th, nil
}

func (s *threadService) Detail(ctx context.Context, userID, threadID utils.SixID) (*ThreadDetail, error) {
	th, err := s.participantThread(ctx, userID, threadID)
	if err != nil {
		return nil, err
	}

	messages := s.db.Collection(messagesCollection)
	if _, err := messages.UpdateMany(ctx,
		bson.M{"thread_id": th.ID, "receiver_id": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}}); err != nil {
		return nil, fmt.Errorf("marking messages read: %w", err)
	}
	msgs, err := findAll[models.Message](ctx, messages, bson.M{"thread_id": th.ID},
		options.Find().SetSort(bson.D{{Key: "date_sent", Value: 1}}))
	if err != nil {
		return nil, err
	}

	tx, err := findByID[models.Transaction](ctx, s.db.Collection(transactionsCollection), "transaction", th.TransactionID)
	if err != nil {
		return nil, err
	}
	item1, err := findByID[models.Item](ctx, s.db.Collection(itemsCollection), "item", tx.Item1ID)
	if err != nil {
		return nil, err
	}
	item2, err := findByID[models.Item](ctx, s.db.Collection(itemsCollection), "item", tx.Item2ID)
	if err != nil {
		return nil, err
	}

	return &ThreadDetail{
		Thread:             th,
		Messages:           msgs,
		TransactionState:   tx.State,
		Item1:              item1,
		Item2:              item2,
		TransactionIsValid: item1.IsAvailable && item2.IsAvailable,
	}, nil
}

// GetOrCreate returns the transaction's thread, creating it for a participant when absent.
func (s *threadService) GetOrCreate(ctx context.Context, userID, transactionID utils.SixID) (*models.Thread, error) {
	tx, err := findByID[models.Transaction](ctx, s.db.Collection(transactionsCollection), "transaction", transactionID)
	if err != nil {
		return nil, err
	}
	if tx.Item1OwnerID != userID && tx.Item2OwnerID != userID {
		return nil, apperr.NotFound("transaction", transactionID.String())
	}
	if tx.State == models.TransactionRejected {
		return nil, apperr.Conflict(apperr.CodeTransactionClosed, "transaction was rejected", nil)
	}

	threads := s.db.Collection(threadsCollection)
	th, err := findOne[models.Thread](ctx, threads, bson.M{"transaction_id": tx.ID}, "thread", "")
	if err == nil || !apperr.IsNotFound(err) {
		return th, err
	}

	now := time.Now().UTC()
	th = &models.Thread{
		TransactionID: tx.ID,
		SenderID:      tx.Item1OwnerID,
		ReceiverID:    tx.Item2OwnerID,
		DateInitiated: now,
		DateModified:  now,
	}
	err = db.InsertOne(ctx, threads, th)
	if db.IsMongoDuplicateKeyError(err) {
		// Lost a race with a concurrent create.
		return findOne[models.Thread](ctx, threads, bson.M{"transaction_id": tx.ID}, "thread", "")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}
	return th, nil
}

func (s *threadService) SendMessage(ctx context.Context, userID, threadID utils.SixID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("text", "is required")
	}
	if utf8.RuneCountInString(text) > models.MaxMessageLength {
		return nil, apperr.Validation("text", "must be at most %d characters", models.MaxMessageLength)
	}

	th, err := s.participantThread(ctx, userID, threadID)
	if err != nil {
		return nil, err
	}
	receiver := th.ReceiverID
	if userID == th.ReceiverID {
		receiver = th.SenderID
	}

	now := time.Now().UTC()
	msg := &models.Message{
		ThreadID:   th.ID,
		SenderID:   userID,
		ReceiverID: receiver,
		Text:       text,
		DateSent:   now,
	}
	if err := db.InsertOne(ctx, s.db.Collection(messagesCollection), msg); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}
	if _, err := s.db.Collection(threadsCollection).UpdateOne(ctx,
		bson.M{"_id": th.ID}, bson.M{"$set": bson.M{"date_modified": now}}); err != nil {
		return nil, fmt.Errorf("failed to touch thread %s: %w", th.ID, err)
	}

	s.effects.Push(ctx, receiver, push.Notice{
		Text:     fmt.Sprintf("From %s: %s", displayName(ctx, s.db, userID), text),
		Type:     push.TypeMessage,
		ObjectID: th.ID.String(),
	})
	return msg, nil
}
