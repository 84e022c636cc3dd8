package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"swapp/api/internal/apperr"
	"swapp/api/internal/config"
	"swapp/api/internal/db"
	"swapp/api/internal/logging"
	"swapp/api/internal/metrics"
	"swapp/api/internal/models"
	"swapp/api/internal/push"
	"swapp/api/internal/recommender"
	"swapp/api/internal/utils"
)

// Action is a recipient's answer to an offer.
type Action string

const (
	ActionAccept Action = "accept"
	ActionReject Action = "reject"
)

// OfferRef identifies an offer either by its notification or by its thread.
type OfferRef struct {
	NotificationID *utils.SixID
	ThreadID       *utils.SixID
}

// OfferSource tags how an offer lookup was resolved.
type OfferSource int

const (
	OfferNotFound OfferSource = iota
	OfferViaNotification
	OfferViaThread
)

// OfferLookup is the result of resolving an OfferRef. Notification is nil when
// the offer was resolved via a thread whose transaction has already been decided.
type OfferLookup struct {
	Source       OfferSource
	Notification *models.Notification
	Transaction  *models.Transaction
}

// RespondResult is the decided transaction and the notification sent to the proposer.
type RespondResult struct {
	Transaction  *models.Transaction  `json:"transaction"`
	Notification *models.Notification `json:"notification"`
}

// TransactionView is a decided or pending transaction with validity resolved.
type TransactionView struct {
	models.Transaction
	IsValid bool `json:"is_valid"`
}

type INegotiationService interface {
	Propose(ctx context.Context, userID, userItemID, otherItemID utils.SixID) (*models.Transaction, error)
	LookupOffer(ctx context.Context, ref OfferRef) (*OfferLookup, error)
	Respond(ctx context.Context, userID utils.SixID, action Action, ref OfferRef) (*RespondResult, error)
	Pending(ctx context.Context, userID utils.SixID) ([]models.PendingTransaction, error)
	PendingCount(ctx context.Context, userID utils.SixID) (int, error)
	History(ctx context.Context, userID utils.SixID) ([]TransactionView, error)
	SwapHistory(ctx context.Context, userID utils.SixID) ([]models.SwapHistory, error)
	// IsValid reports whether both items of the transaction are still available.
	IsValid(ctx context.Context, tx *models.Transaction) (bool, error)
}

type negotiationService struct {
	db      *mongo.Database
	cfg     *config.Config
	effects Effects
}

func NewNegotiationService(db *mongo.Database, cfg *config.Config, effects Effects) INegotiationService {
	return &negotiationService{db: db, cfg: cfg, effects: effects}
}

func (s *negotiationService) coll(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func (s *negotiationService) item(ctx context.Context, id utils.SixID) (*models.Item, error) {
	return findByID[models.Item](ctx, s.coll(itemsCollection), "item", id)
}

// openFor returns the open transaction of the unordered pair, or nil.
func (s *negotiationService) openFor(ctx context.Context, a, b utils.SixID) (*models.Transaction, error) {
	tx, err := findOne[models.Transaction](ctx, s.coll(transactionsCollection),
		bson.M{"open_pair": models.PairKey(a, b)}, "transaction", "")
	if apperr.IsNotFound(err) {
		return nil, nil
	}
	return tx, err
}

func (s *negotiationService) Propose(ctx context.Context, userID, userItemID, otherItemID utils.SixID) (*models.Transaction, error) {
	tx, err := s.propose(ctx, userID, userItemID, otherItemID)
	outcome := "created"
	switch {
	case apperr.IsConflict(err, apperr.CodeTransactionExists):
		outcome = "exists"
	case err != nil:
		outcome = "failed"
	}
	metrics.NegotiationOutcomes.WithLabelValues("propose", outcome).Inc()
	return tx, err
}

func (s *negotiationService) propose(ctx context.Context, userID, userItemID, otherItemID utils.SixID) (*models.Transaction, error) {
	if userItemID == otherItemID {
		return nil, apperr.Validation("other_item_id", "must differ from user_item_id")
	}
	item1, err := s.item(ctx, userItemID)
	if err != nil {
		return nil, err
	}
	item2, err := s.item(ctx, otherItemID)
	if err != nil {
		return nil, err
	}
	if item1.OwnerID != userID {
		return nil, apperr.Validation("user_item_id", "must be one of your items")
	}
	if item2.OwnerID == userID {
		return nil, apperr.Validation("other_item_id", "must not be one of your items")
	}

	existing, err := s.openFor(ctx, item1.ID, item2.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, transactionExists(existing)
	}
	if !item1.IsAvailable || !item2.IsAvailable {
		return nil, apperr.Conflict(apperr.CodeItemsUnavailable, "one or both items are no longer available", nil)
	}

	now := time.Now().UTC()
	tx := &models.Transaction{
		Item1ID:      item1.ID,
		Item2ID:      item2.ID,
		Item1OwnerID: item1.OwnerID,
		Item2OwnerID: item2.OwnerID,
		State:        models.TransactionPending,
		OpenPair:     models.PairKey(item1.ID, item2.ID),
		DateCreated:  now,
	}
	proposerName := displayName(ctx, s.db, userID)
	offer := &models.Notification{
		RecipientID: item2.OwnerID,
		ActorID:     userID,
		Type:        models.NotificationOffer,
		Text:        proposerName + " offered a Swapp with you.",
		DateCreated: now,
	}
	thread := &models.Thread{
		SenderID:      item1.OwnerID,
		ReceiverID:    item2.OwnerID,
		DateInitiated: now,
		DateModified:  now,
	}

	var undo compensations
	err = db.RunInTransaction(ctx, s.db, s.cfg.MongoTransactions, func(ctx context.Context) error {
		undo = nil
		if err := db.InsertOne(ctx, s.coll(transactionsCollection), tx); err != nil {
			return err
		}
		undo.add(func(ctx context.Context) error {
			_, err := s.coll(transactionsCollection).DeleteOne(ctx, bson.M{"_id": tx.ID})
			return err
		})

		offer.TransactionID = tx.ID
		if err := db.InsertOne(ctx, s.coll(notificationsCollection), offer); err != nil {
			return err
		}
		undo.add(func(ctx context.Context) error {
			_, err := s.coll(notificationsCollection).DeleteOne(ctx, bson.M{"_id": offer.ID})
			return err
		})

		thread.TransactionID = tx.ID
		return db.InsertOne(ctx, s.coll(threadsCollection), thread)
	})
	if err != nil {
		s.rollback(ctx, undo)
		if db.DuplicateKeyIndex(err, openPairIndex) {
			existing, lookupErr := s.openFor(ctx, item1.ID, item2.ID)
			if lookupErr == nil && existing != nil {
				return nil, transactionExists(existing)
			}
			return nil, apperr.Conflict(apperr.CodeTransactionExists, "a transaction for these items already exists", nil)
		}
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	s.effects.Record(ctx, recommender.Interaction{Kind: recommender.KindBuy, UserID: userID, ItemID: item2.ID})
	s.effects.Retrain(ctx)
	s.effects.Push(ctx, item2.OwnerID, push.Notice{
		Text:     fmt.Sprintf("%s was offered to be swapped for your %s.", item1.Name, item2.Name),
		Type:     push.TypeNotification,
		ObjectID: offer.ID.String(),
		Badge:    s.badge(ctx, item2.OwnerID),
	})

	logging.Info().
		Str("transaction_id", tx.ID.String()).
		Str("item1_id", item1.ID.String()).
		Str("item2_id", item2.ID.String()).
		Msg("swap proposed")
	return tx, nil
}

func transactionExists(tx *models.Transaction) error {
	return apperr.Conflict(apperr.CodeTransactionExists, "a transaction for these items already exists", tx)
}

func (s *negotiationService) LookupOffer(ctx context.Context, ref OfferRef) (*OfferLookup, error) {
	switch {
	case ref.NotificationID != nil:
		n, err := findOne[models.Notification](ctx, s.coll(notificationsCollection),
			bson.M{"_id": *ref.NotificationID, "type": models.NotificationOffer}, "notification", ref.NotificationID.String())
		if apperr.IsNotFound(err) {
			return &OfferLookup{Source: OfferNotFound}, nil
		}
		if err != nil {
			return nil, err
		}
		tx, err := findByID[models.Transaction](ctx, s.coll(transactionsCollection), "transaction", n.TransactionID)
		if apperr.IsNotFound(err) {
			return &OfferLookup{Source: OfferNotFound}, nil
		}
		if err != nil {
			return nil, err
		}
		return &OfferLookup{Source: OfferViaNotification, Notification: n, Transaction: tx}, nil

	case ref.ThreadID != nil:
		th, err := findByID[models.Thread](ctx, s.coll(threadsCollection), "thread", *ref.ThreadID)
		if apperr.IsNotFound(err) {
			return &OfferLookup{Source: OfferNotFound}, nil
		}
		if err != nil {
			return nil, err
		}
		tx, err := findByID[models.Transaction](ctx, s.coll(transactionsCollection), "transaction", th.TransactionID)
		if apperr.IsNotFound(err) {
			return &OfferLookup{Source: OfferNotFound}, nil
		}
		if err != nil {
			return nil, err
		}
		n, err := findOne[models.Notification](ctx, s.coll(notificationsCollection),
			bson.M{"transaction_id": tx.ID, "type": models.NotificationOffer}, "notification", "")
		if err != nil && !apperr.IsNotFound(err) {
			return nil, err
		}
		return &OfferLookup{Source: OfferViaThread, Notification: n, Transaction: tx}, nil

	default:
		return nil, apperr.Validation("notification_id", "notification_id or thread_id is required")
	}
}

func (s *negotiationService) Respond(ctx context.Context, userID utils.SixID, action Action, ref OfferRef) (*RespondResult, error) {
	res, err := s.respond(ctx, userID, action, ref)
	outcome := "ok"
	switch {
	case apperr.IsConflict(err, ""):
		outcome = "conflict"
	case apperr.IsNotFound(err):
		outcome = "not_found"
	case err != nil:
		outcome = "failed"
	}
	label := string(action)
	if action != ActionAccept && action != ActionReject {
		label = "invalid"
	}
	metrics.NegotiationOutcomes.WithLabelValues(label, outcome).Inc()
	return res, err
}

func (s *negotiationService) respond(ctx context.Context, userID utils.SixID, action Action, ref OfferRef) (*RespondResult, error) {
	if action != ActionAccept && action != ActionReject {
		return nil, apperr.Validation("action", "must be one of [accept reject]")
	}

	lookup, err := s.LookupOffer(ctx, ref)
	if err != nil {
		return nil, err
	}
	if lookup.Source == OfferNotFound || lookup.Transaction.Item2OwnerID != userID {
		return nil, apperr.NotFound("offer", "")
	}
	tx := lookup.Transaction
	if tx.State != models.TransactionPending {
		return nil, apperr.Conflict(apperr.CodeTransactionClosed, "transaction has already been decided", tx)
	}

	if action == ActionAccept {
		valid, err := s.IsValid(ctx, tx)
		if err != nil {
			return nil, err
		}
		if !valid {
			return nil, apperr.Conflict(apperr.CodeItemsUnavailable, "one or both items are no longer available", tx)
		}
	}

	now := time.Now().UTC()
	reply := &models.Notification{
		RecipientID:   tx.Item1OwnerID,
		ActorID:       userID,
		TransactionID: tx.ID,
		DateCreated:   now,
	}
	name := displayName(ctx, s.db, userID)
	if action == ActionAccept {
		reply.Type = models.NotificationAccept
		reply.Text = name + " accepted your offer"
	} else {
		reply.Type = models.NotificationReject
		reply.Text = name + " rejected your offer"
	}

	var undo compensations
	err = db.RunInTransaction(ctx, s.db, s.cfg.MongoTransactions, func(ctx context.Context) error {
		undo = nil
		var err error
		if action == ActionAccept {
			err = s.accept(ctx, tx, now, &undo)
		} else {
			err = s.reject(ctx, tx, now, &undo)
		}
		if err != nil {
			return err
		}

		if err := db.InsertOne(ctx, s.coll(notificationsCollection), reply); err != nil {
			return err
		}
		if lookup.Notification != nil {
			if _, err := s.coll(notificationsCollection).DeleteOne(ctx, bson.M{"_id": lookup.Notification.ID}); err != nil {
				return err
			}
		}
		if action == ActionAccept {
			return db.InsertOne(ctx, s.coll(swapHistoryCollection), &models.SwapHistory{
				User1ID:       tx.Item1OwnerID,
				User2ID:       tx.Item2OwnerID,
				Item1ID:       tx.Item1ID,
				Item2ID:       tx.Item2ID,
				TransactionID: tx.ID,
				Date:          now,
			})
		}
		return s.deleteThread(ctx, tx.ID)
	})
	if err != nil {
		if !s.cfg.MongoTransactions {
			s.rollback(ctx, undo)
		}
		var ce *apperr.ConflictError
		if errors.As(err, &ce) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to %s transaction %s: %w", action, tx.ID, err)
	}

	notice := push.Notice{Text: reply.Text, Badge: s.badge(ctx, tx.Item1OwnerID)}
	if action == ActionAccept {
		notice.Type = push.TypeOfferAccept
		if th, err := findOne[models.Thread](ctx, s.coll(threadsCollection), bson.M{"transaction_id": tx.ID}, "thread", ""); err == nil {
			notice.ObjectID = th.ID.String()
		}
	} else {
		notice.Type = push.TypeOfferReject
	}
	s.effects.Push(ctx, tx.Item1OwnerID, notice)

	logging.Info().
		Str("transaction_id", tx.ID.String()).
		Str("action", string(action)).
		Msg("offer answered")
	return &RespondResult{Transaction: tx, Notification: reply}, nil
}

// accept claims the transaction, then each item, with compare-and-set updates.
func (s *negotiationService) accept(ctx context.Context, tx *models.Transaction, now time.Time, undo *compensations) error {
	transactions := s.coll(transactionsCollection)
	res, err := transactions.UpdateOne(ctx,
		bson.M{"_id": tx.ID, "state": models.TransactionPending},
		bson.M{"$set": bson.M{"state": models.TransactionApproved, "date_decided": now}})
	if err != nil {
		return err
	}
	if res.ModifiedCount == 0 {
		return apperr.Conflict(apperr.CodeTransactionClosed, "transaction has already been decided", nil)
	}
	undo.add(func(ctx context.Context) error {
		_, err := transactions.UpdateOne(ctx,
			bson.M{"_id": tx.ID, "state": models.TransactionApproved},
			bson.M{"$set": bson.M{"state": models.TransactionPending}, "$unset": bson.M{"date_decided": ""}})
		return err
	})

	items := s.coll(itemsCollection)
	for _, id := range []utils.SixID{tx.Item1ID, tx.Item2ID} {
		res, err := items.UpdateOne(ctx,
			bson.M{"_id": id, "is_available": true},
			bson.M{"$set": bson.M{"is_available": false}})
		if err != nil {
			return err
		}
		if res.ModifiedCount == 0 {
			return apperr.Conflict(apperr.CodeItemsUnavailable, "one or both items are no longer available", tx)
		}
		undo.add(func(ctx context.Context) error {
			_, err := items.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"is_available": true}})
			return err
		})
	}

	tx.State = models.TransactionApproved
	tx.DateDecided = &now
	return nil
}

// reject closes the transaction and releases the pair for a new proposal.
func (s *negotiationService) reject(ctx context.Context, tx *models.Transaction, now time.Time, undo *compensations) error {
	transactions := s.coll(transactionsCollection)
	res, err := transactions.UpdateOne(ctx,
		bson.M{"_id": tx.ID, "state": models.TransactionPending},
		bson.M{
			"$set":   bson.M{"state": models.TransactionRejected, "date_decided": now},
			"$unset": bson.M{"open_pair": ""},
		})
	if err != nil {
		return err
	}
	if res.ModifiedCount == 0 {
		return apperr.Conflict(apperr.CodeTransactionClosed, "transaction has already been decided", nil)
	}
	undo.add(func(ctx context.Context) error {
		_, err := transactions.UpdateOne(ctx,
			bson.M{"_id": tx.ID, "state": models.TransactionRejected},
			bson.M{
				"$set":   bson.M{"state": models.TransactionPending, "open_pair": tx.OpenPair},
				"$unset": bson.M{"date_decided": ""},
			})
		return err
	})

	tx.State = models.TransactionRejected
	tx.DateDecided = &now
	tx.OpenPair = ""
	return nil
}

func (s *negotiationService) deleteThread(ctx context.Context, transactionID utils.SixID) error {
	var th models.Thread
	err := s.coll(threadsCollection).FindOneAndDelete(ctx, bson.M{"transaction_id": transactionID}).Decode(&th)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = s.coll(messagesCollection).DeleteMany(ctx, bson.M{"thread_id": th.ID})
	return err
}

func (s *negotiationService) rollback(ctx context.Context, undo compensations) {
	if err := undo.run(ctx); err != nil {
		logging.Error().Err(err).Msg("rollback incomplete")
	}
}

// badge is the pending count shown on the recipient's app icon. Failures count as zero.
func (s *negotiationService) badge(ctx context.Context, userID utils.SixID) int {
	n, err := s.PendingCount(ctx, userID)
	if err != nil {
		logging.Warn().Err(err).Str("user_id", userID.String()).Msg("badge count unavailable")
		return 0
	}
	return n
}

func pendingFilter(userID utils.SixID) bson.M {
	return bson.M{
		"state": models.TransactionPending,
		"$or":   bson.A{bson.M{"item1_owner_id": userID}, bson.M{"item2_owner_id": userID}},
	}
}

func (s *negotiationService) Pending(ctx context.Context, userID utils.SixID) ([]models.PendingTransaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date_created", Value: -1}})
	txs, err := findAll[models.Transaction](ctx, s.coll(transactionsCollection), pendingFilter(userID), opts)
	if err != nil {
		return nil, err
	}
	out := make([]models.PendingTransaction, 0, len(txs))
	for _, tx := range txs {
		p := models.PendingTransaction{
			UserItemID:    tx.Item1ID,
			OtherItemID:   tx.Item2ID,
			ActionFromID:  tx.Item1OwnerID,
			TransactionID: tx.ID,
		}
		if tx.Item2OwnerID == userID {
			p.UserItemID, p.OtherItemID = tx.Item2ID, tx.Item1ID
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *negotiationService) PendingCount(ctx context.Context, userID utils.SixID) (int, error) {
	n, err := s.coll(transactionsCollection).CountDocuments(ctx, pendingFilter(userID))
	if err != nil {
		return 0, fmt.Errorf("counting pending transactions: %w", err)
	}
	return int(n), nil
}

func (s *negotiationService) History(ctx context.Context, userID utils.SixID) ([]TransactionView, error) {
	filter := bson.M{
		"state": models.TransactionApproved,
		"$or":   bson.A{bson.M{"item1_owner_id": userID}, bson.M{"item2_owner_id": userID}},
	}
	opts := options.Find().SetSort(bson.D{{Key: "date_decided", Value: -1}})
	txs, err := findAll[models.Transaction](ctx, s.coll(transactionsCollection), filter, opts)
	if err != nil {
		return nil, err
	}
	out := make([]TransactionView, 0, len(txs))
	for _, tx := range txs {
		valid, err := s.IsValid(ctx, &tx)
		if err != nil {
			return nil, err
		}
		out = append(out, TransactionView{Transaction: tx, IsValid: valid})
	}
	return out, nil
}

func (s *negotiationService) SwapHistory(ctx context.Context, userID utils.SixID) ([]models.SwapHistory, error) {
	filter := bson.M{"$or": bson.A{bson.M{"user1_id": userID}, bson.M{"user2_id": userID}}}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	return findAll[models.SwapHistory](ctx, s.coll(swapHistoryCollection), filter, opts)
}

func (s *negotiationService) IsValid(ctx context.Context, tx *models.Transaction) (bool, error) {
	n, err := s.coll(itemsCollection).CountDocuments(ctx, bson.M{
		"_id":          bson.M{"$in": bson.A{tx.Item1ID, tx.Item2ID}},
		"is_available": true,
	})
	if err != nil {
		return false, fmt.Errorf("checking availability for transaction %s: %w", tx.ID, err)
	}
	return n == 2, nil
}
