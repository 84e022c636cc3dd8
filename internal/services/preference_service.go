package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"swapp/api/internal/apperr"
	"swapp/api/internal/logging"
	"swapp/api/internal/models"
	"swapp/api/internal/recommender"
	"swapp/api/internal/utils"
)

// Preferences is a user's resolved preference set.
type Preferences struct {
	Categories      []models.Category `json:"categories"`
	Tags            []models.Tag      `json:"tags"`
	DistanceRangeKm float64           `json:"distance_range"`
}

// PreferenceUpdate replaces the whole preference set. A nil DistanceRangeKm keeps the current radius.
type PreferenceUpdate struct {
	CategoryIDs     []utils.SixID
	TagIDs          []utils.SixID
	DistanceRangeKm *float64
}

type IPreferenceService interface {
	GetPreferences(ctx context.Context, userID utils.SixID) (*Preferences, error)
	ReplacePreferences(ctx context.Context, userID utils.SixID, upd PreferenceUpdate) (*Preferences, error)
}

type preferenceService struct {
	db      *mongo.Database
	catalog ICatalogService
	effects Effects
}

func NewPreferenceService(db *mongo.Database, catalog ICatalogService, effects Effects) IPreferenceService {
	return &preferenceService{db: db, catalog: catalog, effects: effects}
}

func (s *preferenceService) GetPreferences(ctx context.Context, userID utils.SixID) (*Preferences, error) {
	user, err := findByID[models.User](ctx, s.db.Collection(usersCollection), "user", userID)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, user.PreferredCategories, user.PreferredTags, user.DistanceRangeKm)
}

func (s *preferenceService) resolve(ctx context.Context, categoryIDs, tagIDs []utils.SixID, rangeKm float64) (*Preferences, error) {
	cats, err := s.catalog.CategoriesByIDs(ctx, categoryIDs)
	if err != nil {
		return nil, err
	}
	tags, err := s.catalog.TagsByIDs(ctx, tagIDs)
	if err != nil {
		return nil, err
	}
	return &Preferences{Categories: cats, Tags: tags, DistanceRangeKm: rangeKm}, nil
}

// ReplacePreferences validates every id, then swaps the set in a single write.
// Afterwards each item in the chosen categories that the user does not own is
// rated for the user and a retrain is requested.
func (s *preferenceService) ReplacePreferences(ctx context.Context, userID utils.SixID, upd PreferenceUpdate) (*Preferences, error) {
	if upd.DistanceRangeKm != nil && *upd.DistanceRangeKm <= 0 {
		return nil, apperr.Validation("distance_range", "must be greater than 0")
	}
	categoryIDs := uniqueIDs(upd.CategoryIDs)
	tagIDs := uniqueIDs(upd.TagIDs)

	user, err := findByID[models.User](ctx, s.db.Collection(usersCollection), "user", userID)
	if err != nil {
		return nil, err
	}
	rangeKm := user.DistanceRangeKm
	if upd.DistanceRangeKm != nil {
		rangeKm = *upd.DistanceRangeKm
	}

	prefs, err := s.resolve(ctx, categoryIDs, tagIDs, rangeKm)
	if err != nil {
		return nil, err
	}

	set := bson.M{
		"preferred_categories": categoryIDs,
		"preferred_tags":       tagIDs,
		"distance_range":       rangeKm,
		"updated_at":           time.Now().UTC(),
	}
	res, err := s.db.Collection(usersCollection).UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": set})
	if err != nil {
		return nil, fmt.Errorf("failed to replace preferences of user %s: %w", userID, err)
	}
	if res.MatchedCount == 0 {
		return nil, apperr.NotFound("user", userID.String())
	}

	if err := s.rateCategories(ctx, userID, categoryIDs); err != nil {
		logging.Warn().Err(err).Str("user_id", userID.String()).Msg("preference events not recorded")
	}
	return prefs, nil
}

func (s *preferenceService) rateCategories(ctx context.Context, userID utils.SixID, categoryIDs []utils.SixID) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	subIDs, err := s.catalog.SubcategoryIDs(ctx, categoryIDs)
	if err != nil {
		return err
	}
	if len(subIDs) == 0 {
		return nil
	}

	filter := bson.M{"subcategory_id": bson.M{"$in": subIDs}, "owner_id": bson.M{"$ne": userID}}
	cursor, err := s.db.Collection(itemsCollection).Find(ctx, filter)
	if err != nil {
		return fmt.Errorf("finding preferred items: %w", err)
	}
	defer cursor.Close(ctx)

	rated := 0
	for cursor.Next(ctx) {
		var it models.Item
		if err := cursor.Decode(&it); err != nil {
			return fmt.Errorf("decoding preferred item: %w", err)
		}
		s.effects.Record(ctx, recommender.Interaction{
			Kind:   recommender.KindRate,
			UserID: userID,
			ItemID: it.ID,
			Rating: recommender.DefaultRating,
		})
		rated++
	}
	if err := cursor.Err(); err != nil {
		return err
	}

	s.effects.Retrain(ctx)
	logging.Debug().Str("user_id", userID.String()).Int("rated", rated).Msg("preference ratings scheduled")
	return nil
}
