package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"swapp/api/internal/apperr"
	"swapp/api/internal/config"
	"swapp/api/internal/db"
	"swapp/api/internal/geo"
	"swapp/api/internal/models"
	"swapp/api/internal/recommender"
	"swapp/api/internal/utils"
)

// ProfileUpdate carries optional profile fields; nil means unchanged.
type ProfileUpdate struct {
	Name  *string
	Phone *string
}

// IProfileService manages users, their location and their push device.
type IProfileService interface {
	CreateUser(ctx context.Context, name, phone string) (*models.User, error)
	FindByID(ctx context.Context, userID utils.SixID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID utils.SixID, upd ProfileUpdate) (*models.User, error)
	ChangeLocation(ctx context.Context, userID utils.SixID, p geo.Point, label string) (*models.User, error)
	StoreDevice(ctx context.Context, userID utils.SixID, token, platform string) (*models.PushDevice, error)
	FindDevice(ctx context.Context, userID utils.SixID) (*models.PushDevice, error)
	DisplayName(ctx context.Context, userID utils.SixID) string
}

type profileService struct {
	db      *mongo.Database
	cfg     *config.Config
	effects Effects
}

func NewProfileService(db *mongo.Database, cfg *config.Config, effects Effects) IProfileService {
	return &profileService{db: db, cfg: cfg, effects: effects}
}

func (s *profileService) CreateUser(ctx context.Context, name, phone string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name", "is required")
	}
	now := time.Now().UTC()
	user := &models.User{
		Name:                name,
		Phone:               phone,
		DistanceRangeKm:     s.cfg.DefaultDistanceRangeKm,
		PreferredCategories: []utils.SixID{},
		PreferredTags:       []utils.SixID{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := db.InsertOne(ctx, s.db.Collection(usersCollection), user); err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	s.effects.Record(ctx, recommender.Interaction{Kind: recommender.KindSetUser, UserID: user.ID})
	return user, nil
}

func (s *profileService) FindByID(ctx context.Context, userID utils.SixID) (*models.User, error) {
	return findByID[models.User](ctx, s.db.Collection(usersCollection), "user", userID)
}

func (s *profileService) UpdateProfile(ctx context.Context, userID utils.SixID, upd ProfileUpdate) (*models.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, apperr.Validation("name", "cannot be empty")
		}
		set["name"] = name
	}
	if upd.Phone != nil {
		set["phone"] = *upd.Phone
	}
	return s.update(ctx, userID, bson.M{"$set": set})
}

func (s *profileService) ChangeLocation(ctx context.Context, userID utils.SixID, p geo.Point, label string) (*models.User, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.update(ctx, userID, bson.M{"$set": bson.M{
		"current_location": models.NewGeoPoint(p),
		"location_label":   label,
		"updated_at":       time.Now().UTC(),
	}})
}

func (s *profileService) update(ctx context.Context, userID utils.SixID, update bson.M) (*models.User, error) {
	var user models.User
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.db.Collection(usersCollection).FindOneAndUpdate(ctx, bson.M{"_id": userID}, update, opts).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("user", userID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", userID, err)
	}
	return &user, nil
}

// StoreDevice registers token as the user's only device. A token already held
// by another user moves to this one.
func (s *profileService) StoreDevice(ctx context.Context, userID utils.SixID, token, platform string) (*models.PushDevice, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.Validation("token", "is required")
	}
	if _, err := s.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	coll := s.db.Collection(pushDevicesCollection)
	if _, err := coll.DeleteMany(ctx, bson.M{"token": token, "user_id": bson.M{"$ne": userID}}); err != nil {
		return nil, fmt.Errorf("releasing device token: %w", err)
	}

	var device models.PushDevice
	update := bson.M{
		"$set":         bson.M{"token": token, "platform": platform, "updated_at": time.Now().UTC()},
		"$setOnInsert": bson.M{"_id": utils.NewSixID()},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := db.Try(func() error {
		return coll.FindOneAndUpdate(ctx, bson.M{"user_id": userID}, update, opts).Decode(&device)
	})
	if err != nil {
		return nil, fmt.Errorf("storing device for user %s: %w", userID, err)
	}
	return &device, nil
}

func (s *profileService) FindDevice(ctx context.Context, userID utils.SixID) (*models.PushDevice, error) {
	var device models.PushDevice
	err := s.db.Collection(pushDevicesCollection).FindOne(ctx, bson.M{"user_id": userID}).Decode(&device)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding device for user %s: %w", userID, err)
	}
	return &device, nil
}

// DisplayName returns the user's name for notification texts, or "Someone".
func (s *profileService) DisplayName(ctx context.Context, userID utils.SixID) string {
	return displayName(ctx, s.db, userID)
}

func displayName(ctx context.Context, database *mongo.Database, userID utils.SixID) string {
	var u struct {
		Name string `bson:"name"`
	}
	opts := options.FindOne().SetProjection(bson.M{"name": 1})
	if err := database.Collection(usersCollection).FindOne(ctx, bson.M{"_id": userID}, opts).Decode(&u); err != nil || u.Name == "" {
		return "Someone"
	}
	return u.Name
}
