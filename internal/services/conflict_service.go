package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"swapp/api/internal/apperr"
	"swapp/api/internal/config"
	"swapp/api/internal/geo"
	"swapp/api/internal/matching"
	"swapp/api/internal/models"
	"swapp/api/internal/utils"
)

// ConflictReport lists the user's available items whose location disagrees with theirs.
type ConflictReport struct {
	HasConflicts bool                `json:"has_conflicts"`
	Conflicts    []matching.Conflict `json:"conflicts"`
}

type IConflictService interface {
	Check(ctx context.Context, userID utils.SixID) (*ConflictReport, error)
	// Resolve moves every available item of the user to the user's current location.
	Resolve(ctx context.Context, userID utils.SixID) (int64, error)
}

type conflictService struct {
	db     *mongo.Database
	radius float64
}

func NewConflictService(db *mongo.Database, cfg *config.Config) IConflictService {
	radius := cfg.ConflictRadiusKm
	if radius <= 0 {
		radius = matching.DefaultConflictRadiusKm
	}
	return &conflictService{db: db, radius: radius}
}

func (s *conflictService) currentLocation(ctx context.Context, userID utils.SixID) (geo.Point, error) {
	user, err := findByID[models.User](ctx, s.db.Collection(usersCollection), "user", userID)
	if err != nil {
		return geo.Point{}, err
	}
	p, ok := user.CurrentLocation.Point()
	if !ok {
		return geo.Point{}, apperr.Validation("current_location", "is not set")
	}
	return p, nil
}

func (s *conflictService) Check(ctx context.Context, userID utils.SixID) (*ConflictReport, error) {
	current, err := s.currentLocation(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := findAll[models.Item](ctx, s.db.Collection(itemsCollection), bson.M{"owner_id": userID, "is_available": true})
	if err != nil {
		return nil, err
	}
	conflicts := matching.DetectConflicts(items, current, s.radius)
	if conflicts == nil {
		conflicts = []matching.Conflict{}
	}
	return &ConflictReport{HasConflicts: len(conflicts) > 0, Conflicts: conflicts}, nil
}

func (s *conflictService) Resolve(ctx context.Context, userID utils.SixID) (int64, error) {
	current, err := s.currentLocation(ctx, userID)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Collection(itemsCollection).UpdateMany(ctx,
		bson.M{"owner_id": userID, "is_available": true},
		bson.M{"$set": bson.M{"location": models.NewGeoPoint(current)}})
	if err != nil {
		return 0, fmt.Errorf("failed to resolve conflicts for user %s: %w", userID, err)
	}
	return res.ModifiedCount, nil
}
