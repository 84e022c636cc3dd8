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
	"swapp/api/internal/db"
	"swapp/api/internal/geo"
	"swapp/api/internal/models"
	"swapp/api/internal/recommender"
	"swapp/api/internal/utils"
)

// ItemInput holds the writable fields of an item. Location nil means the owner's current location.
type ItemInput struct {
	Name          string
	Description   string
	Condition     string
	Photo         string
	PriceMin      float64
	PriceMax      float64
	Location      *geo.Point
	SubcategoryID utils.SixID
	Tags          []utils.SixID
}

func (in *ItemInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	switch {
	case in.Name == "":
		return apperr.Validation("name", "is required")
	case in.PriceMin < 0:
		return apperr.Validation("price_min", "must be at least 0")
	case in.PriceMax < in.PriceMin:
		return apperr.Validation("price_max", "must not be less than price_min")
	}
	if in.Location != nil {
		return in.Location.Validate()
	}
	return nil
}

type IItemService interface {
	Create(ctx context.Context, ownerID utils.SixID, in ItemInput) (*models.Item, error)
	Find(ctx context.Context, itemID utils.SixID) (*models.Item, error)
	Update(ctx context.Context, ownerID, itemID utils.SixID, in ItemInput) (*models.Item, error)
	Delete(ctx context.Context, ownerID, itemID utils.SixID) error
	ListByOwner(ctx context.Context, ownerID utils.SixID, availableOnly bool) ([]models.Item, error)
	View(ctx context.Context, userID, itemID utils.SixID) (*models.Item, error)
	// FindByIDs returns the stored items among ids, in input order. Unknown ids are skipped.
	FindByIDs(ctx context.Context, ids []utils.SixID) ([]models.Item, error)
	ListAvailableExcept(ctx context.Context, userID utils.SixID) ([]models.Item, error)
}

type itemService struct {
	db      *mongo.Database
	catalog ICatalogService
	effects Effects
}

func NewItemService(db *mongo.Database, catalog ICatalogService, effects Effects) IItemService {
	return &itemService{db: db, catalog: catalog, effects: effects}
}

func (s *itemService) checkRefs(ctx context.Context, in ItemInput) error {
	if _, err := s.catalog.FindSubcategory(ctx, in.SubcategoryID); err != nil {
		return err
	}
	_, err := s.catalog.TagsByIDs(ctx, in.Tags)
	return err
}

func (s *itemService) Create(ctx context.Context, ownerID utils.SixID, in ItemInput) (*models.Item, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	owner, err := findByID[models.User](ctx, s.db.Collection(usersCollection), "user", ownerID)
	if err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, in); err != nil {
		return nil, err
	}

	item := &models.Item{
		OwnerID:       ownerID,
		Name:          in.Name,
		Description:   in.Description,
		Condition:     in.Condition,
		Photo:         in.Photo,
		PriceMin:      in.PriceMin,
		PriceMax:      in.PriceMax,
		Location:      owner.CurrentLocation,
		IsAvailable:   true,
		SubcategoryID: in.SubcategoryID,
		Tags:          uniqueIDs(in.Tags),
		DatePosted:    time.Now().UTC(),
	}
	if in.Location != nil {
		item.Location = models.NewGeoPoint(*in.Location)
	}

	if err := db.InsertOne(ctx, s.db.Collection(itemsCollection), item); err != nil {
		return nil, fmt.Errorf("failed to insert item: %w", err)
	}

	s.effects.Record(ctx, recommender.Interaction{
		Kind:          recommender.KindSetItem,
		ItemID:        item.ID,
		SubcategoryID: item.SubcategoryID,
	})
	return item, nil
}

func (s *itemService) Find(ctx context.Context, itemID utils.SixID) (*models.Item, error) {
	return findByID[models.Item](ctx, s.db.Collection(itemsCollection), "item", itemID)
}

// owned loads an item that must belong to ownerID. Someone else's item reads as missing.
func (s *itemService) owned(ctx context.Context, ownerID, itemID utils.SixID) (*models.Item, error) {
	return findOne[models.Item](ctx, s.db.Collection(itemsCollection), ownedFilter(ownerID, itemID), "item", itemID.String())
}

func ownedFilter(ownerID, itemID utils.SixID) bson.M {
	return bson.M{"_id": itemID, "owner_id": ownerID}
}

func (s *itemService) Update(ctx context.Context, ownerID, itemID utils.SixID, in ItemInput) (*models.Item, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	current, err := s.owned(ctx, ownerID, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, in); err != nil {
		return nil, err
	}

	set := bson.M{
		"name":           in.Name,
		"description":    in.Description,
		"condition":      in.Condition,
		"price_min":      in.PriceMin,
		"price_max":      in.PriceMax,
		"subcategory_id": in.SubcategoryID,
		"tags":           uniqueIDs(in.Tags),
	}
	if in.Photo != "" {
		set["photo"] = in.Photo
	}
	if in.Location != nil {
		set["location"] = models.NewGeoPoint(*in.Location)
	}

	var item models.Item
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err = s.db.Collection(itemsCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": itemID, "owner_id": ownerID}, bson.M{"$set": set}, opts).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("item", itemID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update item %s: %w", itemID, err)
	}

	if current.SubcategoryID != item.SubcategoryID {
		s.effects.Record(ctx, recommender.Interaction{
			Kind:          recommender.KindSetItem,
			ItemID:        item.ID,
			SubcategoryID: item.SubcategoryID,
		})
	}
	return &item, nil
}

// Delete removes an item unless an open transaction references it.
func (s *itemService) Delete(ctx context.Context, ownerID, itemID utils.SixID) error {
	if _, err := s.owned(ctx, ownerID, itemID); err != nil {
		return err
	}

	open, err := s.db.Collection(transactionsCollection).CountDocuments(ctx, bson.M{
		"$or":   bson.A{bson.M{"item1_id": itemID}, bson.M{"item2_id": itemID}},
		"state": bson.M{"$in": models.OpenTransactionStates},
	})
	if err != nil {
		return fmt.Errorf("counting transactions of item %s: %w", itemID, err)
	}
	if open > 0 {
		return apperr.Conflict(apperr.CodeItemInTransaction, "item is part of an open transaction", nil)
	}

	res, err := s.db.Collection(itemsCollection).DeleteOne(ctx, bson.M{"_id": itemID, "owner_id": ownerID})
	if err != nil {
		return fmt.Errorf("failed to delete item %s: %w", itemID, err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("item", itemID.String())
	}
	return nil
}

func (s *itemService) ListByOwner(ctx context.Context, ownerID utils.SixID, availableOnly bool) ([]models.Item, error) {
	filter := bson.M{"owner_id": ownerID}
	if availableOnly {
		filter["is_available"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "date_posted", Value: 1}})
	return findAll[models.Item](ctx, s.db.Collection(itemsCollection), filter, opts)
}

// View returns the item and records a view when the viewer is not the owner.
func (s *itemService) View(ctx context.Context, userID, itemID utils.SixID) (*models.Item, error) {
	item, err := s.Find(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != userID {
		s.effects.Record(ctx, recommender.Interaction{Kind: recommender.KindView, UserID: userID, ItemID: itemID})
	}
	return item, nil
}

func (s *itemService) FindByIDs(ctx context.Context, ids []utils.SixID) ([]models.Item, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return []models.Item{}, nil
	}
	found, err := findAll[models.Item](ctx, s.db.Collection(itemsCollection), bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	index := make(map[utils.SixID]models.Item, len(found))
	for _, it := range found {
		index[it.ID] = it
	}
	out := make([]models.Item, 0, len(found))
	for _, id := range ids {
		if it, ok := index[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *itemService) ListAvailableExcept(ctx context.Context, userID utils.SixID) ([]models.Item, error) {
	filter := bson.M{"is_available": true, "owner_id": bson.M{"$ne": userID}}
	opts := options.Find().SetSort(bson.D{{Key: "date_posted", Value: -1}})
	return findAll[models.Item](ctx, s.db.Collection(itemsCollection), filter, opts)
}
