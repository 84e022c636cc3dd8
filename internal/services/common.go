package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"swapp/api/internal/apperr"
	"swapp/api/internal/utils"
)

// findByID loads one document, mapping a miss to a NotFoundError for resource.
func findByID[T any](ctx context.Context, coll *mongo.Collection, resource string, id utils.SixID) (*T, error) {
	return findOne[T](ctx, coll, bson.M{"_id": id}, resource, id.String())
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, resource, id string) (*T, error) {
	var doc T
	err := coll.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound(resource, id)
		}
		return nil, fmt.Errorf("finding %s %s: %w", resource, id, err)
	}
	return &doc, nil
}

// findAll decodes every match. It never returns a nil slice.
func findAll[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", coll.Name(), err)
	}
	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", coll.Name(), err)
	}
	return out, nil
}

// uniqueIDs drops duplicates while keeping order.
func uniqueIDs(ids []utils.SixID) []utils.SixID {
	seen := make(map[utils.SixID]bool, len(ids))
	out := make([]utils.SixID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
