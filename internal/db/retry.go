package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"swapp/api/internal/models"
)

// Operation is a retryable unit of work.
type Operation func() error

// ErrorPredicate decides whether an error is worth another attempt.
type ErrorPredicate func(err error) bool

const DefaultMaxRetries = 3

// Try runs op with DefaultMaxRetries, retrying on any duplicate key error.
func Try(op Operation) error {
	return WithRetries(op, DefaultMaxRetries, IsMongoDuplicateKeyError)
}

// WithRetries runs op once plus up to maxRetries more times while retryable(err) holds.
func WithRetries(op Operation, maxRetries int, retryable ErrorPredicate) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if attempt == maxRetries || !retryable(err) {
			return err
		}
		time.Sleep(time.Duration(50*(attempt+1)) * time.Millisecond)
	}
	return err
}

// InsertOne assigns doc a fresh SixID and inserts it, regenerating the id on
// an _id collision. Collisions on other unique indexes are returned as is.
func InsertOne(ctx context.Context, coll *mongo.Collection, doc models.IBase) error {
	return WithRetries(func() error {
		doc.GenID()
		_, err := coll.InsertOne(ctx, doc)
		return err
	}, DefaultMaxRetries, IsDuplicateIDError)
}

// IsMongoDuplicateKeyError reports a duplicate key error (code 11000) on any index.
func IsMongoDuplicateKeyError(err error) bool {
	return duplicateKeyMessage(err) != ""
}

// IsDuplicateIDError reports a duplicate key error on the _id index.
func IsDuplicateIDError(err error) bool {
	return strings.Contains(duplicateKeyMessage(err), "_id_")
}

// DuplicateKeyIndex reports whether err is a duplicate key error on the named index.
func DuplicateKeyIndex(err error, index string) bool {
	return strings.Contains(duplicateKeyMessage(err), "index: "+index+" ")
}

func duplicateKeyMessage(err error) string {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return e.Message
			}
		}
	}
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, e := range bwe.WriteErrors {
			if e.Code == 11000 {
				return e.Message
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return ce.Message
	}
	return ""
}
