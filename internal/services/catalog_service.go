package services

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"swapp/api/internal/apperr"
	"swapp/api/internal/db"
	"swapp/api/internal/models"
	"swapp/api/internal/utils"
)

// ICatalogService manages categories, subcategories and tags.
type ICatalogService interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, name string) (*models.Category, error)
	ListSubcategories(ctx context.Context, categoryID *utils.SixID) ([]models.Subcategory, error)
	CreateSubcategory(ctx context.Context, categoryID utils.SixID, name string) (*models.Subcategory, error)
	FindSubcategory(ctx context.Context, id utils.SixID) (*models.Subcategory, error)
	ListTags(ctx context.Context) ([]models.Tag, error)
	CreateTag(ctx context.Context, name string) (*models.Tag, error)
	// CategoriesByIDs returns the categories in input order, failing with NotFound on the first unknown id.
	CategoriesByIDs(ctx context.Context, ids []utils.SixID) ([]models.Category, error)
	TagsByIDs(ctx context.Context, ids []utils.SixID) ([]models.Tag, error)
	SubcategoryIDs(ctx context.Context, categoryIDs []utils.SixID) ([]utils.SixID, error)
}

type catalogService struct {
	db *mongo.Database
}

func NewCatalogService(db *mongo.Database) ICatalogService {
	return &catalogService{db: db}
}

var byName = options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

func (s *catalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return findAll[models.Category](ctx, s.db.Collection(categoriesCollection), bson.M{}, byName)
}

func (s *catalogService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	c := &models.Category{Name: strings.TrimSpace(name)}
	if err := s.insertNamed(ctx, categoriesCollection, c, c.Name); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *catalogService) ListSubcategories(ctx context.Context, categoryID *utils.SixID) ([]models.Subcategory, error) {
	filter := bson.M{}
	if categoryID != nil {
		filter["category_id"] = *categoryID
	}
	return findAll[models.Subcategory](ctx, s.db.Collection(subcategoriesCollection), filter, byName)
}

func (s *catalogService) CreateSubcategory(ctx context.Context, categoryID utils.SixID, name string) (*models.Subcategory, error) {
	if _, err := findByID[models.Category](ctx, s.db.Collection(categoriesCollection), "category", categoryID); err != nil {
		return nil, err
	}
	sc := &models.Subcategory{CategoryID: categoryID, Name: strings.TrimSpace(name)}
	if err := s.insertNamed(ctx, subcategoriesCollection, sc, sc.Name); err != nil {
		return nil, err
	}
	return sc, nil
}

func (s *catalogService) FindSubcategory(ctx context.Context, id utils.SixID) (*models.Subcategory, error) {
	return findByID[models.Subcategory](ctx, s.db.Collection(subcategoriesCollection), "subcategory", id)
}

func (s *catalogService) ListTags(ctx context.Context) ([]models.Tag, error) {
	return findAll[models.Tag](ctx, s.db.Collection(tagsCollection), bson.M{}, byName)
}

func (s *catalogService) CreateTag(ctx context.Context, name string) (*models.Tag, error) {
	t := &models.Tag{Name: strings.ToLower(strings.TrimSpace(name))}
	if err := s.insertNamed(ctx, tagsCollection, t, t.Name); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *catalogService) CategoriesByIDs(ctx context.Context, ids []utils.SixID) ([]models.Category, error) {
	return byIDs[models.Category](ctx, s.db.Collection(categoriesCollection), "category", ids, func(c models.Category) utils.SixID { return c.ID })
}

func (s *catalogService) TagsByIDs(ctx context.Context, ids []utils.SixID) ([]models.Tag, error) {
	return byIDs[models.Tag](ctx, s.db.Collection(tagsCollection), "tag", ids, func(t models.Tag) utils.SixID { return t.ID })
}

func (s *catalogService) SubcategoryIDs(ctx context.Context, categoryIDs []utils.SixID) ([]utils.SixID, error) {
	if len(categoryIDs) == 0 {
		return []utils.SixID{}, nil
	}
	subs, err := findAll[models.Subcategory](ctx, s.db.Collection(subcategoriesCollection), bson.M{"category_id": bson.M{"$in": categoryIDs}})
	if err != nil {
		return nil, err
	}
	ids := make([]utils.SixID, 0, len(subs))
	for _, sc := range subs {
		ids = append(ids, sc.ID)
	}
	return ids, nil
}

func (s *catalogService) insertNamed(ctx context.Context, collection string, doc models.IBase, name string) error {
	if name == "" {
		return apperr.Validation("name", "is required")
	}
	err := db.InsertOne(ctx, s.db.Collection(collection), doc)
	if db.IsMongoDuplicateKeyError(err) {
		return apperr.Conflict(apperr.CodeDuplicate, fmt.Sprintf("%q already exists", name), nil)
	}
	if err != nil {
		return fmt.Errorf("inserting into %s: %w", collection, err)
	}
	return nil
}

// byIDs loads documents by id, preserving input order and rejecting unknown ids.
func byIDs[T any](ctx context.Context, coll *mongo.Collection, resource string, ids []utils.SixID, idOf func(T) utils.SixID) ([]T, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return []T{}, nil
	}
	docs, err := findAll[T](ctx, coll, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	index := make(map[utils.SixID]T, len(docs))
	for _, d := range docs {
		index[idOf(d)] = d
	}
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		d, ok := index[id]
		if !ok {
			return nil, apperr.NotFound(resource, id.String())
		}
		out = append(out, d)
	}
	return out, nil
}
