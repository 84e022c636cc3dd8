package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"swapp/api/internal/config"
	"swapp/api/internal/db"
	"swapp/api/internal/geo"
	"swapp/api/internal/models"
	"swapp/api/internal/push"
	"swapp/api/internal/recommender"
	"swapp/api/internal/utils"
)

var (
	manila = geo.Point{Lat: 14.5995, Lng: 120.9842}
	makati = geo.Point{Lat: 14.5547, Lng: 121.0244}
	cebu   = geo.Point{Lat: 10.3157, Lng: 123.8854}
)

// setupTestDB returns a clean database with every index in place.
func setupTestDB(t *testing.T, dbName string) *mongo.Database {
	t.Helper()
	database := utils.SetupTestDB(t, dbName, Collections()...)
	require.NoError(t, db.EnsureIndexes(context.Background(), database, Indexes()))
	return database
}

func testConfig() *config.Config {
	return &config.Config{
		DefaultDistanceRangeKm: 100,
		ConflictRadiusKm:       50,
		RecommenderQueryNum:    10,
	}
}

// recordingEffects captures scheduled side effects.
type recordingEffects struct {
	mu           sync.Mutex
	pushes       []recordedPush
	interactions []recommender.Interaction
	retrains     int
}

type recordedPush struct {
	UserID utils.SixID
	Notice push.Notice
}

func (e *recordingEffects) Push(_ context.Context, userID utils.SixID, n push.Notice) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pushes = append(e.pushes, recordedPush{UserID: userID, Notice: n})
}

func (e *recordingEffects) Record(_ context.Context, in recommender.Interaction) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.interactions = append(e.interactions, in)
}

func (e *recordingEffects) Retrain(context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.retrains++
}

func (e *recordingEffects) kinds() []recommender.InteractionKind {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]recommender.InteractionKind, 0, len(e.interactions))
	for _, in := range e.interactions {
		out = append(out, in.Kind)
	}
	return out
}

// fixture seeds users, catalogue and items directly.
type fixture struct {
	t   *testing.T
	db  *mongo.Database
	ctx context.Context
}

func newFixture(t *testing.T, database *mongo.Database) *fixture {
	return &fixture{t: t, db: database, ctx: context.Background()}
}

func (f *fixture) user(name string, at *geo.Point) *models.User {
	f.t.Helper()
	u := &models.User{Name: name, DistanceRangeKm: 100, PreferredCategories: []utils.SixID{}, PreferredTags: []utils.SixID{}}
	if at != nil {
		u.CurrentLocation = models.NewGeoPoint(*at)
	}
	require.NoError(f.t, db.InsertOne(f.ctx, f.db.Collection(usersCollection), u))
	return u
}

func (f *fixture) category(name string) *models.Category {
	f.t.Helper()
	c := &models.Category{Name: name}
	require.NoError(f.t, db.InsertOne(f.ctx, f.db.Collection(categoriesCollection), c))
	return c
}

func (f *fixture) subcategory(categoryID utils.SixID, name string) *models.Subcategory {
	f.t.Helper()
	sc := &models.Subcategory{CategoryID: categoryID, Name: name}
	require.NoError(f.t, db.InsertOne(f.ctx, f.db.Collection(subcategoriesCollection), sc))
	return sc
}

func (f *fixture) item(owner *models.User, name string, min, max float64, at *geo.Point) *models.Item {
	f.t.Helper()
	it := &models.Item{
		OwnerID:     owner.ID,
		Name:        name,
		PriceMin:    min,
		PriceMax:    max,
		IsAvailable: true,
		Tags:        []utils.SixID{},
	}
	if at != nil {
		it.Location = models.NewGeoPoint(*at)
	}
	require.NoError(f.t, db.InsertOne(f.ctx, f.db.Collection(itemsCollection), it))
	return it
}

func (f *fixture) count(collection string, filter any) int64 {
	f.t.Helper()
	n, err := f.db.Collection(collection).CountDocuments(f.ctx, filter)
	require.NoError(f.t, err)
	return n
}

func (f *fixture) reload(id utils.SixID) *models.Item {
	f.t.Helper()
	it, err := findByID[models.Item](f.ctx, f.db.Collection(itemsCollection), "item", id)
	require.NoError(f.t, err)
	return it
}
