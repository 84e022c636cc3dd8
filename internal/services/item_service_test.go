package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"swapp/api/internal/apperr"
	"swapp/api/internal/models"
	"swapp/api/internal/recommender"
	"swapp/api/internal/utils"
)

func TestItemService_CreateDefaultsToOwnerLocation(t *testing.T) {
	db := setupTestDB(t, "testdb_item_create")
	effects := &recordingEffects{}
	svc := NewItemService(db, NewCatalogService(db), effects)
	f := newFixture(t, db)
	ctx := context.Background()

	owner := f.user("Owner", &manila)
	sub := f.subcategory(f.category("Gadgets").ID, "Phones")

	item, err := svc.Create(ctx, owner.ID, ItemInput{Name: "Phone", PriceMin: 5000, PriceMax: 6500, SubcategoryID: sub.ID})
	require.NoError(t, err)
	assert.True(t, item.IsAvailable)
	p, ok := item.Location.Point()
	require.True(t, ok)
	assert.Equal(t, manila, p)

	require.Len(t, effects.interactions, 1)
	assert.Equal(t, recommender.KindSetItem, effects.interactions[0].Kind)
	assert.Equal(t, sub.ID, effects.interactions[0].SubcategoryID)

	_, err = svc.Create(ctx, owner.ID, ItemInput{Name: "Bad", PriceMin: 10, PriceMax: 5, SubcategoryID: sub.ID})
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.Create(ctx, owner.ID, ItemInput{Name: "Lost", SubcategoryID: utils.NewSixID()})
	assert.True(t, apperr.IsNotFound(err))
}

func TestItemService_UpdateAndDelete(t *testing.T) {
	db := setupTestDB(t, "testdb_item_update")
	svc := NewItemService(db, NewCatalogService(db), NopEffects{})
	f := newFixture(t, db)
	ctx := context.Background()

	owner := f.user("Owner", &manila)
	other := f.user("Other", &manila)
	sub := f.subcategory(f.category("Books").ID, "Comics")
	item, err := svc.Create(ctx, owner.ID, ItemInput{Name: "Comic", PriceMin: 100, PriceMax: 200, SubcategoryID: sub.ID})
	require.NoError(t, err)

	in := ItemInput{Name: "Rare comic", PriceMin: 150, PriceMax: 300, SubcategoryID: sub.ID, Location: &cebu}
	_, err = svc.Update(ctx, other.ID, item.ID, in)
	assert.True(t, apperr.IsNotFound(err))

	updated, err := svc.Update(ctx, owner.ID, item.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Rare comic", updated.Name)
	assert.Equal(t, 300.0, updated.PriceMax)
	p, _ := updated.Location.Point()
	assert.Equal(t, cebu, p)

	assert.True(t, apperr.IsNotFound(svc.Delete(ctx, other.ID, item.ID)))
	require.NoError(t, svc.Delete(ctx, owner.ID, item.ID))
	_, err = svc.Find(ctx, item.ID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestItemService_DeleteBlockedByOpenTransaction(t *testing.T) {
	db := setupTestDB(t, "testdb_item_delete_open")
	effects := &recordingEffects{}
	items := NewItemService(db, NewCatalogService(db), effects)
	negotiation := NewNegotiationService(db, testConfig(), effects)
	f := newFixture(t, db)
	ctx := context.Background()

	a := f.user("A", &manila)
	b := f.user("B", &manila)
	itemA := f.item(a, "Guitar", 100, 200, &manila)
	itemB := f.item(b, "Bike", 100, 200, &manila)

	pending, err := negotiation.Propose(ctx, a.ID, itemA.ID, itemB.ID)
	require.NoError(t, err)

	err = items.Delete(ctx, a.ID, itemA.ID)
	assert.True(t, apperr.IsConflict(err, apperr.CodeItemInTransaction))
	err = items.Delete(ctx, b.ID, itemB.ID)
	assert.True(t, apperr.IsConflict(err, apperr.CodeItemInTransaction))

	// Approved swaps keep pinning their items.
	amp := f.item(a, "Amp", 100, 200, &manila)
	pedal := f.item(b, "Pedal", 100, 200, &manila)
	approved, err := negotiation.Propose(ctx, a.ID, amp.ID, pedal.ID)
	require.NoError(t, err)
	_, err = negotiation.Respond(ctx, b.ID, ActionAccept, OfferRef{ThreadID: threadOf(t, db, approved.ID)})
	require.NoError(t, err)
	err = items.Delete(ctx, a.ID, amp.ID)
	assert.True(t, apperr.IsConflict(err, apperr.CodeItemInTransaction))

	// A rejected offer releases them.
	_, err = negotiation.Respond(ctx, b.ID, ActionReject, OfferRef{ThreadID: threadOf(t, db, pending.ID)})
	require.NoError(t, err)
	assert.NoError(t, items.Delete(ctx, a.ID, itemA.ID))
}

func threadOf(t *testing.T, database *mongo.Database, transactionID utils.SixID) *utils.SixID {
	t.Helper()
	th, err := findOne[models.Thread](context.Background(), database.Collection(threadsCollection),
		bson.M{"transaction_id": transactionID}, "thread", "")
	require.NoError(t, err)
	return &th.ID
}

func TestItemService_ViewAndLists(t *testing.T) {
	db := setupTestDB(t, "testdb_item_view")
	effects := &recordingEffects{}
	svc := NewItemService(db, NewCatalogService(db), effects)
	f := newFixture(t, db)
	ctx := context.Background()

	a := f.user("A", &manila)
	b := f.user("B", &manila)
	mine := f.item(a, "Mine", 1, 2, &manila)
	theirs := f.item(b, "Theirs", 1, 2, &manila)
	sold := f.item(b, "Sold", 1, 2, &manila)
	_, err := db.Collection(itemsCollection).UpdateOne(ctx, map[string]any{"_id": sold.ID}, map[string]any{"$set": map[string]any{"is_available": false}})
	require.NoError(t, err)

	_, err = svc.View(ctx, a.ID, mine.ID)
	require.NoError(t, err)
	_, err = svc.View(ctx, a.ID, theirs.ID)
	require.NoError(t, err)
	assert.Equal(t, []recommender.InteractionKind{recommender.KindView}, effects.kinds())

	avail, err := svc.ListAvailableExcept(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, avail, 1)
	assert.Equal(t, theirs.ID, avail[0].ID)

	found, err := svc.FindByIDs(ctx, []utils.SixID{theirs.ID, utils.NewSixID(), mine.ID})
	require.NoError(t, err)
	assert.Equal(t, []utils.SixID{theirs.ID, mine.ID}, itemIDs(found))

	owned, err := svc.ListByOwner(ctx, b.ID, true)
	require.NoError(t, err)
	assert.Equal(t, []utils.SixID{theirs.ID}, itemIDs(owned))
}

func itemIDs(items []models.Item) []utils.SixID {
	out := make([]utils.SixID, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
