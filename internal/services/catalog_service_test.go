package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swapp/api/internal/apperr"
	"swapp/api/internal/utils"
)

func TestCatalogService_CreateAndList(t *testing.T) {
	db := setupTestDB(t, "testdb_catalog_create")
	svc := NewCatalogService(db)
	ctx := context.Background()

	gadgets, err := svc.CreateCategory(ctx, " Gadgets ")
	require.NoError(t, err)
	assert.Equal(t, "Gadgets", gadgets.Name)
	_, err = svc.CreateCategory(ctx, "Books")
	require.NoError(t, err)

	cats, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Books", cats[0].Name)

	_, err = svc.CreateCategory(ctx, "Gadgets")
	assert.True(t, apperr.IsConflict(err, apperr.CodeDuplicate))

	phones, err := svc.CreateSubcategory(ctx, gadgets.ID, "Phones")
	require.NoError(t, err)
	subs, err := svc.ListSubcategories(ctx, &gadgets.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, phones.ID, subs[0].ID)

	_, err = svc.CreateSubcategory(ctx, utils.NewSixID(), "Orphans")
	assert.True(t, apperr.IsNotFound(err))

	tag, err := svc.CreateTag(ctx, "Vintage")
	require.NoError(t, err)
	assert.Equal(t, "vintage", tag.Name)

	ids, err := svc.SubcategoryIDs(ctx, []utils.SixID{gadgets.ID})
	require.NoError(t, err)
	assert.Equal(t, []utils.SixID{phones.ID}, ids)
}

func TestCatalogService_ByIDsRejectsUnknown(t *testing.T) {
	db := setupTestDB(t, "testdb_catalog_byids")
	svc := NewCatalogService(db)
	ctx := context.Background()

	a, err := svc.CreateCategory(ctx, "A")
	require.NoError(t, err)
	b, err := svc.CreateCategory(ctx, "B")
	require.NoError(t, err)

	cats, err := svc.CategoriesByIDs(ctx, []utils.SixID{b.ID, a.ID, b.ID})
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "B", cats[0].Name)

	_, err = svc.CategoriesByIDs(ctx, []utils.SixID{a.ID, utils.NewSixID()})
	assert.True(t, apperr.IsNotFound(err))

	_, err = svc.CreateCategory(ctx, "  ")
	assert.True(t, apperr.IsValidation(err))
}
