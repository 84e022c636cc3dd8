package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swapp/api/internal/apperr"
	"swapp/api/internal/geo"
	"swapp/api/internal/recommender"
	"swapp/api/internal/utils"
)

func TestProfileService_CreateAndUpdate(t *testing.T) {
	db := setupTestDB(t, "testdb_profile_create")
	effects := &recordingEffects{}
	svc := NewProfileService(db, testConfig(), effects)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "Ana", "+63 900 000 0000")
	require.NoError(t, err)
	assert.Equal(t, 100.0, user.DistanceRangeKm)
	assert.Equal(t, []recommender.InteractionKind{recommender.KindSetUser}, effects.kinds())

	name := "Ana Cruz"
	updated, err := svc.UpdateProfile(ctx, user.ID, ProfileUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ana Cruz", updated.Name)
	assert.Equal(t, "+63 900 000 0000", updated.Phone)

	moved, err := svc.ChangeLocation(ctx, user.ID, manila, "Manila")
	require.NoError(t, err)
	p, ok := moved.CurrentLocation.Point()
	require.True(t, ok)
	assert.Equal(t, manila, p)
	assert.Equal(t, "Manila", moved.LocationLabel)

	_, err = svc.ChangeLocation(ctx, user.ID, geo.Point{Lat: 91}, "")
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.UpdateProfile(ctx, utils.NewSixID(), ProfileUpdate{Name: &name})
	assert.True(t, apperr.IsNotFound(err))

	assert.Equal(t, "Ana Cruz", svc.DisplayName(ctx, user.ID))
	assert.Equal(t, "Someone", svc.DisplayName(ctx, utils.NewSixID()))
}

func TestProfileService_StoreDeviceMovesToken(t *testing.T) {
	db := setupTestDB(t, "testdb_profile_device")
	svc := NewProfileService(db, testConfig(), NopEffects{})
	f := newFixture(t, db)
	ctx := context.Background()

	a := f.user("A", nil)
	b := f.user("B", nil)

	none, err := svc.FindDevice(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = svc.StoreDevice(ctx, a.ID, "tok-1", "ios")
	require.NoError(t, err)
	_, err = svc.StoreDevice(ctx, a.ID, "tok-2", "ios")
	require.NoError(t, err)
	dev, err := svc.FindDevice(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", dev.Token)
	assert.EqualValues(t, 1, f.count(pushDevicesCollection, map[string]any{}))

	_, err = svc.StoreDevice(ctx, b.ID, "tok-2", "ios")
	require.NoError(t, err)
	gone, err := svc.FindDevice(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	moved, err := svc.FindDevice(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", moved.Token)

	_, err = svc.StoreDevice(ctx, a.ID, " ", "ios")
	assert.True(t, apperr.IsValidation(err))
}
