package services_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accessible-env-backend/internal/domain/models"
	"accessible-env-backend/internal/domain/repositories"
	"accessible-env-backend/internal/domain/rules"
	"accessible-env-backend/internal/domain/services"
	"accessible-env-backend/internal/error/apperr"
	"accessible-env-backend/internal/error/code"
	"accessible-env-backend/internal/infrastructure/messaging"
	"accessible-env-backend/internal/test/testutil"
)

func locationInput(g testutil.Geo, name string) services.LocationInput {
	return services.LocationInput{
		Name:       ptr(name),
		Address:    ptr("12 Amir Temur avenue"),
		Latitude:   ptr(41.3),
		Longitude:  ptr(69.2),
		CategoryID: ptr(g.Category.ID),
		RegionID:   ptr(g.Region.ID),
		DistrictID: ptr(g.District.ID),
	}
}

func TestCreateLocation(t *testing.T) {
	e := newEnv(t)
	user := testutil.CreateUser(t, e.db, rules.RoleUser)
	g := testutil.CreateGeo(t, e.db)

	loc, err := e.locations.Create(e.ctx, user.Actor(), locationInput(g, "Central library"))
	require.NoError(t, err)
	assert.Equal(t, models.LocationActive, loc.Status)
	assert.Equal(t, user.ID, loc.CreatedBy)

	stats, err := repositories.NewLocationRepository(e.db).Get(e.ctx, loc.ID)
	require.NoError(t, err)
	require.NotNil(t, stats.Stats, "stats row is created with the location")
	assert.Equal(t, 0, stats.Stats.AssessmentCount)

	assert.Eventually(t, func() bool {
		return contains(e.publisher.Types(), messaging.EventLocationCreated)
	}, time.Second, 10*time.Millisecond)

	other := testutil.CreateGeo(t, e.db)
	in := locationInput(g, "Wrong district")
	in.DistrictID = ptr(other.District.ID)
	_, err = e.locations.Create(e.ctx, user.Actor(), in)
	requireCode(t, err, apperr.KindValidation, code.ErrValidation)

	in = locationInput(g, "Bad latitude")
	in.Latitude = ptr(91.0)
	_, err = e.locations.Create(e.ctx, user.Actor(), in)
	requireCode(t, err, apperr.KindValidation, code.ErrValidation)
}

func TestLocationGetIsCached(t *testing.T) {
	e := newEnv(t)
	user := testutil.CreateUser(t, e.db, rules.RoleUser)
	loc := testutil.CreateLocation(t, e.db, testutil.CreateGeo(t, e.db), user)

	got, err := e.locations.Get(e.ctx, user.Actor(), loc.ID)
	require.NoError(t, err)
	assert.Equal(t, loc.Name, got.Name)
	assert.True(t, e.redis.Exists(fmt.Sprintf("location:%d", loc.ID)))

	updated, err := e.locations.Update(e.ctx, user.Actor(), loc.ID, services.LocationInput{Name: ptr("Renamed")})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.False(t, e.redis.Exists(fmt.Sprintf("location:%d", loc.ID)), "update invalidates the cache")

	got, err = e.locations.Get(e.ctx, user.Actor(), loc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
}

func TestLocationUpdatePermissions(t *testing.T) {
	e := newEnv(t)
	owner := testutil.CreateUser(t, e.db, rules.RoleUser)
	stranger := testutil.CreateUser(t, e.db, rules.RoleUser)
	inspector := testutil.CreateUser(t, e.db, rules.RoleInspector)
	loc := testutil.CreateLocation(t, e.db, testutil.CreateGeo(t, e.db), owner)

	_, err := e.locations.Update(e.ctx, stranger.Actor(), loc.ID, services.LocationInput{Name: ptr("x")})
	requireCode(t, err, apperr.KindForbidden, code.ErrForbidden)

	_, err = e.locations.Update(e.ctx, inspector.Actor(), loc.ID, services.LocationInput{Description: ptr("step free entrance")})
	require.NoError(t, err)

	archived := models.LocationArchived
	_, err = e.locations.Update(e.ctx, owner.Actor(), loc.ID, services.LocationInput{Status: &archived})
	requireCode(t, err, apperr.KindValidation, code.ErrValidation)
}

func TestArchiveAndListVisibility(t *testing.T) {
	e := newEnv(t)
	super := testutil.CreateUser(t, e.db, rules.RoleSuperadmin)
	admin := testutil.CreateUser(t, e.db, rules.RoleAdmin)
	user := testutil.CreateUser(t, e.db, rules.RoleUser)
	g := testutil.CreateGeo(t, e.db)

	assigned := testutil.CreateLocation(t, e.db, g, user)
	other := testutil.CreateLocation(t, e.db, g, user)
	gone := testutil.CreateLocation(t, e.db, g, user)
	testutil.AssignInspector(t, e.db, assigned, admin, super)

	requireCode(t, e.locations.Archive(e.ctx, admin.Actor(), gone.ID), apperr.KindForbidden, code.ErrInspectorNotAssigned)
	requireCode(t, e.locations.Archive(e.ctx, user.Actor(), gone.ID), apperr.KindForbidden, code.ErrForbidden)
	require.NoError(t, e.locations.Archive(e.ctx, super.Actor(), gone.ID))
	requireCode(t, e.locations.Archive(e.ctx, super.Actor(), gone.ID), apperr.KindConflict, code.ErrLocationArchived)

	page := &models.PaginationQuery{}
	all, total, err := e.locations.List(e.ctx, super.Actor(), repositories.LocationFilter{}, page)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 3)

	mine, total, err := e.locations.List(e.ctx, admin.Actor(), repositories.LocationFilter{}, page)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, mine, 1)
	assert.Equal(t, assigned.ID, mine[0].ID)

	visible, total, err := e.locations.List(e.ctx, user.Actor(), repositories.LocationFilter{}, page)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, l := range visible {
		assert.NotEqual(t, gone.ID, l.ID)
	}
	assert.Contains(t, []uint{visible[0].ID, visible[1].ID}, other.ID)

	none, total, err := e.locations.List(e.ctx, user.Actor(), repositories.LocationFilter{Status: models.LocationArchived}, page)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, none)

	_, err = e.locations.Get(e.ctx, user.Actor(), gone.ID)
	requireCode(t, err, apperr.KindNotFound, code.ErrLocationNotFound)
	_, err = e.locations.Get(e.ctx, super.Actor(), gone.ID)
	require.NoError(t, err)
}

func TestAdminGetIsLimitedToAssignedLocations(t *testing.T) {
	e := newEnv(t)
	super := testutil.CreateUser(t, e.db, rules.RoleSuperadmin)
	admin := testutil.CreateUser(t, e.db, rules.RoleAdmin)
	user := testutil.CreateUser(t, e.db, rules.RoleUser)
	g := testutil.CreateGeo(t, e.db)

	assigned := testutil.CreateLocation(t, e.db, g, user)
	other := testutil.CreateLocation(t, e.db, g, user)
	testutil.AssignInspector(t, e.db, assigned, admin, super)

	got, err := e.locations.Get(e.ctx, admin.Actor(), assigned.ID)
	require.NoError(t, err)
	assert.Equal(t, assigned.ID, got.ID)

	_, err = e.locations.Get(e.ctx, admin.Actor(), other.ID)
	requireCode(t, err, apperr.KindNotFound, code.ErrLocationNotFound)

	// a cached copy from another caller does not leak through
	_, err = e.locations.Get(e.ctx, user.Actor(), other.ID)
	require.NoError(t, err)
	_, err = e.locations.Get(e.ctx, admin.Actor(), other.ID)
	requireCode(t, err, apperr.KindNotFound, code.ErrLocationNotFound)

	_, err = e.locations.Get(e.ctx, super.Actor(), other.ID)
	require.NoError(t, err)
}

func TestAssignInspector(t *testing.T) {
	e := newEnv(t)
	super := testutil.CreateUser(t, e.db, rules.RoleSuperadmin)
	admin := testutil.CreateUser(t, e.db, rules.RoleAdmin)
	user := testutil.CreateUser(t, e.db, rules.RoleUser)
	loc := testutil.CreateLocation(t, e.db, testutil.CreateGeo(t, e.db), user)

	_, err := e.locations.AssignInspector(e.ctx, admin.Actor(), loc.ID, admin.ID)
	requireCode(t, err, apperr.KindForbidden, code.ErrForbidden)
	_, err = e.locations.AssignInspector(e.ctx, super.Actor(), loc.ID, user.ID)
	requireCode(t, err, apperr.KindValidation, code.ErrInvalidInspector)
	_, err = e.locations.AssignInspector(e.ctx, super.Actor(), loc.ID, super.ID)
	requireCode(t, err, apperr.KindForbidden, code.ErrInvalidInspector)
	_, err = e.locations.AssignInspector(e.ctx, super.Actor(), 9999, admin.ID)
	requireCode(t, err, apperr.KindNotFound, code.ErrLocationNotFound)

	li, err := e.locations.AssignInspector(e.ctx, super.Actor(), loc.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, super.ID, li.AssignedBy)
	assert.False(t, li.AssignedAt.IsZero())

	_, err = e.locations.AssignInspector(e.ctx, super.Actor(), loc.ID, admin.ID)
	requireCode(t, err, apperr.KindConflict, code.ErrInspectorAlreadyAssigned)

	ok, err := e.locations.IsInspector(e.ctx, admin.Actor(), loc.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = e.locations.IsInspector(e.ctx, super.Actor(), loc.ID)
	require.NoError(t, err)
	assert.True(t, ok, "superadmins inspect everywhere")

	inspectors, err := e.locations.ListInspectors(e.ctx, admin.Actor(), loc.ID)
	require.NoError(t, err)
	assert.Len(t, inspectors, 1)

	msgs := e.notifier.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, admin.ID, msgs[0].UserID)
	assert.Equal(t, models.NotificationInspectorAssigned, msgs[0].Type)

	requireCode(t, e.locations.UnassignInspector(e.ctx, admin.Actor(), loc.ID, admin.ID), apperr.KindForbidden, code.ErrForbidden)
	require.NoError(t, e.locations.UnassignInspector(e.ctx, super.Actor(), loc.ID, admin.ID))
	requireCode(t, e.locations.UnassignInspector(e.ctx, super.Actor(), loc.ID, admin.ID), apperr.KindNotFound, code.ErrInspectorNotAssigned)

	ok, err = e.locations.IsInspector(e.ctx, admin.Actor(), loc.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRefreshAllStats(t *testing.T) {
	e := newEnv(t)
	user := testutil.CreateUser(t, e.db, rules.RoleUser)
	g := testutil.CreateGeo(t, e.db)
	testutil.CreateLocation(t, e.db, g, user)
	testutil.CreateLocation(t, e.db, g, user)

	n, err := e.locations.RefreshAllStats(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var count int64
	require.NoError(t, e.db.Model(&models.LocationStats{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}
