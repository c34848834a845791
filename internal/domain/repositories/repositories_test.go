package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accessible-env-backend/internal/domain/models"
	"accessible-env-backend/internal/domain/repositories"
	"accessible-env-backend/internal/domain/rules"
	"accessible-env-backend/internal/error/apperr"
	"accessible-env-backend/internal/error/code"
	"accessible-env-backend/internal/test/testutil"
)

func TestLocationRoundTrip(t *testing.T) {
	db := testutil.NewDB(t)
	repos := repositories.New(db)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, rules.RoleUser)
	geo := testutil.CreateGeo(t, db)

	in := &models.Location{
		Name:        "Central Library",
		Address:     "12 Navoi street",
		Latitude:    41.2995,
		Longitude:   69.2401,
		CategoryID:  geo.Category.ID,
		RegionID:    geo.Region.ID,
		DistrictID:  geo.District.ID,
		Status:      models.LocationUnderConstruction,
		Description: "Main city library",
		ContactInfo: "+998 71 000 00 00",
		WebsiteURL:  "https://library.example.com",
		CreatedBy:   owner.ID,
	}
	require.NoError(t, repos.Locations.Create(ctx, in))

	out, err := repos.Locations.Get(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.Name, out.Name)
	assert.Equal(t, in.Address, out.Address)
	assert.Equal(t, in.Latitude, out.Latitude)
	assert.Equal(t, in.Longitude, out.Longitude)
	assert.Equal(t, in.CategoryID, out.CategoryID)
	assert.Equal(t, in.RegionID, out.RegionID)
	assert.Equal(t, in.DistrictID, out.DistrictID)
	assert.Nil(t, out.CityID)
	assert.Equal(t, in.Status, out.Status)
	assert.Equal(t, in.Description, out.Description)
	assert.Equal(t, in.ContactInfo, out.ContactInfo)
	assert.Equal(t, in.WebsiteURL, out.WebsiteURL)
	assert.Equal(t, in.CreatedBy, out.CreatedBy)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	require.NotNil(t, out.Category)
	assert.Equal(t, geo.Category.Name, out.Category.Name)
}

func TestLocationGetMissing(t *testing.T) {
	db := testutil.NewDB(t)
	_, err := repositories.New(db).Locations.Get(context.Background(), 404)

	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindNotFound, e.Kind)
	assert.Equal(t, code.ErrLocationNotFound, e.Code)
}

func TestLocationCheckConstraint(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, rules.RoleUser)
	geo := testutil.CreateGeo(t, db)

	err := repositories.New(db).Locations.Create(context.Background(), &models.Location{
		Name: "Nowhere", Address: "-", Latitude: 120, Longitude: 0,
		CategoryID: geo.Category.ID, RegionID: geo.Region.ID, DistrictID: geo.District.ID,
		Status: models.LocationActive, CreatedBy: owner.ID,
	})
	assert.Equal(t, apperr.KindIntegrity, apperr.KindOf(err))
}

func TestLocationListScope(t *testing.T) {
	db := testutil.NewDB(t)
	repos := repositories.New(db)
	ctx := context.Background()

	super := testutil.CreateUser(t, db, rules.RoleSuperadmin)
	admin := testutil.CreateUser(t, db, rules.RoleAdmin)
	geo := testutil.CreateGeo(t, db)
	a := testutil.CreateLocation(t, db, geo, super)
	testutil.CreateLocation(t, db, geo, super)
	archived := testutil.CreateLocation(t, db, geo, super)
	require.NoError(t, repos.Locations.Update(ctx, archived.ID, map[string]interface{}{"status": models.LocationArchived}))
	testutil.AssignInspector(t, db, a, admin, super)

	all, total, err := repos.Locations.List(ctx, repositories.LocationFilter{},
		repositories.LocationScope{IncludeArchived: true}, &models.PaginationQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 3)

	visible, total, err := repos.Locations.List(ctx, repositories.LocationFilter{},
		repositories.LocationScope{}, &models.PaginationQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, visible, 2)

	assigned, total, err := repos.Locations.List(ctx, repositories.LocationFilter{},
		repositories.LocationScope{AssignedTo: admin.ID, IncludeArchived: true}, &models.PaginationQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, assigned, 1)
	assert.Equal(t, a.ID, assigned[0].ID)
}

func TestLocationListPagination(t *testing.T) {
	db := testutil.NewDB(t)
	repos := repositories.New(db)
	owner := testutil.CreateUser(t, db, rules.RoleUser)
	geo := testutil.CreateGeo(t, db)
	for i := 0; i < 5; i++ {
		testutil.CreateLocation(t, db, geo, owner)
	}

	page, total, err := repos.Locations.List(context.Background(), repositories.LocationFilter{},
		repositories.LocationScope{}, &models.PaginationQuery{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, page, 2)
}

func TestInspectorAssignmentRows(t *testing.T) {
	db := testutil.NewDB(t)
	repos := repositories.New(db)
	ctx := context.Background()

	super := testutil.CreateUser(t, db, rules.RoleSuperadmin)
	admin := testutil.CreateUser(t, db, rules.RoleAdmin)
	loc := testutil.CreateLocation(t, db, testutil.CreateGeo(t, db), super)

	li := &models.LocationInspector{LocationID: loc.ID, UserID: admin.ID, AssignedBy: super.ID}
	require.NoError(t, repos.Locations.AddInspector(ctx, li))

	err := repos.Locations.AddInspector(ctx, &models.LocationInspector{LocationID: loc.ID, UserID: admin.ID, AssignedBy: super.ID})
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, code.ErrInspectorAlreadyAssigned, e.Code)

	ok, err = repos.Locations.IsInspector(ctx, loc.ID, admin.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	list, err := repos.Locations.ListInspectors(ctx, loc.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, admin.Username, list[0].User.Username)

	require.NoError(t, repos.Locations.RemoveInspector(ctx, loc.ID, admin.ID))
	err = repos.Locations.RemoveInspector(ctx, loc.ID, admin.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestUserUniqueness(t *testing.T) {
	db := testutil.NewDB(t)
	repos := repositories.New(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, rules.RoleUser)

	err := repos.Users.Create(ctx, &models.User{Username: u.Username, Email: "other@example.com", Role: rules.RoleUser, Status: models.UserStatusActive})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	exists, err := repos.Users.Exists(ctx, "nobody", u.Email)
	require.NoError(t, err)
	assert.True(t, exists)

	found, err := repos.Users.GetByLogin(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)
}

func TestUserRoleCheckConstraint(t *testing.T) {
	db := testutil.NewDB(t)
	err := repositories.New(db).Users.Create(context.Background(), &models.User{
		Username: "ghost", Email: "ghost@example.com", Role: rules.Role("owner"), Status: models.UserStatusActive,
	})
	assert.Equal(t, apperr.KindIntegrity, apperr.KindOf(err))
}

func TestNotificationDedup(t *testing.T) {
	db := testutil.NewDB(t)
	repos := repositories.New(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, rules.RoleUser)

	first := &models.Notification{UserID: u.ID, Type: "x", Title: "hello", DedupKey: "k1"}
	inserted, err := repos.Notifications.Insert(ctx, first)
	require.NoError(t, err)
	assert.True(t, inserted)

	again := &models.Notification{UserID: u.ID, Type: "x", Title: "hello", DedupKey: "k1"}
	inserted, err = repos.Notifications.Insert(ctx, again)
	require.NoError(t, err)
	assert.False(t, inserted)

	count, err := repos.Notifications.UnreadCount(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	require.NoError(t, repos.Notifications.MarkRead(ctx, u.ID, first.ID))
	purged, err := repos.Notifications.PurgeReadBefore(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)
}

func TestWeightedCriteriaAndStats(t *testing.T) {
	db := testutil.NewDB(t)
	repos := repositories.New(db)
	ctx := context.Background()

	super := testutil.CreateUser(t, db, rules.RoleSuperadmin)
	loc := testutil.CreateLocation(t, db, testutil.CreateGeo(t, db), super)
	set, criteria := testutil.CreateSet(t, db, 5, 3)

	weighted, err := repos.Criteria.WeightedCriteria(ctx, set.ID)
	require.NoError(t, err)
	require.Len(t, weighted, 2)
	assert.Equal(t, criteria[0].ID, weighted[0].CriterionID)
	assert.Equal(t, 5, weighted[0].Weight)
	assert.Equal(t, 5, weighted[0].MaxRating)

	now := time.Now()
	for _, total := range []float64{20, 30} {
		a := &models.Assessment{
			LocationID: loc.ID, SetID: set.ID, AssessorID: super.ID,
			Status: rules.StatusVerified, TotalScore: total, MaxPossibleScore: 40, VerifiedAt: &now,
		}
		require.NoError(t, repos.Assessments.Create(ctx, a))
	}
	draft := &models.Assessment{LocationID: loc.ID, SetID: set.ID, AssessorID: super.ID, Status: rules.StatusDraft, MaxPossibleScore: 40}
	require.NoError(t, repos.Assessments.Create(ctx, draft))

	stats, err := repos.Locations.RefreshStats(ctx, loc.ID)
	require.NoError(t, err)
	assert.InDelta(t, 62.5, stats.AccessibilityScore, 1e-9)
	assert.Equal(t, 2, stats.AssessmentCount)
	assert.NotNil(t, stats.LastAssessmentAt)

	// a second refresh updates the same row
	_, err = repos.Locations.RefreshStats(ctx, loc.ID)
	require.NoError(t, err)
	var rows int64
	db.Model(&models.LocationStats{}).Count(&rows)
	assert.EqualValues(t, 1, rows)
}

func TestAssessmentScoreBoundsHook(t *testing.T) {
	db := testutil.NewDB(t)
	repos := repositories.New(db)
	super := testutil.CreateUser(t, db, rules.RoleSuperadmin)
	loc := testutil.CreateLocation(t, db, testutil.CreateGeo(t, db), super)
	set, _ := testutil.CreateSet(t, db, 1)

	a := &models.Assessment{LocationID: loc.ID, SetID: set.ID, AssessorID: super.ID, Status: rules.StatusDraft,
		TotalScore: 50, MaxPossibleScore: 40}
	err := repos.Assessments.Create(context.Background(), a)
	assert.Equal(t, apperr.KindIntegrity, apperr.KindOf(err))

	a.TotalScore = 26
	require.NoError(t, repos.Assessments.Create(context.Background(), a))
	assert.Equal(t, 65.0, a.PercentageScore)
}

func TestAssessmentListOrder(t *testing.T) {
	db := testutil.NewDB(t)
	repos := repositories.New(db)
	ctx := context.Background()
	super := testutil.CreateUser(t, db, rules.RoleSuperadmin)
	geo := testutil.CreateGeo(t, db)
	set, _ := testutil.CreateSet(t, db, 1)

	var ids []uint
	for i := 0; i < 3; i++ {
		loc := testutil.CreateLocation(t, db, geo, super)
		a := &models.Assessment{LocationID: loc.ID, SetID: set.ID, AssessorID: super.ID, Status: rules.StatusDraft,
			MaxPossibleScore: 5}
		require.NoError(t, repos.Assessments.Create(ctx, a))
		ids = append(ids, a.ID)
	}

	asc, total, err := repos.Assessments.List(ctx, repositories.AssessmentFilter{}, &models.PaginationQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, asc, 3)
	assert.Equal(t, ids[0], asc[0].ID)

	desc, _, err := repos.Assessments.List(ctx, repositories.AssessmentFilter{}, &models.PaginationQuery{Desc: true})
	require.NoError(t, err)
	require.Len(t, desc, 3)
	assert.Equal(t, ids[2], desc[0].ID, "desc lists the newest first")
}
