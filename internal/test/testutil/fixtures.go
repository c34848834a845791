package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"accessible-env-backend/internal/domain/models"
	"accessible-env-backend/internal/domain/rules"
)

// DefaultPassword is the plain password of every fixture user
const DefaultPassword = "Passw0rd!"

var seq int64

func next() int64 { return atomic.AddInt64(&seq, 1) }

// CreateUser inserts an active user with the given role
func CreateUser(t testing.TB, db *gorm.DB, role rules.Role) *models.User {
	t.Helper()
	hash, err := rules.HashPassword(DefaultPassword)
	require.NoError(t, err)

	n := next()
	u := &models.User{
		Username: fmt.Sprintf("%s%d", role, n),
		Email:    fmt.Sprintf("%s%d@example.com", role, n),
		Password: hash,
		Role:     role,
		Status:   models.UserStatusActive,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// Geo is a category with a region/district pair to hang locations on
type Geo struct {
	Category *models.Category
	Region   *models.Region
	District *models.District
}

// CreateGeo inserts a category, a region and a district
func CreateGeo(t testing.TB, db *gorm.DB) Geo {
	t.Helper()
	n := next()
	g := Geo{
		Category: &models.Category{Name: fmt.Sprintf("Category %d", n)},
		Region:   &models.Region{Name: fmt.Sprintf("Region %d", n)},
	}
	require.NoError(t, db.Create(g.Category).Error)
	require.NoError(t, db.Create(g.Region).Error)
	g.District = &models.District{Name: fmt.Sprintf("District %d", n), RegionID: g.Region.ID}
	require.NoError(t, db.Create(g.District).Error)
	return g
}

// CreateLocation inserts an active location owned by creator
func CreateLocation(t testing.TB, db *gorm.DB, g Geo, creator *models.User) *models.Location {
	t.Helper()
	l := &models.Location{
		Name:       fmt.Sprintf("Location %d", next()),
		Address:    "1 Main street",
		Latitude:   41.31,
		Longitude:  69.24,
		CategoryID: g.Category.ID,
		RegionID:   g.Region.ID,
		DistrictID: g.District.ID,
		Status:     models.LocationActive,
		CreatedBy:  creator.ID,
	}
	require.NoError(t, db.Create(l).Error)
	return l
}

// AssignInspector links an admin to a location
func AssignInspector(t testing.TB, db *gorm.DB, loc *models.Location, admin, by *models.User) {
	t.Helper()
	require.NoError(t, db.Create(&models.LocationInspector{
		LocationID: loc.ID,
		UserID:     admin.ID,
		AssignedBy: by.ID,
		AssignedAt: time.Now(),
	}).Error)
}

// CreateSet inserts an active set whose criteria have the given weights and
// a max rating of 5
func CreateSet(t testing.TB, db *gorm.DB, weights ...int) (*models.AssessmentSet, []*models.Criterion) {
	t.Helper()
	n := next()
	set := &models.AssessmentSet{Name: fmt.Sprintf("Set %d", n), IsActive: true, Version: 1}
	require.NoError(t, db.Create(set).Error)

	var criteria []*models.Criterion
	for i, w := range weights {
		c := &models.Criterion{
			Name:      fmt.Sprintf("Criterion %d-%d", n, i),
			Code:      fmt.Sprintf("C%d_%d", n, i),
			MaxRating: 5,
		}
		require.NoError(t, db.Create(c).Error)
		require.NoError(t, db.Create(&models.SetCriterion{
			SetID:       set.ID,
			CriterionID: c.ID,
			Weight:      w,
			Sequence:    i,
		}).Error)
		criteria = append(criteria, c)
	}
	return set, criteria
}
