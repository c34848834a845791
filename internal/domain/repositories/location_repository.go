package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"accessible-env-backend/internal/domain/models"
	"accessible-env-backend/internal/domain/rules"
	"accessible-env-backend/internal/error/apperr"
	"accessible-env-backend/internal/error/code"
)

// LocationFilter holds the query-string filters of the location list
type LocationFilter struct {
	CategoryID uint                  `form:"category_id"`
	RegionID   uint                  `form:"region_id"`
	DistrictID uint                  `form:"district_id"`
	CityID     uint                  `form:"city_id"`
	Status     models.LocationStatus `form:"status"`
	Search     string                `form:"search"`
	MinScore   *float64              `form:"min_score"`
}

// LocationScope restricts which rows a caller may see at all
type LocationScope struct {
	// AssignedTo limits results to locations where this user is an inspector
	AssignedTo      uint
	IncludeArchived bool
}

var locationPreloads = []string{"Category", "Region", "District", "City", "Stats"}

type LocationRepository struct {
	BaseRepository[models.Location]
}

func NewLocationRepository(db *gorm.DB) *LocationRepository {
	return &LocationRepository{newBase[models.Location](db, code.ErrLocationNotFound)}
}

// Get loads a location with its lookups and stats
func (r *LocationRepository) Get(ctx context.Context, id uint) (*models.Location, error) {
	return r.GetByID(ctx, id, locationPreloads...)
}

// List returns a filtered page of locations visible under scope
func (r *LocationRepository) List(ctx context.Context, f LocationFilter, scope LocationScope, p *models.PaginationQuery) ([]models.Location, int64, error) {
	q := r.DB(ctx).Model(&models.Location{})

	if scope.AssignedTo != 0 {
		q = q.Where("locations.id IN (?)",
			r.DB(ctx).Model(&models.LocationInspector{}).Select("location_id").Where("user_id = ?", scope.AssignedTo))
	}
	if f.Status != "" {
		q = q.Where("locations.status = ?", f.Status)
	} else if !scope.IncludeArchived {
		q = q.Where("locations.status <> ?", models.LocationArchived)
	}
	if f.CategoryID != 0 {
		q = q.Where("locations.category_id = ?", f.CategoryID)
	}
	if f.RegionID != 0 {
		q = q.Where("locations.region_id = ?", f.RegionID)
	}
	if f.DistrictID != 0 {
		q = q.Where("locations.district_id = ?", f.DistrictID)
	}
	if f.CityID != 0 {
		q = q.Where("locations.city_id = ?", f.CityID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(locations.name) LIKE ? OR LOWER(locations.address) LIKE ?", like, like)
	}
	if f.MinScore != nil {
		q = q.Joins("LEFT JOIN location_stats ON location_stats.location_id = locations.id").
			Where("COALESCE(location_stats.accessibility_score, 0) >= ?", *f.MinScore)
	}

	var total int64
	q, err := paginate(q, p, &total)
	if err != nil {
		return nil, 0, translate(err, code.ErrLocationNotFound)
	}
	order := "locations.id ASC"
	if p.Desc {
		order = "locations.id DESC"
	}
	for _, preload := range locationPreloads {
		q = q.Preload(preload)
	}
	var locations []models.Location
	if err := q.Order(order).Find(&locations).Error; err != nil {
		return nil, 0, translate(err, code.ErrLocationNotFound)
	}
	return locations, total, nil
}

// CountByStatus counts locations per status
func (r *LocationRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return countGrouped(r.DB(ctx).Model(&models.Location{}), "status")
}

// AddInspector creates the assignment row
func (r *LocationRepository) AddInspector(ctx context.Context, li *models.LocationInspector) error {
	if li.AssignedAt.IsZero() {
		li.AssignedAt = time.Now()
	}
	err := translate(r.DB(ctx).Create(li).Error, code.ErrLocationNotFound)
	if apperr.KindOf(err) == apperr.KindConflict {
		return apperr.Conflict(code.ErrInspectorAlreadyAssigned, "")
	}
	return err
}

// RemoveInspector deletes the assignment row
func (r *LocationRepository) RemoveInspector(ctx context.Context, locationID, userID uint) error {
	res := r.DB(ctx).Where("location_id = ? AND user_id = ?", locationID, userID).Delete(&models.LocationInspector{})
	if res.Error != nil {
		return translate(res.Error, code.ErrInspectorNotAssigned)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(code.ErrInspectorNotAssigned, "")
	}
	return nil
}

// ListInspectors returns the assignments of a location with their users
func (r *LocationRepository) ListInspectors(ctx context.Context, locationID uint) ([]models.LocationInspector, error) {
	var out []models.LocationInspector
	err := r.DB(ctx).Preload("User").Where("location_id = ?", locationID).Order("assigned_at ASC").Find(&out).Error
	return out, translate(err, code.ErrLocationNotFound)
}

// IsInspector reports whether an explicit assignment row exists
func (r *LocationRepository) IsInspector(ctx context.Context, locationID, userID uint) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.LocationInspector{}).
		Where("location_id = ? AND user_id = ?", locationID, userID).Count(&count).Error
	return count > 0, translate(err, code.ErrLocationNotFound)
}

// InspectorIDs lists the users assigned to a location
func (r *LocationRepository) InspectorIDs(ctx context.Context, locationID uint) ([]uint, error) {
	var ids []uint
	err := r.DB(ctx).Model(&models.LocationInspector{}).Where("location_id = ?", locationID).Pluck("user_id", &ids).Error
	return ids, translate(err, code.ErrLocationNotFound)
}

// RefreshStats recomputes the aggregate row of a location from its verified
// assessments and its reviews
func (r *LocationRepository) RefreshStats(ctx context.Context, locationID uint) (*models.LocationStats, error) {
	db := r.DB(ctx)
	stats := models.LocationStats{LocationID: locationID}

	var agg struct {
		Avg   *float64
		Count int64
	}
	err := db.Model(&models.Assessment{}).
		Select("AVG(percentage_score) AS avg, COUNT(*) AS count").
		Where("location_id = ? AND status = ?", locationID, rules.StatusVerified).
		Scan(&agg).Error
	if err != nil {
		return nil, translate(err, code.ErrLocationNotFound)
	}
	if agg.Avg != nil {
		stats.AccessibilityScore = *agg.Avg
	}
	stats.AssessmentCount = int(agg.Count)

	var latest models.Assessment
	err = db.Select("verified_at").
		Where("location_id = ? AND status = ? AND verified_at IS NOT NULL", locationID, rules.StatusVerified).
		Order("verified_at DESC").Take(&latest).Error
	switch {
	case err == nil:
		stats.LastAssessmentAt = latest.VerifiedAt
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, translate(err, code.ErrLocationNotFound)
	}

	var reviews struct {
		Avg   *float64
		Count int64
	}
	err = db.Model(&models.Review{}).
		Select("AVG(rating) AS avg, COUNT(*) AS count").
		Where("location_id = ?", locationID).
		Scan(&reviews).Error
	if err != nil {
		return nil, translate(err, code.ErrLocationNotFound)
	}
	if reviews.Avg != nil {
		stats.AverageRating = *reviews.Avg
	}
	stats.ReviewCount = int(reviews.Count)

	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "location_id"}},
		UpdateAll: true,
	}).Create(&stats).Error
	if err != nil {
		return nil, translate(err, code.ErrLocationNotFound)
	}
	return &stats, nil
}

// AllIDs lists the id of every location, used by the stats job
func (r *LocationRepository) AllIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.DB(ctx).Model(&models.Location{}).Order("id").Pluck("id", &ids).Error
	return ids, translate(err, code.ErrLocationNotFound)
}

// TopByScore returns the best scored, assessed, non-archived locations
func (r *LocationRepository) TopByScore(ctx context.Context, limit int) ([]models.Location, error) {
	var out []models.Location
	err := r.DB(ctx).
		Joins("JOIN location_stats ON location_stats.location_id = locations.id").
		Where("location_stats.assessment_count > 0 AND locations.status <> ?", models.LocationArchived).
		Order("location_stats.accessibility_score DESC, locations.id ASC").
		Limit(limit).
		Preload("Stats").Preload("Category").
		Find(&out).Error
	return out, translate(err, code.ErrLocationNotFound)
}

// AverageScore is the mean accessibility score of all assessed locations
func (r *LocationRepository) AverageScore(ctx context.Context) (float64, error) {
	var avg *float64
	err := r.DB(ctx).Model(&models.LocationStats{}).
		Select("AVG(accessibility_score)").
		Where("assessment_count > 0").
		Scan(&avg).Error
	if err != nil || avg == nil {
		return 0, translate(err, code.ErrLocationNotFound)
	}
	return *avg, nil
}

func (r *LocationRepository) CreateImage(ctx context.Context, img *models.LocationImage) error {
	return translate(r.DB(ctx).Create(img).Error, code.ErrLocationNotFound)
}

func (r *LocationRepository) ListImages(ctx context.Context, locationID uint) ([]models.LocationImage, error) {
	var out []models.LocationImage
	err := r.DB(ctx).Where("location_id = ?", locationID).Order("id ASC").Find(&out).Error
	return out, translate(err, code.ErrLocationNotFound)
}

func (r *LocationRepository) GetImage(ctx context.Context, locationID, imageID uint) (*models.LocationImage, error) {
	var img models.LocationImage
	err := r.DB(ctx).Where("location_id = ? AND id = ?", locationID, imageID).First(&img).Error
	if err != nil {
		return nil, translate(err, code.ErrNotFound)
	}
	return &img, nil
}

func (r *LocationRepository) DeleteImage(ctx context.Context, imageID uint) error {
	return translate(r.DB(ctx).Delete(&models.LocationImage{}, imageID).Error, code.ErrNotFound)
}

// AddFavourite is idempotent
func (r *LocationRepository) AddFavourite(ctx context.Context, userID, locationID uint) error {
	err := r.DB(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Favourite{UserID: userID, LocationID: locationID}).Error
	return translate(err, code.ErrLocationNotFound)
}

func (r *LocationRepository) RemoveFavourite(ctx context.Context, userID, locationID uint) error {
	res := r.DB(ctx).Where("user_id = ? AND location_id = ?", userID, locationID).Delete(&models.Favourite{})
	if res.Error != nil {
		return translate(res.Error, code.ErrNotFound)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(code.ErrNotFound, "location is not a favourite")
	}
	return nil
}

// ListFavourites returns the favourite locations of a user
func (r *LocationRepository) ListFavourites(ctx context.Context, userID uint) ([]models.Location, error) {
	var out []models.Location
	err := r.DB(ctx).
		Joins("JOIN favourites ON favourites.location_id = locations.id").
		Where("favourites.user_id = ?", userID).
		Order("favourites.created_at DESC").
		Preload("Category").Preload("Stats").
		Find(&out).Error
	return out, translate(err, code.ErrLocationNotFound)
}

// countGrouped runs SELECT col, COUNT(*) ... GROUP BY col
func countGrouped(q *gorm.DB, column string) (map[string]int64, error) {
	var rows []struct {
		GroupKey string
		Count    int64
	}
	if err := q.Select(column + " AS group_key, COUNT(*) AS count").Group(column).Scan(&rows).Error; err != nil {
		return nil, translate(err, code.ErrDatabase)
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.GroupKey] = row.Count
	}
	return out, nil
}
