package repositories

import (
	"context"

	"gorm.io/gorm"

	"accessible-env-backend/internal/domain/models"
	"accessible-env-backend/internal/error/code"
)

// CatalogRepository serves categories and the geographic hierarchy
type CatalogRepository struct {
	Categories BaseRepository[models.Category]
	Regions    BaseRepository[models.Region]
	Districts  BaseRepository[models.District]
	Cities     BaseRepository[models.City]
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{
		Categories: newBase[models.Category](db, code.ErrNotFound),
		Regions:    newBase[models.Region](db, code.ErrNotFound),
		Districts:  newBase[models.District](db, code.ErrNotFound),
		Cities:     newBase[models.City](db, code.ErrNotFound),
	}
}

func (r *CatalogRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	err := r.Categories.DB(ctx).Order("name ASC").Find(&out).Error
	return out, translate(err, code.ErrNotFound)
}

// CountCategories is used when seeding defaults
func (r *CatalogRepository) CountCategories(ctx context.Context) (int64, error) {
	var count int64
	err := r.Categories.DB(ctx).Model(&models.Category{}).Count(&count).Error
	return count, translate(err, code.ErrNotFound)
}

// CategoryInUse reports whether any location references the category
func (r *CatalogRepository) CategoryInUse(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.Categories.DB(ctx).Model(&models.Location{}).Where("category_id = ?", id).Count(&count).Error
	return count > 0, translate(err, code.ErrNotFound)
}

func (r *CatalogRepository) ListRegions(ctx context.Context) ([]models.Region, error) {
	var out []models.Region
	err := r.Regions.DB(ctx).Order("name ASC").Find(&out).Error
	return out, translate(err, code.ErrNotFound)
}

// ListDistricts lists districts, all or of one region
func (r *CatalogRepository) ListDistricts(ctx context.Context, regionID uint) ([]models.District, error) {
	var out []models.District
	q := r.Districts.DB(ctx).Order("name ASC")
	if regionID != 0 {
		q = q.Where("region_id = ?", regionID)
	}
	err := q.Find(&out).Error
	return out, translate(err, code.ErrNotFound)
}

// ListCities lists cities, all or of one district
func (r *CatalogRepository) ListCities(ctx context.Context, districtID uint) ([]models.City, error) {
	var out []models.City
	q := r.Cities.DB(ctx).Order("name ASC")
	if districtID != 0 {
		q = q.Where("district_id = ?", districtID)
	}
	err := q.Find(&out).Error
	return out, translate(err, code.ErrNotFound)
}
