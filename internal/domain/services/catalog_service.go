package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"accessible-env-backend/internal/domain/models"
	"accessible-env-backend/internal/domain/repositories"
	"accessible-env-backend/internal/domain/rules"
	"accessible-env-backend/internal/error/apperr"
	"accessible-env-backend/internal/error/code"
	"accessible-env-backend/internal/infrastructure/config"
	"accessible-env-backend/pkg/logger"
)

// InterfaceCatalogService serves categories and the region/district/city tree
type InterfaceCatalogService interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, actor rules.Actor, c *models.Category) error
	UpdateCategory(ctx context.Context, actor rules.Actor, id uint, name, description, icon *string) (*models.Category, error)
	DeleteCategory(ctx context.Context, actor rules.Actor, id uint) error
	EnsureDefaultCategories(ctx context.Context) error

	ListRegions(ctx context.Context) ([]models.Region, error)
	CreateRegion(ctx context.Context, actor rules.Actor, name string) (*models.Region, error)
	ListDistricts(ctx context.Context, regionID uint) ([]models.District, error)
	CreateDistrict(ctx context.Context, actor rules.Actor, regionID uint, name string) (*models.District, error)
	ListCities(ctx context.Context, districtID uint) ([]models.City, error)
	CreateCity(ctx context.Context, actor rules.Actor, districtID uint, name string) (*models.City, error)
}

type CatalogService struct {
	DB     *gorm.DB
	Config *config.Config
	Cache  InterfaceRedisService
}

func NewCatalogService(db *gorm.DB, cfg *config.Config, cache InterfaceRedisService) InterfaceCatalogService {
	return &CatalogService{DB: db, Config: cfg, Cache: cache}
}

func (s *CatalogService) repo() *repositories.CatalogRepository {
	return repositories.NewCatalogRepository(s.DB)
}

// 1 ListCategories is read through the cache
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return loadCached(ctx, s.Cache, keyCategories, func() ([]models.Category, error) {
		return s.repo().ListCategories(ctx)
	})
}

// 2 CreateCategory adds a category
func (s *CatalogService) CreateCategory(ctx context.Context, actor rules.Actor, c *models.Category) error {
	if err := rules.RequirePermission(actor.Role, rules.PermCatalogManage); err != nil {
		return err
	}
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return apperr.Validation(code.ErrValidation, "name is required")
	}
	if err := s.repo().Categories.Create(ctx, c); err != nil {
		return uniqueName(err, "category")
	}
	invalidate(ctx, s.Cache, keyCategories)
	return nil
}

// 3 UpdateCategory edits a category
func (s *CatalogService) UpdateCategory(ctx context.Context, actor rules.Actor, id uint, name, description, icon *string) (*models.Category, error) {
	if err := rules.RequirePermission(actor.Role, rules.PermCatalogManage); err != nil {
		return nil, err
	}
	repo := s.repo()
	c, err := repo.Categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != nil {
		c.Name = strings.TrimSpace(*name)
	}
	if description != nil {
		c.Description = *description
	}
	if icon != nil {
		c.Icon = *icon
	}
	if c.Name == "" {
		return nil, apperr.Validation(code.ErrValidation, "name cannot be empty")
	}
	if err := repo.Categories.Save(ctx, c); err != nil {
		return nil, uniqueName(err, "category")
	}
	invalidate(ctx, s.Cache, keyCategories)
	// cached locations embed their category
	invalidatePattern(ctx, s.Cache, keyLocationAll)
	return c, nil
}

// 4 DeleteCategory removes a category no location uses
func (s *CatalogService) DeleteCategory(ctx context.Context, actor rules.Actor, id uint) error {
	if err := rules.RequirePermission(actor.Role, rules.PermCatalogManage); err != nil {
		return err
	}
	repo := s.repo()
	inUse, err := repo.CategoryInUse(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return apperr.Conflict(code.ErrConflict, "category is used by locations")
	}
	if err := repo.Categories.Delete(ctx, id); err != nil {
		return err
	}
	invalidate(ctx, s.Cache, keyCategories)
	return nil
}

// 5 EnsureDefaultCategories seeds the built-in categories into an empty table
func (s *CatalogService) EnsureDefaultCategories(ctx context.Context) error {
	repo := s.repo()
	count, err := repo.CountCategories(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for _, c := range models.DefaultCategories {
		c := c
		if err := repo.Categories.Create(ctx, &c); err != nil {
			return err
		}
	}
	logger.Info("seeded %d default categories", len(models.DefaultCategories))
	invalidate(ctx, s.Cache, keyCategories)
	return nil
}

// 6 ListRegions is read through the cache
func (s *CatalogService) ListRegions(ctx context.Context) ([]models.Region, error) {
	return loadCached(ctx, s.Cache, keyRegions, func() ([]models.Region, error) {
		return s.repo().ListRegions(ctx)
	})
}

// 7 CreateRegion adds a region
func (s *CatalogService) CreateRegion(ctx context.Context, actor rules.Actor, name string) (*models.Region, error) {
	if err := rules.RequirePermission(actor.Role, rules.PermCatalogManage); err != nil {
		return nil, err
	}
	region := &models.Region{Name: strings.TrimSpace(name)}
	if region.Name == "" {
		return nil, apperr.Validation(code.ErrValidation, "name is required")
	}
	if err := s.repo().Regions.Create(ctx, region); err != nil {
		return nil, uniqueName(err, "region")
	}
	invalidate(ctx, s.Cache, keyRegions)
	return region, nil
}

// 8 ListDistricts lists the districts of a region, or all when regionID is 0
func (s *CatalogService) ListDistricts(ctx context.Context, regionID uint) ([]models.District, error) {
	return s.repo().ListDistricts(ctx, regionID)
}

// 9 CreateDistrict adds a district under a region
func (s *CatalogService) CreateDistrict(ctx context.Context, actor rules.Actor, regionID uint, name string) (*models.District, error) {
	if err := rules.RequirePermission(actor.Role, rules.PermCatalogManage); err != nil {
		return nil, err
	}
	repo := s.repo()
	if _, err := repo.Regions.GetByID(ctx, regionID); err != nil {
		return nil, asValidation(err, "unknown region")
	}
	d := &models.District{Name: strings.TrimSpace(name), RegionID: regionID}
	if d.Name == "" {
		return nil, apperr.Validation(code.ErrValidation, "name is required")
	}
	if err := repo.Districts.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// 10 ListCities lists the cities of a district, or all when districtID is 0
func (s *CatalogService) ListCities(ctx context.Context, districtID uint) ([]models.City, error) {
	return s.repo().ListCities(ctx, districtID)
}

// 11 CreateCity adds a city under a district
func (s *CatalogService) CreateCity(ctx context.Context, actor rules.Actor, districtID uint, name string) (*models.City, error) {
	if err := rules.RequirePermission(actor.Role, rules.PermCatalogManage); err != nil {
		return nil, err
	}
	repo := s.repo()
	if _, err := repo.Districts.GetByID(ctx, districtID); err != nil {
		return nil, asValidation(err, "unknown district")
	}
	c := &models.City{Name: strings.TrimSpace(name), DistrictID: districtID}
	if c.Name == "" {
		return nil, apperr.Validation(code.ErrValidation, "name is required")
	}
	if err := repo.Cities.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func uniqueName(err error, what string) error {
	if apperr.KindOf(err) == apperr.KindConflict {
		return apperr.Conflict(code.ErrConflict, what+" name already exists")
	}
	return err
}
