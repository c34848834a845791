package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"accessible-env-backend/internal/domain/models"
	"accessible-env-backend/internal/domain/repositories"
	"accessible-env-backend/internal/domain/rules"
	"accessible-env-backend/internal/error/apperr"
	"accessible-env-backend/internal/error/code"
	"accessible-env-backend/internal/infrastructure/config"
	"accessible-env-backend/internal/infrastructure/messaging"
	"accessible-env-backend/pkg/logger"
)

// LocationInput carries the writable fields of a location. On update, nil
// fields are left unchanged.
type LocationInput struct {
	Name        *string
	Address     *string
	Latitude    *float64
	Longitude   *float64
	CategoryID  *uint
	RegionID    *uint
	DistrictID  *uint
	CityID      *uint
	Status      *models.LocationStatus
	Description *string
	ContactInfo *string
	WebsiteURL  *string
}

// InterfaceLocationService manages locations and their inspectors
type InterfaceLocationService interface {
	Create(ctx context.Context, actor rules.Actor, in LocationInput) (*models.Location, error)
	Get(ctx context.Context, actor rules.Actor, id uint) (*models.Location, error)
	List(ctx context.Context, actor rules.Actor, filter repositories.LocationFilter, page *models.PaginationQuery) ([]models.Location, int64, error)
	Update(ctx context.Context, actor rules.Actor, id uint, in LocationInput) (*models.Location, error)
	Archive(ctx context.Context, actor rules.Actor, id uint) error
	AssignInspector(ctx context.Context, actor rules.Actor, locationID, userID uint) (*models.LocationInspector, error)
	UnassignInspector(ctx context.Context, actor rules.Actor, locationID, userID uint) error
	ListInspectors(ctx context.Context, actor rules.Actor, locationID uint) ([]models.LocationInspector, error)
	IsInspector(ctx context.Context, actor rules.Actor, locationID uint) (bool, error)
	RefreshStats(ctx context.Context, locationID uint) (*models.LocationStats, error)
	RefreshAllStats(ctx context.Context) (int, error)
}

type LocationService struct {
	DB        *gorm.DB
	Config    *config.Config
	Cache     InterfaceRedisService
	Audit     InterfaceAuditService
	Notifier  Notifier
	Publisher messaging.Publisher
}

func NewLocationService(db *gorm.DB, cfg *config.Config, cache InterfaceRedisService, audit InterfaceAuditService, notifier Notifier, publisher messaging.Publisher) InterfaceLocationService {
	return &LocationService{
		DB:        db,
		Config:    cfg,
		Cache:     cache,
		Audit:     audit,
		Notifier:  notifier,
		Publisher: publisher,
	}
}

// 1 Create registers a new location owned by the caller
func (s *LocationService) Create(ctx context.Context, actor rules.Actor, in LocationInput) (*models.Location, error) {
	if err := rules.RequirePermission(actor.Role, rules.PermLocationCreate); err != nil {
		return nil, err
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" || in.Address == nil || strings.TrimSpace(*in.Address) == "" {
		return nil, apperr.Validation(code.ErrValidation, "name and address are required")
	}
	if in.Latitude == nil || in.Longitude == nil || in.CategoryID == nil || in.RegionID == nil || in.DistrictID == nil {
		return nil, apperr.Validation(code.ErrValidation, "coordinates, category, region and district are required")
	}

	loc := &models.Location{Status: models.LocationActive, CreatedBy: actor.ID}
	if err := applyLocationInput(loc, in); err != nil {
		return nil, err
	}
	if loc.Status == models.LocationArchived {
		return nil, apperr.Validation(code.ErrValidation, "a new location cannot be archived")
	}

	err := inTx(ctx, s.DB, func(tx *gorm.DB, r *repositories.Repositories) error {
		if err := checkGeography(ctx, r.Catalog, loc); err != nil {
			return err
		}
		if err := r.Locations.Create(ctx, loc); err != nil {
			return err
		}
		_, err := r.Locations.RefreshStats(ctx, loc.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	publishAsync(s.Publisher, messaging.EventLocationCreated, map[string]interface{}{
		"location_id": loc.ID,
		"name":        loc.Name,
		"created_by":  actor.ID,
	})
	return repositories.NewLocationRepository(s.DB).Get(ctx, loc.ID)
}

// 2 Get returns a location through the read-through cache. Archived
// locations are only visible to admins and above; plain admins only see the
// locations they inspect.
func (s *LocationService) Get(ctx context.Context, actor rules.Actor, id uint) (*models.Location, error) {
	if err := rules.RequirePermission(actor.Role, rules.PermLocationRead); err != nil {
		return nil, err
	}
	if actor.Role == rules.RoleAdmin {
		ok, err := isInspector(ctx, repositories.NewLocationRepository(s.DB), actor, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.NotFound(code.ErrLocationNotFound, "")
		}
	}

	loc, err := loadCached(ctx, s.Cache, fmt.Sprintf(keyLocation, id), func() (*models.Location, error) {
		return repositories.NewLocationRepository(s.DB).Get(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	if loc.Status == models.LocationArchived && !actor.Role.AtLeast(rules.RoleAdmin) {
		return nil, apperr.NotFound(code.ErrLocationNotFound, "")
	}
	return loc, nil
}

// 3 List applies the visibility rule: superadmins see everything including
// archived rows, plain admins only the locations they inspect, everybody
// else every non-archived location
func (s *LocationService) List(ctx context.Context, actor rules.Actor, filter repositories.LocationFilter, page *models.PaginationQuery) ([]models.Location, int64, error) {
	if err := rules.RequirePermission(actor.Role, rules.PermLocationRead); err != nil {
		return nil, 0, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, apperr.Validation(code.ErrValidation, "unknown location status")
	}

	scope := repositories.LocationScope{}
	switch actor.Role {
	case rules.RoleSuperadmin:
		scope.IncludeArchived = true
	case rules.RoleAdmin:
		scope.AssignedTo = actor.ID
	default:
		if filter.Status == models.LocationArchived {
			return []models.Location{}, 0, nil
		}
	}
	return repositories.NewLocationRepository(s.DB).List(ctx, filter, scope, page)
}

// 4 Update changes a location; creators and inspectors and above may write
func (s *LocationService) Update(ctx context.Context, actor rules.Actor, id uint, in LocationInput) (*models.Location, error) {
	err := inTx(ctx, s.DB, func(tx *gorm.DB, r *repositories.Repositories) error {
		loc, err := r.Locations.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !rules.CanModifyOwned(actor, loc.CreatedBy) {
			return apperr.Forbidden(code.ErrForbidden, "only the creator or an inspector can edit this location")
		}
		if loc.Status == models.LocationArchived {
			return apperr.Conflict(code.ErrLocationArchived, "")
		}
		if in.Status != nil && *in.Status == models.LocationArchived {
			return apperr.Validation(code.ErrValidation, "use the archive operation to archive a location")
		}
		if err := applyLocationInput(loc, in); err != nil {
			return err
		}
		if err := checkGeography(ctx, r.Catalog, loc); err != nil {
			return err
		}
		loc.Category, loc.Region, loc.District, loc.City, loc.Stats = nil, nil, nil, nil, nil
		return r.Locations.Save(ctx, loc)
	})
	if err != nil {
		return nil, err
	}
	invalidate(ctx, s.Cache, fmt.Sprintf(keyLocation, id))
	return repositories.NewLocationRepository(s.DB).Get(ctx, id)
}

// 5 Archive hides a location from regular users. Admins may only archive
// locations they inspect.
func (s *LocationService) Archive(ctx context.Context, actor rules.Actor, id uint) error {
	if err := rules.RequirePermission(actor.Role, rules.PermLocationArchive); err != nil {
		return err
	}
	err := inTx(ctx, s.DB, func(tx *gorm.DB, r *repositories.Repositories) error {
		loc, err := r.Locations.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if loc.Status == models.LocationArchived {
			return apperr.Conflict(code.ErrLocationArchived, "")
		}
		if !actor.IsSuperadmin() {
			ok, err := r.Locations.IsInspector(ctx, id, actor.ID)
			if err != nil {
				return err
			}
			if !ok {
				return apperr.Forbidden(code.ErrInspectorNotAssigned, "")
			}
		}
		if err := r.Locations.Update(ctx, id, map[string]interface{}{"status": models.LocationArchived}); err != nil {
			return err
		}
		return s.Audit.Record(ctx, tx, actor, models.AuditLocationArchived, "location", id,
			map[string]string{"previous_status": string(loc.Status)})
	})
	if err != nil {
		return err
	}
	invalidate(ctx, s.Cache, fmt.Sprintf(keyLocation, id))
	return nil
}

// 6 AssignInspector gives an admin inspector rights on a location
func (s *LocationService) AssignInspector(ctx context.Context, actor rules.Actor, locationID, userID uint) (*models.LocationInspector, error) {
	var (
		assignment *models.LocationInspector
		location   *models.Location
	)
	err := inTx(ctx, s.DB, func(tx *gorm.DB, r *repositories.Repositories) error {
		target, err := r.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if err := rules.ValidateInspectorAssignment(actor, target.Subject()); err != nil {
			return err
		}
		if !target.IsActive() {
			return apperr.Validation(code.ErrInvalidInspector, "user is not active")
		}
		if location, err = r.Locations.GetByID(ctx, locationID); err != nil {
			return err
		}
		if location.Status == models.LocationArchived {
			return apperr.Conflict(code.ErrLocationArchived, "")
		}

		assignment = &models.LocationInspector{
			LocationID: locationID,
			UserID:     userID,
			AssignedBy: actor.ID,
		}
		if err := r.Locations.AddInspector(ctx, assignment); err != nil {
			return err
		}
		return s.Audit.Record(ctx, tx, actor, models.AuditInspectorAssigned, "location", locationID,
			map[string]uint{"user_id": userID})
	})
	if err != nil {
		return nil, err
	}

	notify(s.Notifier, NotificationMessage{
		UserID:   userID,
		Type:     models.NotificationInspectorAssigned,
		Title:    "New inspection assignment",
		Message:  fmt.Sprintf("You are now an inspector for %s", location.Name),
		Payload:  map[string]interface{}{"location_id": locationID},
		DedupKey: fmt.Sprintf("inspector:%d:%d:%d", locationID, userID, assignment.AssignedAt.UnixNano()),
	})
	return assignment, nil
}

// 7 UnassignInspector removes an assignment
func (s *LocationService) UnassignInspector(ctx context.Context, actor rules.Actor, locationID, userID uint) error {
	if err := rules.ValidateInspectorRemoval(actor); err != nil {
		return err
	}
	return inTx(ctx, s.DB, func(tx *gorm.DB, r *repositories.Repositories) error {
		if err := r.Locations.RemoveInspector(ctx, locationID, userID); err != nil {
			return err
		}
		return s.Audit.Record(ctx, tx, actor, models.AuditInspectorUnassigned, "location", locationID,
			map[string]uint{"user_id": userID})
	})
}

// 8 ListInspectors returns the assignments of a location
func (s *LocationService) ListInspectors(ctx context.Context, actor rules.Actor, locationID uint) ([]models.LocationInspector, error) {
	if !actor.Role.AtLeast(rules.RoleAdmin) {
		return nil, apperr.Forbidden(code.ErrForbidden, "")
	}
	locations := repositories.NewLocationRepository(s.DB)
	if _, err := locations.GetByID(ctx, locationID); err != nil {
		return nil, err
	}
	return locations.ListInspectors(ctx, locationID)
}

// 9 IsInspector reports whether the caller may verify at a location.
// Superadmins are inspectors everywhere.
func (s *LocationService) IsInspector(ctx context.Context, actor rules.Actor, locationID uint) (bool, error) {
	return isInspector(ctx, repositories.NewLocationRepository(s.DB), actor, locationID)
}

func isInspector(ctx context.Context, locations *repositories.LocationRepository, actor rules.Actor, locationID uint) (bool, error) {
	if actor.IsSuperadmin() {
		return true, nil
	}
	if actor.Role != rules.RoleAdmin {
		return false, nil
	}
	return locations.IsInspector(ctx, locationID, actor.ID)
}

// 10 RefreshStats recomputes the aggregate row of one location
func (s *LocationService) RefreshStats(ctx context.Context, locationID uint) (*models.LocationStats, error) {
	stats, err := repositories.NewLocationRepository(s.DB).RefreshStats(ctx, locationID)
	if err != nil {
		return nil, err
	}
	invalidate(ctx, s.Cache, fmt.Sprintf(keyLocation, locationID))
	return stats, nil
}

// 11 RefreshAllStats recomputes every location, continuing past failures
func (s *LocationService) RefreshAllStats(ctx context.Context) (int, error) {
	ids, err := repositories.NewLocationRepository(s.DB).AllIDs(ctx)
	if err != nil {
		return 0, err
	}
	refreshed := 0
	var firstErr error
	for _, id := range ids {
		if ctx.Err() != nil {
			return refreshed, ctx.Err()
		}
		if _, err := s.RefreshStats(ctx, id); err != nil {
			logger.Warning("refresh stats of location %d failed: %v", id, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		refreshed++
	}
	invalidate(ctx, s.Cache, keyStatsOverview)
	return refreshed, firstErr
}

func applyLocationInput(loc *models.Location, in LocationInput) error {
	if in.Name != nil {
		loc.Name = strings.TrimSpace(*in.Name)
	}
	if in.Address != nil {
		loc.Address = strings.TrimSpace(*in.Address)
	}
	if in.Latitude != nil {
		if *in.Latitude < -90 || *in.Latitude > 90 {
			return apperr.Validation(code.ErrValidation, "latitude must be between -90 and 90")
		}
		loc.Latitude = *in.Latitude
	}
	if in.Longitude != nil {
		if *in.Longitude < -180 || *in.Longitude > 180 {
			return apperr.Validation(code.ErrValidation, "longitude must be between -180 and 180")
		}
		loc.Longitude = *in.Longitude
	}
	if in.CategoryID != nil {
		loc.CategoryID = *in.CategoryID
	}
	if in.RegionID != nil {
		loc.RegionID = *in.RegionID
	}
	if in.DistrictID != nil {
		loc.DistrictID = *in.DistrictID
	}
	if in.CityID != nil {
		if *in.CityID == 0 {
			loc.CityID = nil
		} else {
			id := *in.CityID
			loc.CityID = &id
		}
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return apperr.Validation(code.ErrValidation, "unknown location status")
		}
		loc.Status = *in.Status
	}
	if in.Description != nil {
		loc.Description = *in.Description
	}
	if in.ContactInfo != nil {
		loc.ContactInfo = *in.ContactInfo
	}
	if in.WebsiteURL != nil {
		loc.WebsiteURL = strings.TrimSpace(*in.WebsiteURL)
	}
	if loc.Name == "" || loc.Address == "" {
		return apperr.Validation(code.ErrValidation, "name and address cannot be empty")
	}
	return nil
}

// checkGeography makes sure the category exists and the district and city
// belong to the chosen region and district
func checkGeography(ctx context.Context, catalog *repositories.CatalogRepository, loc *models.Location) error {
	if _, err := catalog.Categories.GetByID(ctx, loc.CategoryID); err != nil {
		return asValidation(err, "unknown category")
	}
	if _, err := catalog.Regions.GetByID(ctx, loc.RegionID); err != nil {
		return asValidation(err, "unknown region")
	}
	district, err := catalog.Districts.GetByID(ctx, loc.DistrictID)
	if err != nil {
		return asValidation(err, "unknown district")
	}
	if district.RegionID != loc.RegionID {
		return apperr.Validation(code.ErrValidation, "district does not belong to the region")
	}
	if loc.CityID != nil {
		city, err := catalog.Cities.GetByID(ctx, *loc.CityID)
		if err != nil {
			return asValidation(err, "unknown city")
		}
		if city.DistrictID != loc.DistrictID {
			return apperr.Validation(code.ErrValidation, "city does not belong to the district")
		}
	}
	return nil
}

// asValidation turns a missing reference into a validation error
func asValidation(err error, message string) error {
	if apperr.KindOf(err) == apperr.KindNotFound {
		return apperr.Validation(code.ErrValidation, message)
	}
	return err
}
