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
)

// InterfaceReviewService handles user reviews and favourites of locations
type InterfaceReviewService interface {
	Create(ctx context.Context, actor rules.Actor, locationID uint, rating int, comment string) (*models.Review, error)
	ListByLocation(ctx context.Context, locationID uint, page *models.PaginationQuery) ([]models.Review, int64, error)
	Delete(ctx context.Context, actor rules.Actor, locationID, reviewID uint) error
	AddFavourite(ctx context.Context, actor rules.Actor, locationID uint) error
	RemoveFavourite(ctx context.Context, actor rules.Actor, locationID uint) error
	ListFavourites(ctx context.Context, actor rules.Actor) ([]models.Location, error)
}

type ReviewService struct {
	DB     *gorm.DB
	Config *config.Config
	Cache  InterfaceRedisService
}

func NewReviewService(db *gorm.DB, cfg *config.Config, cache InterfaceRedisService) InterfaceReviewService {
	return &ReviewService{DB: db, Config: cfg, Cache: cache}
}

// 1 Create stores the caller's single review of a location and refreshes the
// location's average rating
func (s *ReviewService) Create(ctx context.Context, actor rules.Actor, locationID uint, rating int, comment string) (*models.Review, error) {
	if err := rules.RequirePermission(actor.Role, rules.PermReviewCreate); err != nil {
		return nil, err
	}
	if rating < 1 || rating > 5 {
		return nil, apperr.Validation(code.ErrValidation, "rating must be between 1 and 5")
	}

	review := &models.Review{
		LocationID: locationID,
		UserID:     actor.ID,
		Rating:     rating,
		Comment:    strings.TrimSpace(comment),
	}
	err := inTx(ctx, s.DB, func(tx *gorm.DB, r *repositories.Repositories) error {
		loc, err := r.Locations.GetByID(ctx, locationID)
		if err != nil {
			return err
		}
		if loc.Status == models.LocationArchived {
			return apperr.Conflict(code.ErrLocationArchived, "")
		}
		if err := r.Reviews.Create(ctx, review); err != nil {
			return err
		}
		_, err = r.Locations.RefreshStats(ctx, locationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	invalidate(ctx, s.Cache, fmt.Sprintf(keyLocation, locationID))
	return review, nil
}

// 2 ListByLocation pages through the reviews of a location
func (s *ReviewService) ListByLocation(ctx context.Context, locationID uint, page *models.PaginationQuery) ([]models.Review, int64, error) {
	if _, err := repositories.NewLocationRepository(s.DB).GetByID(ctx, locationID); err != nil {
		return nil, 0, err
	}
	return repositories.NewReviewRepository(s.DB).ListByLocation(ctx, locationID, page)
}

// 3 Delete removes a review; authors delete their own, admins any
func (s *ReviewService) Delete(ctx context.Context, actor rules.Actor, locationID, reviewID uint) error {
	err := inTx(ctx, s.DB, func(tx *gorm.DB, r *repositories.Repositories) error {
		review, err := r.Reviews.GetByID(ctx, reviewID)
		if err != nil {
			return err
		}
		if review.LocationID != locationID {
			return apperr.NotFound(code.ErrNotFound, "review not found")
		}
		if review.UserID != actor.ID && !actor.Role.AtLeast(rules.RoleAdmin) {
			return apperr.Forbidden(code.ErrForbidden, "you can only delete your own review")
		}
		if err := r.Reviews.Delete(ctx, reviewID); err != nil {
			return err
		}
		_, err = r.Locations.RefreshStats(ctx, locationID)
		return err
	})
	if err != nil {
		return err
	}
	invalidate(ctx, s.Cache, fmt.Sprintf(keyLocation, locationID))
	return nil
}

// 4 AddFavourite is idempotent
func (s *ReviewService) AddFavourite(ctx context.Context, actor rules.Actor, locationID uint) error {
	locations := repositories.NewLocationRepository(s.DB)
	if _, err := locations.GetByID(ctx, locationID); err != nil {
		return err
	}
	return locations.AddFavourite(ctx, actor.ID, locationID)
}

// 5 RemoveFavourite unmarks a favourite
func (s *ReviewService) RemoveFavourite(ctx context.Context, actor rules.Actor, locationID uint) error {
	return repositories.NewLocationRepository(s.DB).RemoveFavourite(ctx, actor.ID, locationID)
}

// 6 ListFavourites returns the caller's favourite locations
func (s *ReviewService) ListFavourites(ctx context.Context, actor rules.Actor) ([]models.Location, error) {
	return repositories.NewLocationRepository(s.DB).ListFavourites(ctx, actor.ID)
}
