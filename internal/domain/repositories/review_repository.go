package repositories

import (
	"context"

	"gorm.io/gorm"

	"accessible-env-backend/internal/domain/models"
	"accessible-env-backend/internal/error/apperr"
	"accessible-env-backend/internal/error/code"
)

type ReviewRepository struct {
	BaseRepository[models.Review]
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{newBase[models.Review](db, code.ErrNotFound)}
}

// Create inserts a review; a second review by the same user is a conflict
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	err := r.BaseRepository.Create(ctx, review)
	if apperr.KindOf(err) == apperr.KindConflict {
		return apperr.Conflict(code.ErrConflict, "you have already reviewed this location")
	}
	return err
}

// ListByLocation returns a page of reviews, newest first
func (r *ReviewRepository) ListByLocation(ctx context.Context, locationID uint, p *models.PaginationQuery) ([]models.Review, int64, error) {
	q := r.DB(ctx).Model(&models.Review{}).Where("location_id = ?", locationID)
	var total int64
	q, err := paginate(q, p, &total)
	if err != nil {
		return nil, 0, translate(err, code.ErrNotFound)
	}
	var out []models.Review
	if err := q.Preload("User").Order("id DESC").Find(&out).Error; err != nil {
		return nil, 0, translate(err, code.ErrNotFound)
	}
	return out, total, nil
}
