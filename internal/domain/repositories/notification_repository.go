package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"accessible-env-backend/internal/domain/models"
	"accessible-env-backend/internal/error/apperr"
	"accessible-env-backend/internal/error/code"
)

type NotificationRepository struct {
	BaseRepository[models.Notification]
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{newBase[models.Notification](db, code.ErrNotFound)}
}

// Insert stores n unless a row with the same dedup key exists. It reports
// whether a new row was written.
func (r *NotificationRepository) Insert(ctx context.Context, n *models.Notification) (bool, error) {
	res := r.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dedup_key"}},
		DoNothing: true,
	}).Create(n)
	if res.Error != nil {
		return false, translate(res.Error, code.ErrNotFound)
	}
	return res.RowsAffected > 0, nil
}

// List returns a page of a user's notifications, newest first
func (r *NotificationRepository) List(ctx context.Context, userID uint, unreadOnly bool, p *models.PaginationQuery) ([]models.Notification, int64, error) {
	q := r.DB(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var total int64
	q, err := paginate(q, p, &total)
	if err != nil {
		return nil, 0, translate(err, code.ErrNotFound)
	}
	var out []models.Notification
	if err := q.Order("id DESC").Find(&out).Error; err != nil {
		return nil, 0, translate(err, code.ErrNotFound)
	}
	return out, total, nil
}

func (r *NotificationRepository) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).Count(&count).Error
	return count, translate(err, code.ErrNotFound)
}

// MarkRead marks one notification of the user as read
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id uint) error {
	res := r.DB(ctx).Model(&models.Notification{}).Where("id = ? AND user_id = ?", id, userID).Update("is_read", true)
	if res.Error != nil {
		return translate(res.Error, code.ErrNotFound)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(code.ErrNotFound, "notification not found")
	}
	return nil
}

// MarkAllRead returns the number of rows changed
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := r.DB(ctx).Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).Update("is_read", true)
	return res.RowsAffected, translate(res.Error, code.ErrNotFound)
}

// DeleteOwned removes a notification of the user
func (r *NotificationRepository) DeleteOwned(ctx context.Context, userID, id uint) error {
	res := r.DB(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Notification{})
	if res.Error != nil {
		return translate(res.Error, code.ErrNotFound)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(code.ErrNotFound, "notification not found")
	}
	return nil
}

// PurgeReadBefore deletes read notifications created before t
func (r *NotificationRepository) PurgeReadBefore(ctx context.Context, t time.Time) (int64, error) {
	res := r.DB(ctx).Where("is_read = ? AND created_at < ?", true, t).Delete(&models.Notification{})
	return res.RowsAffected, translate(res.Error, code.ErrNotFound)
}
