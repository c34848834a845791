package repositories

import (
	"context"

	"gorm.io/gorm"

	"accessible-env-backend/internal/domain/models"
	"accessible-env-backend/internal/error/code"
)

// AuditFilter narrows audit log listings
type AuditFilter struct {
	ActorID    uint   `form:"actor_id"`
	Action     string `form:"action"`
	EntityType string `form:"entity_type"`
	EntityID   uint   `form:"entity_id"`
}

type AuditRepository struct {
	BaseRepository[models.AuditLog]
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{newBase[models.AuditLog](db, code.ErrNotFound)}
}

// List returns a page of audit entries, newest first
func (r *AuditRepository) List(ctx context.Context, f AuditFilter, p *models.PaginationQuery) ([]models.AuditLog, int64, error) {
	q := r.DB(ctx).Model(&models.AuditLog{})
	if f.ActorID != 0 {
		q = q.Where("actor_id = ?", f.ActorID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != 0 {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	var total int64
	q, err := paginate(q, p, &total)
	if err != nil {
		return nil, 0, translate(err, code.ErrNotFound)
	}
	var out []models.AuditLog
	if err := q.Order("id DESC").Find(&out).Error; err != nil {
		return nil, 0, translate(err, code.ErrNotFound)
	}
	return out, total, nil
}
