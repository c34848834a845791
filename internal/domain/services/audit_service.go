package services

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"accessible-env-backend/internal/domain/models"
	"accessible-env-backend/internal/domain/repositories"
	"accessible-env-backend/internal/domain/rules"
	"accessible-env-backend/internal/infrastructure/config"
)

// InterfaceAuditService records and lists audit entries
type InterfaceAuditService interface {
	Record(ctx context.Context, tx *gorm.DB, actor rules.Actor, action, entityType string, entityID uint, details interface{}) error
	List(ctx context.Context, actor rules.Actor, filter repositories.AuditFilter, page *models.PaginationQuery) ([]models.AuditLog, int64, error)
}

type AuditService struct {
	DB     *gorm.DB
	Config *config.Config
}

func NewAuditService(db *gorm.DB, cfg *config.Config) InterfaceAuditService {
	return &AuditService{DB: db, Config: cfg}
}

// 1 Record writes an entry on tx so it commits or rolls back with the change
func (s *AuditService) Record(ctx context.Context, tx *gorm.DB, actor rules.Actor, action, entityType string, entityID uint, details interface{}) error {
	var text string
	switch d := details.(type) {
	case nil:
	case string:
		text = d
	default:
		if b, err := json.Marshal(d); err == nil {
			text = string(b)
		}
	}
	return repositories.NewAuditRepository(tx).Create(ctx, &models.AuditLog{
		ActorID:    actor.ID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    text,
		Timestamp:  time.Now(),
		Success:    true,
		IPAddress:  ClientIPFrom(ctx),
	})
}

// 2 List returns audit entries, superadmin only
func (s *AuditService) List(ctx context.Context, actor rules.Actor, filter repositories.AuditFilter, page *models.PaginationQuery) ([]models.AuditLog, int64, error) {
	if err := rules.RequirePermission(actor.Role, rules.PermAuditRead); err != nil {
		return nil, 0, err
	}
	return repositories.NewAuditRepository(s.DB).List(ctx, filter, page)
}
