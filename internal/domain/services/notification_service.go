package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"accessible-env-backend/internal/domain/models"
	"accessible-env-backend/internal/domain/repositories"
	"accessible-env-backend/internal/domain/rules"
	"accessible-env-backend/internal/infrastructure/config"
	"accessible-env-backend/pkg/logger"
)

// InterfaceNotificationService serves a user's own notifications
type InterfaceNotificationService interface {
	List(ctx context.Context, actor rules.Actor, unreadOnly bool, page *models.PaginationQuery) ([]models.Notification, int64, error)
	UnreadCount(ctx context.Context, actor rules.Actor) (int64, error)
	MarkRead(ctx context.Context, actor rules.Actor, id uint) error
	MarkAllRead(ctx context.Context, actor rules.Actor) (int64, error)
	Delete(ctx context.Context, actor rules.Actor, id uint) error
	PurgeRead(ctx context.Context, olderThan time.Duration) (int64, error)
}

type NotificationService struct {
	DB     *gorm.DB
	Config *config.Config
}

func NewNotificationService(db *gorm.DB, cfg *config.Config) InterfaceNotificationService {
	return &NotificationService{DB: db, Config: cfg}
}

func (s *NotificationService) repo() *repositories.NotificationRepository {
	return repositories.NewNotificationRepository(s.DB)
}

// 1 List returns the caller's notifications, newest first
func (s *NotificationService) List(ctx context.Context, actor rules.Actor, unreadOnly bool, page *models.PaginationQuery) ([]models.Notification, int64, error) {
	if err := rules.RequirePermission(actor.Role, rules.PermNotificationRead); err != nil {
		return nil, 0, err
	}
	return s.repo().List(ctx, actor.ID, unreadOnly, page)
}

// 2 UnreadCount counts the caller's unread notifications
func (s *NotificationService) UnreadCount(ctx context.Context, actor rules.Actor) (int64, error) {
	return s.repo().UnreadCount(ctx, actor.ID)
}

// 3 MarkRead marks one of the caller's notifications as read
func (s *NotificationService) MarkRead(ctx context.Context, actor rules.Actor, id uint) error {
	return s.repo().MarkRead(ctx, actor.ID, id)
}

// 4 MarkAllRead marks everything read and returns how many changed
func (s *NotificationService) MarkAllRead(ctx context.Context, actor rules.Actor) (int64, error) {
	return s.repo().MarkAllRead(ctx, actor.ID)
}

// 5 Delete removes one of the caller's notifications
func (s *NotificationService) Delete(ctx context.Context, actor rules.Actor, id uint) error {
	return s.repo().DeleteOwned(ctx, actor.ID, id)
}

// 6 PurgeRead deletes read notifications older than olderThan
func (s *NotificationService) PurgeRead(ctx context.Context, olderThan time.Duration) (int64, error) {
	n, err := s.repo().PurgeReadBefore(ctx, time.Now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Info("purged %d read notifications", n)
	}
	return n, nil
}
