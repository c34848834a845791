// Package container wires the services once at start-up and hands them to
// the controllers by name.
package container

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"accessible-env-backend/internal/domain/services"
	"accessible-env-backend/internal/infrastructure/config"
	"accessible-env-backend/internal/infrastructure/messaging"
	"accessible-env-backend/internal/infrastructure/storage"
	"accessible-env-backend/pkg/logger"
)

// Options carries the infrastructure built outside the container. Nil
// fields fall back to in-process implementations.
type Options struct {
	Redis     services.InterfaceRedisService
	Storage   storage.ObjectStorage
	Publisher messaging.Publisher
	Pusher    services.Pusher
}

// ServiceContainer manages the dependency graph of the services
type ServiceContainer struct {
	db     *gorm.DB
	config *config.Config

	redisService services.InterfaceRedisService
	storage      storage.ObjectStorage
	publisher    messaging.Publisher
	pusher       services.Pusher
	dispatcher   *services.NotificationDispatcher

	jwtService          services.InterfaceJWTService
	oauthService        services.InterfaceOAuthService
	auditService        services.InterfaceAuditService
	userService         services.InterfaceUserService
	locationService     services.InterfaceLocationService
	reviewService       services.InterfaceReviewService
	catalogService      services.InterfaceCatalogService
	criteriaService     services.InterfaceCriteriaService
	assessmentService   services.InterfaceAssessmentService
	imageService        services.InterfaceImageService
	notificationService services.InterfaceNotificationService
	statisticsService   services.InterfaceStatisticsService

	mu sync.RWMutex
}

// NewServiceContainer builds every service on db
func NewServiceContainer(db *gorm.DB, cfg *config.Config, opts Options) *ServiceContainer {
	if db == nil {
		panic("database connection is nil")
	}
	if cfg == nil {
		panic("config is nil")
	}

	if opts.Redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := opts.Redis.Ping(ctx); err != nil {
			logger.Warning("redis ping failed: %v, cache reads will fall through to the database", err)
		}
	}
	if opts.Storage == nil {
		opts.Storage = storage.NewMemoryStorage("/files")
	}
	if opts.Publisher == nil {
		opts.Publisher = messaging.NoopPublisher{}
	}

	c := &ServiceContainer{
		db:           db,
		config:       cfg,
		redisService: opts.Redis,
		storage:      opts.Storage,
		publisher:    opts.Publisher,
		pusher:       opts.Pusher,
	}
	c.initializeServices()
	return c
}

func (c *ServiceContainer) initializeServices() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dispatcher = services.NewNotificationDispatcher(c.db, c.pusher, c.publisher, c.config.NotificationWorkers, 1024)

	c.jwtService = services.NewJWTService(c.config)
	c.oauthService = services.NewOAuthService(c.db, c.config, c.redisService)
	c.auditService = services.NewAuditService(c.db, c.config)

	c.userService = services.NewUserService(c.db, c.config, c.auditService, c.dispatcher)
	c.locationService = services.NewLocationService(c.db, c.config, c.redisService, c.auditService, c.dispatcher, c.publisher)
	c.reviewService = services.NewReviewService(c.db, c.config, c.redisService)
	c.catalogService = services.NewCatalogService(c.db, c.config, c.redisService)
	c.criteriaService = services.NewCriteriaService(c.db, c.config)
	c.assessmentService = services.NewAssessmentService(c.db, c.config, c.redisService, c.auditService,
		c.dispatcher, c.publisher, c.storage)
	c.imageService = services.NewImageService(c.db, c.config, c.storage, c.publisher)
	c.notificationService = services.NewNotificationService(c.db, c.config)
	c.statisticsService = services.NewStatisticsService(c.db, c.config, c.redisService)
}

// GetService returns the service registered under name
func (c *ServiceContainer) GetService(name string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch name {
	case "config":
		return c.config
	case "db":
		return c.db
	case "redis":
		return c.redisService
	case "storage":
		return c.storage
	case "publisher":
		return c.publisher
	case "pusher":
		return c.pusher
	case "dispatcher":
		return c.dispatcher
	case "jwt":
		return c.jwtService
	case "oauth":
		return c.oauthService
	case "audit":
		return c.auditService
	case "user":
		return c.userService
	case "location":
		return c.locationService
	case "review":
		return c.reviewService
	case "catalog":
		return c.catalogService
	case "criteria":
		return c.criteriaService
	case "assessment":
		return c.assessmentService
	case "image":
		return c.imageService
	case "notification":
		return c.notificationService
	case "statistics":
		return c.statisticsService
	default:
		return nil
	}
}

// GetDB returns the database handle
func (c *ServiceContainer) GetDB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// Dispatcher returns the notification dispatcher, which the server runs
func (c *ServiceContainer) Dispatcher() *services.NotificationDispatcher {
	return c.dispatcher
}

// Close releases the broker connection
func (c *ServiceContainer) Close() {
	c.publisher.Close()
}
