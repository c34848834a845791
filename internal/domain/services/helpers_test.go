package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"accessible-env-backend/internal/domain/services"
	"accessible-env-backend/internal/error/apperr"
	"accessible-env-backend/internal/infrastructure/config"
	"accessible-env-backend/internal/infrastructure/messaging"
	"accessible-env-backend/internal/infrastructure/storage"
	"accessible-env-backend/internal/test/testutil"
)

// syncNotifier delivers every message immediately through a dispatcher
type syncNotifier struct {
	dispatcher *services.NotificationDispatcher

	mu   sync.Mutex
	msgs []services.NotificationMessage
}

func (n *syncNotifier) Enqueue(msg services.NotificationMessage) bool {
	n.mu.Lock()
	n.msgs = append(n.msgs, msg)
	n.mu.Unlock()
	_, err := n.dispatcher.Deliver(context.Background(), msg)
	return err == nil
}

func (n *syncNotifier) Messages() []services.NotificationMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]services.NotificationMessage(nil), n.msgs...)
}

// countingPusher records pushes per user
type countingPusher struct {
	mu     sync.Mutex
	pushes map[uint]int
}

func (p *countingPusher) PushToUser(userID uint, _ interface{}) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pushes == nil {
		p.pushes = map[uint]int{}
	}
	p.pushes[userID]++
	return 1
}

func (p *countingPusher) Count(userID uint) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pushes[userID]
}

type env struct {
	ctx       context.Context
	db        *gorm.DB
	cfg       *config.Config
	redis     *miniredis.Miniredis
	cache     services.InterfaceRedisService
	publisher *messaging.Recorder
	store     *storage.MemoryStorage
	pusher    *countingPusher
	notifier  *syncNotifier
	audit     services.InterfaceAuditService

	users       services.InterfaceUserService
	locations   services.InterfaceLocationService
	assessments services.InterfaceAssessmentService
	criteria    services.InterfaceCriteriaService
	catalog     services.InterfaceCatalogService
	reviews     services.InterfaceReviewService
	images      services.InterfaceImageService
	stats       services.InterfaceStatisticsService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := &config.Config{
		JWTSecretKey:              "test-secret",
		JWTExpire:                 time.Hour,
		CacheTTL:                  time.Minute,
		DefaultSuperadminUsername: "root",
		DefaultSuperadminEmail:    "root@example.com",
		DefaultSuperadminPassword: "RootPassw0rd",
		NotificationWorkers:       1,
	}

	e := &env{
		ctx:       context.Background(),
		db:        db,
		cfg:       cfg,
		redis:     mr,
		cache:     services.NewRedisServiceWithClient(client, time.Minute),
		publisher: &messaging.Recorder{},
		store:     storage.NewMemoryStorage("/files"),
		pusher:    &countingPusher{},
	}
	dispatcher := services.NewNotificationDispatcher(db, e.pusher, e.publisher, 1, 16)
	e.notifier = &syncNotifier{dispatcher: dispatcher}
	e.audit = services.NewAuditService(db, cfg)

	e.users = services.NewUserService(db, cfg, e.audit, e.notifier)
	e.locations = services.NewLocationService(db, cfg, e.cache, e.audit, e.notifier, e.publisher)
	e.assessments = services.NewAssessmentService(db, cfg, e.cache, e.audit, e.notifier, e.publisher, e.store)
	e.criteria = services.NewCriteriaService(db, cfg)
	e.catalog = services.NewCatalogService(db, cfg, e.cache)
	e.reviews = services.NewReviewService(db, cfg, e.cache)
	e.images = services.NewImageService(db, cfg, e.store, e.publisher)
	e.stats = services.NewStatisticsService(db, cfg, e.cache)
	return e
}

func requireCode(t *testing.T, err error, kind apperr.Kind, c int) {
	t.Helper()
	require.Error(t, err)
	e, ok := apperr.As(err)
	require.True(t, ok, "expected an application error, got %v", err)
	require.Equal(t, kind, e.Kind, err.Error())
	require.Equal(t, c, e.Code, err.Error())
}

func ptr[T any](v T) *T { return &v }
