package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"gorm.io/gorm"

	"accessible-env-backend/internal/domain/models"
	"accessible-env-backend/internal/domain/repositories"
	"accessible-env-backend/internal/error/apperr"
	"accessible-env-backend/internal/infrastructure/messaging"
	"accessible-env-backend/internal/infrastructure/metrics"
	"accessible-env-backend/pkg/logger"
)

// NotificationMessage is a notification waiting to be stored and pushed.
// DedupKey identifies the logical message: delivering the same key twice
// stores and pushes it once.
type NotificationMessage struct {
	UserID   uint                   `json:"user_id"`
	Type     string                 `json:"type"`
	Title    string                 `json:"title"`
	Message  string                 `json:"message"`
	Payload  map[string]interface{} `json:"payload,omitempty"`
	DedupKey string                 `json:"-"`
}

// Notifier accepts notifications for background delivery
type Notifier interface {
	Enqueue(msg NotificationMessage) bool
}

// Pusher delivers a payload to the open connections of a user
type Pusher interface {
	PushToUser(userID uint, v interface{}) int
}

const (
	deliveryAttempts = 3
	drainTimeout     = 5 * time.Second
)

// NotificationDispatcher stores, pushes and publishes notifications from a
// bounded queue with a fixed number of workers
type NotificationDispatcher struct {
	db        *gorm.DB
	pusher    Pusher
	publisher messaging.Publisher
	queue     chan NotificationMessage
	workers   int
	backoff   time.Duration
}

// NewNotificationDispatcher creates a dispatcher; pusher and publisher may be nil
func NewNotificationDispatcher(db *gorm.DB, pusher Pusher, publisher messaging.Publisher, workers, queueSize int) *NotificationDispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 256
	}
	return &NotificationDispatcher{
		db:        db,
		pusher:    pusher,
		publisher: publisher,
		queue:     make(chan NotificationMessage, queueSize),
		workers:   workers,
		backoff:   200 * time.Millisecond,
	}
}

// Enqueue never blocks; it reports false when the queue is full
func (d *NotificationDispatcher) Enqueue(msg NotificationMessage) bool {
	select {
	case d.queue <- msg:
		return true
	default:
		metrics.NotificationHandled(metrics.NotificationDropped)
		logger.Warning("notification queue full, dropped %s for user %d", msg.DedupKey, msg.UserID)
		return false
	}
}

// Run starts the workers and blocks until ctx is cancelled, then drains what
// is still queued
func (d *NotificationDispatcher) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case msg := <-d.queue:
					d.deliverWithRetry(ctx, msg)
				}
			}
		}()
	}
	wg.Wait()

	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case msg := <-d.queue:
			d.deliverWithRetry(drainCtx, msg)
		default:
			return nil
		}
	}
}

func (d *NotificationDispatcher) deliverWithRetry(ctx context.Context, msg NotificationMessage) {
	var err error
	for attempt := 1; attempt <= deliveryAttempts; attempt++ {
		if _, err = d.Deliver(ctx, msg); err == nil {
			return
		}
		// only infrastructure failures are worth another try
		if apperr.KindOf(err) != apperr.KindInfrastructure {
			break
		}
		select {
		case <-ctx.Done():
			attempt = deliveryAttempts
		case <-time.After(d.backoff * time.Duration(attempt)):
		}
	}
	metrics.NotificationHandled(metrics.NotificationFailed)
	logger.Error("notification %s for user %d not delivered: %v", msg.DedupKey, msg.UserID, err)
}

// Deliver stores msg and, if it was not a duplicate, pushes it to the user's
// sockets and the broker. It reports whether a new row was stored.
func (d *NotificationDispatcher) Deliver(ctx context.Context, msg NotificationMessage) (bool, error) {
	n := &models.Notification{
		UserID:   msg.UserID,
		Type:     msg.Type,
		Title:    msg.Title,
		Message:  msg.Message,
		DedupKey: msg.DedupKey,
	}
	if msg.Payload != nil {
		if b, err := json.Marshal(msg.Payload); err == nil {
			n.Payload = string(b)
		}
	}

	inserted, err := repositories.NewNotificationRepository(d.db).Insert(ctx, n)
	if err != nil {
		return false, err
	}
	if !inserted {
		metrics.NotificationHandled(metrics.NotificationDuplicate)
		return false, nil
	}
	metrics.NotificationHandled(metrics.NotificationStored)

	if d.pusher != nil {
		d.pusher.PushToUser(msg.UserID, messaging.NewEvent(messaging.EventNotification, n))
	}
	if d.publisher != nil {
		if err := d.publisher.Publish(ctx, messaging.UserTopic(msg.UserID), messaging.NewEvent(messaging.EventNotification, n)); err != nil {
			logger.Warning("publish notification %d failed: %v", n.ID, err)
		}
	}
	return true, nil
}
