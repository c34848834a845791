// Package services implements the use cases of the platform. Every mutating
// call runs in one transaction; events and notifications are emitted after
// the transaction commits.
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"accessible-env-backend/internal/domain/repositories"
	"accessible-env-backend/internal/infrastructure/database"
	"accessible-env-backend/internal/infrastructure/messaging"
	"accessible-env-backend/pkg/logger"
)

type ctxKey int

const clientIPKey ctxKey = iota

// WithClientIP stores the caller's address for the audit log
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIPFrom returns the address stored by WithClientIP
func ClientIPFrom(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}

// inTx runs fn with repositories bound to one transaction
func inTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB, r *repositories.Repositories) error) error {
	return database.WithTransaction(ctx, db, func(tx *gorm.DB) error {
		return fn(tx, repositories.New(tx))
	})
}

const publishTimeout = 10 * time.Second

// publishAsync sends an event in the background; failures are only logged
func publishAsync(pub messaging.Publisher, eventType string, payload interface{}) {
	if pub == nil {
		return
	}
	event := messaging.NewEvent(eventType, payload)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := pub.Publish(ctx, messaging.EventTopic(eventType), event); err != nil {
			logger.Warning("publish %s failed: %v", eventType, err)
		}
	}()
}
