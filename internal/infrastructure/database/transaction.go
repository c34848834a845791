package database

import (
	"context"

	"gorm.io/gorm"
)

// WithTransaction is the unit of work: fn runs inside one transaction which
// commits when fn returns nil and rolls back otherwise. A panic in fn also
// rolls back and is re-raised.
func WithTransaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}
