// Package repositories holds the data access objects, one per aggregate.
// Every method takes the *gorm.DB it was built with, so a repository built
// on a transaction handle runs inside that transaction.
package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"accessible-env-backend/internal/domain/models"
)

// BaseRepository implements the CRUD operations shared by all tables
type BaseRepository[T any] struct {
	db       *gorm.DB
	notFound int
}

func newBase[T any](db *gorm.DB, notFound int) BaseRepository[T] {
	return BaseRepository[T]{db: db, notFound: notFound}
}

// DB returns the handle bound to ctx
func (r BaseRepository[T]) DB(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func (r BaseRepository[T]) Create(ctx context.Context, entity *T) error {
	return translate(r.DB(ctx).Create(entity).Error, r.notFound)
}

func (r BaseRepository[T]) Save(ctx context.Context, entity *T) error {
	return translate(r.DB(ctx).Save(entity).Error, r.notFound)
}

// GetByID loads a row by primary key with optional preloads
func (r BaseRepository[T]) GetByID(ctx context.Context, id uint, preloads ...string) (*T, error) {
	var entity T
	q := r.DB(ctx)
	for _, p := range preloads {
		q = q.Preload(p)
	}
	if err := q.First(&entity, id).Error; err != nil {
		return nil, translate(err, r.notFound)
	}
	return &entity, nil
}

// Delete removes a row by primary key; a missing row is a not-found error
func (r BaseRepository[T]) Delete(ctx context.Context, id uint) error {
	var entity T
	res := r.DB(ctx).Delete(&entity, id)
	if res.Error != nil {
		return translate(res.Error, r.notFound)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, r.notFound)
	}
	return nil
}

// Update applies a column map to the row with the given id
func (r BaseRepository[T]) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	var entity T
	res := r.DB(ctx).Model(&entity).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error, r.notFound)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, r.notFound)
	}
	return nil
}

// forUpdate adds a row lock where the dialect supports one
func forUpdate(q *gorm.DB) *gorm.DB {
	if q.Dialector.Name() == "sqlite" {
		return q
	}
	return q.Clauses(clause.Locking{Strength: "UPDATE"})
}

// paginate counts the rows matched by q, then limits q to the requested
// page. Preloads must be added to the returned query, not to q.
func paginate(q *gorm.DB, p *models.PaginationQuery, total *int64) (*gorm.DB, error) {
	p.Normalize()
	if err := q.Session(&gorm.Session{}).Count(total).Error; err != nil {
		return nil, err
	}
	return q.Offset(p.Offset()).Limit(p.PageSize), nil
}

// Repositories groups every repository built on the same handle
type Repositories struct {
	Users         *UserRepository
	Locations     *LocationRepository
	Catalog       *CatalogRepository
	Criteria      *CriteriaRepository
	Assessments   *AssessmentRepository
	Reviews       *ReviewRepository
	Notifications *NotificationRepository
	Audit         *AuditRepository
}

// New builds all repositories on db, which may be a transaction
func New(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:         NewUserRepository(db),
		Locations:     NewLocationRepository(db),
		Catalog:       NewCatalogRepository(db),
		Criteria:      NewCriteriaRepository(db),
		Assessments:   NewAssessmentRepository(db),
		Reviews:       NewReviewRepository(db),
		Notifications: NewNotificationRepository(db),
		Audit:         NewAuditRepository(db),
	}
}
