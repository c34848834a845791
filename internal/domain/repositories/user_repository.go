package repositories

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"accessible-env-backend/internal/domain/models"
	"accessible-env-backend/internal/domain/rules"
	"accessible-env-backend/internal/error/code"
)

// UserFilter narrows user listings
type UserFilter struct {
	Role   rules.Role
	Status models.UserStatus
	Search string
}

type UserRepository struct {
	BaseRepository[models.User]
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{newBase[models.User](db, code.ErrUserNotFound)}
}

// GetByLogin finds a user by username or email
func (r *UserRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	var u models.User
	login = strings.TrimSpace(login)
	err := r.DB(ctx).Where("username = ? OR email = ?", login, strings.ToLower(login)).First(&u).Error
	if err != nil {
		return nil, translate(err, code.ErrUserNotFound)
	}
	return &u, nil
}

// GetByEmail finds a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.DB(ctx).Where("email = ?", strings.ToLower(email)).First(&u).Error; err != nil {
		return nil, translate(err, code.ErrUserNotFound)
	}
	return &u, nil
}

// Exists reports whether the username or the email is already taken
func (r *UserRepository) Exists(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.User{}).
		Where("username = ? OR email = ?", username, strings.ToLower(email)).
		Count(&count).Error
	if err != nil {
		return false, translate(err, code.ErrUserNotFound)
	}
	return count > 0, nil
}

// List returns a page of users
func (r *UserRepository) List(ctx context.Context, f UserFilter, p *models.PaginationQuery) ([]models.User, int64, error) {
	q := r.DB(ctx).Model(&models.User{})
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	} else {
		q = q.Where("status <> ?", models.UserStatusDeleted)
	}
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(full_name) LIKE ?", like, like, like)
	}

	var total int64
	q, err := paginate(q, p, &total)
	if err != nil {
		return nil, 0, translate(err, code.ErrUserNotFound)
	}
	order := "id ASC"
	if p.Desc {
		order = "id DESC"
	}
	var users []models.User
	if err := q.Order(order).Find(&users).Error; err != nil {
		return nil, 0, translate(err, code.ErrUserNotFound)
	}
	return users, total, nil
}

// CountByRole counts non-deleted users per role
func (r *UserRepository) CountByRole(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Role  string
		Count int64
	}
	err := r.DB(ctx).Model(&models.User{}).
		Select("role, COUNT(*) AS count").
		Where("status <> ?", models.UserStatusDeleted).
		Group("role").Scan(&rows).Error
	if err != nil {
		return nil, translate(err, code.ErrUserNotFound)
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Role] = row.Count
	}
	return out, nil
}

// CountSuperadmins is used on start-up to decide whether to seed one
func (r *UserRepository) CountSuperadmins(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.User{}).Where("role = ?", rules.RoleSuperadmin).Count(&count).Error
	return count, translate(err, code.ErrUserNotFound)
}
