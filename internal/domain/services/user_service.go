package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"accessible-env-backend/internal/domain/models"
	"accessible-env-backend/internal/domain/repositories"
	"accessible-env-backend/internal/domain/rules"
	"accessible-env-backend/internal/error/apperr"
	"accessible-env-backend/internal/error/code"
	"accessible-env-backend/internal/infrastructure/config"
	"accessible-env-backend/pkg/logger"
)

// RegisterInput is the data needed to create a local account
type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
	Phone    string
	Language string
}

// ProfileInput holds the fields a user may change on their own profile.
// Nil fields are left untouched.
type ProfileInput struct {
	FullName  *string
	Phone     *string
	AvatarURL *string
	Language  *string
}

// InterfaceUserService manages accounts, credentials and roles
type InterfaceUserService interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	Login(ctx context.Context, login, password string) (*models.User, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
	Get(ctx context.Context, actor rules.Actor, id uint) (*models.User, error)
	UpdateProfile(ctx context.Context, actor rules.Actor, in ProfileInput) (*models.User, error)
	ChangePassword(ctx context.Context, actor rules.Actor, oldPassword, newPassword string) error
	List(ctx context.Context, actor rules.Actor, filter repositories.UserFilter, page *models.PaginationQuery) ([]models.User, int64, error)
	ChangeRole(ctx context.Context, actor rules.Actor, userID uint, role rules.Role) (*models.User, error)
	Ban(ctx context.Context, actor rules.Actor, userID uint) error
	Unban(ctx context.Context, actor rules.Actor, userID uint) error
	Delete(ctx context.Context, actor rules.Actor, userID uint) error
	EnsureSuperadmin(ctx context.Context) error
}

type UserService struct {
	DB       *gorm.DB
	Config   *config.Config
	Audit    InterfaceAuditService
	Notifier Notifier
}

func NewUserService(db *gorm.DB, cfg *config.Config, audit InterfaceAuditService, notifier Notifier) InterfaceUserService {
	return &UserService{
		DB:       db,
		Config:   cfg,
		Audit:    audit,
		Notifier: notifier,
	}
}

// 1 Register creates an active local account with role user
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Username == "" || in.Email == "" {
		return nil, apperr.Validation(code.ErrValidation, "username and email are required")
	}
	if err := rules.ValidatePasswordStrength(in.Password); err != nil {
		return nil, err
	}

	users := repositories.NewUserRepository(s.DB)
	exists, err := users.Exists(ctx, in.Username, in.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict(code.ErrUserAlreadyExist, "")
	}

	hash, err := rules.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	language := in.Language
	if language == "" {
		language = "en"
	}
	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		Password:     hash,
		Role:         rules.RoleUser,
		Status:       models.UserStatusActive,
		FullName:     in.FullName,
		Phone:        in.Phone,
		Language:     language,
		AuthProvider: models.AuthProviderLocal,
	}
	if err := users.Create(ctx, user); err != nil {
		// a concurrent registration can still win the unique index
		if apperr.KindOf(err) == apperr.KindConflict {
			return nil, apperr.Conflict(code.ErrUserAlreadyExist, "")
		}
		return nil, err
	}
	return user, nil
}

// 2 Login checks credentials by username or email
func (s *UserService) Login(ctx context.Context, login, password string) (*models.User, error) {
	users := repositories.NewUserRepository(s.DB)
	user, err := users.GetByLogin(ctx, login)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.Unauthorized(code.ErrUserPasswordIncorrect, "")
		}
		return nil, err
	}
	if user.Password == "" || !rules.CheckPasswordHash(password, user.Password) {
		return nil, apperr.Unauthorized(code.ErrUserPasswordIncorrect, "")
	}
	if !user.IsActive() {
		return nil, apperr.Forbidden(code.ErrUserInactive, "")
	}

	now := time.Now()
	if err := users.Update(ctx, user.ID, map[string]interface{}{"last_login_at": now}); err != nil {
		logger.Warning("update last login of user %d failed: %v", user.ID, err)
	}
	user.LastLoginAt = &now
	return user, nil
}

// 3 GetByID loads any user; used by the authentication layer
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return repositories.NewUserRepository(s.DB).GetByID(ctx, id)
}

// 4 Get returns the caller or, with user:read, any other user
func (s *UserService) Get(ctx context.Context, actor rules.Actor, id uint) (*models.User, error) {
	if id != actor.ID {
		if err := rules.RequirePermission(actor.Role, rules.PermUserRead); err != nil {
			return nil, err
		}
	}
	return s.GetByID(ctx, id)
}

// 5 UpdateProfile changes the caller's own profile fields
func (s *UserService) UpdateProfile(ctx context.Context, actor rules.Actor, in ProfileInput) (*models.User, error) {
	fields := map[string]interface{}{}
	if in.FullName != nil {
		fields["full_name"] = strings.TrimSpace(*in.FullName)
	}
	if in.Phone != nil {
		fields["phone"] = strings.TrimSpace(*in.Phone)
	}
	if in.AvatarURL != nil {
		fields["avatar_url"] = strings.TrimSpace(*in.AvatarURL)
	}
	if in.Language != nil {
		fields["language"] = strings.TrimSpace(*in.Language)
	}

	users := repositories.NewUserRepository(s.DB)
	if len(fields) > 0 {
		if err := users.Update(ctx, actor.ID, fields); err != nil {
			return nil, err
		}
	}
	return users.GetByID(ctx, actor.ID)
}

// 6 ChangePassword replaces the caller's password after checking the old one
func (s *UserService) ChangePassword(ctx context.Context, actor rules.Actor, oldPassword, newPassword string) error {
	users := repositories.NewUserRepository(s.DB)
	user, err := users.GetByID(ctx, actor.ID)
	if err != nil {
		return err
	}
	// accounts created through social login have no password yet
	if user.Password != "" && !rules.CheckPasswordHash(oldPassword, user.Password) {
		return apperr.Unauthorized(code.ErrUserPasswordIncorrect, "current password is incorrect")
	}
	if err := rules.ValidatePasswordStrength(newPassword); err != nil {
		return err
	}
	hash, err := rules.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return users.Update(ctx, user.ID, map[string]interface{}{"password": hash})
}

// 7 List returns a filtered page of users for admins
func (s *UserService) List(ctx context.Context, actor rules.Actor, filter repositories.UserFilter, page *models.PaginationQuery) ([]models.User, int64, error) {
	if err := rules.RequirePermission(actor.Role, rules.PermUserRead); err != nil {
		return nil, 0, err
	}
	return repositories.NewUserRepository(s.DB).List(ctx, filter, page)
}

// 8 ChangeRole sets a new role and tells the user about it
func (s *UserService) ChangeRole(ctx context.Context, actor rules.Actor, userID uint, role rules.Role) (*models.User, error) {
	var user *models.User
	err := inTx(ctx, s.DB, func(tx *gorm.DB, r *repositories.Repositories) error {
		var err error
		if user, err = r.Users.GetByID(ctx, userID); err != nil {
			return err
		}
		if err := rules.ValidateRoleChange(actor, user.Subject(), role); err != nil {
			return err
		}
		previous := user.Role
		if previous == role {
			return nil
		}
		if err := r.Users.Update(ctx, user.ID, map[string]interface{}{"role": role}); err != nil {
			return err
		}
		user.Role = role

		// an admin demoted below admin loses their inspector assignments
		if previous == rules.RoleAdmin && role != rules.RoleAdmin {
			if err := tx.WithContext(ctx).Where("user_id = ?", user.ID).Delete(&models.LocationInspector{}).Error; err != nil {
				return apperr.Infrastructure(code.ErrDatabase, err)
			}
		}
		return s.Audit.Record(ctx, tx, actor, models.AuditRoleChanged, "user", user.ID,
			map[string]string{"from": string(previous), "to": string(role)})
	})
	if err != nil {
		return nil, err
	}

	notify(s.Notifier, NotificationMessage{
		UserID:   user.ID,
		Type:     models.NotificationRoleChanged,
		Title:    "Your role has changed",
		Message:  fmt.Sprintf("Your role is now %s", user.Role),
		Payload:  map[string]interface{}{"role": user.Role},
		DedupKey: fmt.Sprintf("role:%d:%s:%d", user.ID, user.Role, time.Now().UnixNano()),
	})
	return user, nil
}

// 9 Ban blocks a user from logging in
func (s *UserService) Ban(ctx context.Context, actor rules.Actor, userID uint) error {
	return s.setStatus(ctx, actor, userID, models.UserStatusBanned, models.AuditUserBanned)
}

// 10 Unban reactivates a banned user
func (s *UserService) Unban(ctx context.Context, actor rules.Actor, userID uint) error {
	return s.setStatus(ctx, actor, userID, models.UserStatusActive, models.AuditUserUnbanned)
}

// 11 Delete soft deletes a user; the row stays for referential integrity
func (s *UserService) Delete(ctx context.Context, actor rules.Actor, userID uint) error {
	return s.setStatus(ctx, actor, userID, models.UserStatusDeleted, models.AuditUserDeleted)
}

func (s *UserService) setStatus(ctx context.Context, actor rules.Actor, userID uint, status models.UserStatus, action string) error {
	return inTx(ctx, s.DB, func(tx *gorm.DB, r *repositories.Repositories) error {
		user, err := r.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if err := rules.ValidateBan(actor, user.Subject()); err != nil {
			return err
		}
		if user.Status == models.UserStatusDeleted {
			return apperr.Conflict(code.ErrUserInactive, "user is deleted")
		}
		if user.Status == status {
			return nil
		}
		if err := r.Users.Update(ctx, user.ID, map[string]interface{}{"status": status}); err != nil {
			return err
		}
		return s.Audit.Record(ctx, tx, actor, action, "user", user.ID,
			map[string]string{"from": string(user.Status), "to": string(status)})
	})
}

// 12 EnsureSuperadmin creates the configured superadmin when none exists
func (s *UserService) EnsureSuperadmin(ctx context.Context) error {
	users := repositories.NewUserRepository(s.DB)
	count, err := users.CountSuperadmins(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if s.Config.DefaultSuperadminPassword == "" {
		return apperr.Validation(code.ErrValidation, "DEFAULT_SUPERADMIN_PASSWORD is not set")
	}

	hash, err := rules.HashPassword(s.Config.DefaultSuperadminPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	admin := &models.User{
		Username:      s.Config.DefaultSuperadminUsername,
		Email:         strings.ToLower(s.Config.DefaultSuperadminEmail),
		Password:      hash,
		Role:          rules.RoleSuperadmin,
		Status:        models.UserStatusActive,
		EmailVerified: true,
		FullName:      "Super Admin",
		Language:      "en",
		AuthProvider:  models.AuthProviderLocal,
	}
	if err := users.Create(ctx, admin); err != nil {
		return err
	}
	logger.Info("created default superadmin %s", admin.Username)
	return nil
}

// notify enqueues messages; it must only be called after a commit
func notify(n Notifier, msgs ...NotificationMessage) {
	if n == nil {
		return
	}
	for _, m := range msgs {
		n.Enqueue(m)
	}
}
