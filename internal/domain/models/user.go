package models

import (
	"time"

	"accessible-env-backend/internal/domain/rules"
)

// UserStatus is the account state. Users are never hard deleted.
type UserStatus string

const (
	UserStatusActive  UserStatus = "active"
	UserStatusBanned  UserStatus = "banned"
	UserStatusDeleted UserStatus = "deleted"
)

const (
	AuthProviderLocal  = "local"
	AuthProviderGoogle = "google"
)

// User is a registered account
type User struct {
	BaseModel
	Username      string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email         string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password      string     `gorm:"type:varchar(100)" json:"-"`
	Role          rules.Role `gorm:"type:varchar(20);not null;default:'user';index;check:chk_users_role,role IN ('superadmin','admin','inspector','user')" json:"role"`
	Status        UserStatus `gorm:"type:varchar(20);not null;default:'active';check:chk_users_status,status IN ('active','banned','deleted')" json:"status"`
	EmailVerified bool       `gorm:"default:false" json:"email_verified"`
	FullName      string     `gorm:"type:varchar(150)" json:"full_name"`
	Phone         string     `gorm:"type:varchar(30)" json:"phone"`
	AvatarURL     string     `gorm:"type:varchar(500)" json:"avatar_url"`
	Language      string     `gorm:"type:varchar(10);default:'en'" json:"language"`
	AuthProvider  string     `gorm:"type:varchar(20);default:'local'" json:"auth_provider"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
}

// IsActive reports whether the account may log in
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// Actor converts the user to the caller identity used by the rules package
func (u *User) Actor() rules.Actor {
	return rules.Actor{ID: u.ID, Role: u.Role}
}

// Subject converts the user to a rule target
func (u *User) Subject() rules.Subject {
	return rules.Subject{ID: u.ID, Role: u.Role}
}
