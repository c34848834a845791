package models

import "time"

// Notification types
const (
	NotificationAssessmentSubmitted = "assessment_submitted"
	NotificationAssessmentVerified  = "assessment_verified"
	NotificationAssessmentRejected  = "assessment_rejected"
	NotificationInspectorAssigned   = "inspector_assigned"
	NotificationCommentAdded        = "comment_added"
	NotificationRoleChanged         = "role_changed"
)

// Notification is a message delivered to one user. DedupKey is unique so a
// redelivered message is stored once.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Type      string    `gorm:"type:varchar(50);not null" json:"type"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Message   string    `gorm:"type:text" json:"message"`
	Payload   string    `gorm:"type:text" json:"payload,omitempty"`
	IsRead    bool      `gorm:"not null;default:false;index" json:"is_read"`
	DedupKey  string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"-"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
