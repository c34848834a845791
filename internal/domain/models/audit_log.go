package models

import "time"

// Audit actions
const (
	AuditAssessmentCreated   = "assessment.create"
	AuditAssessmentStatus    = "assessment.transition"
	AuditAssessmentVerified  = "assessment.verify"
	AuditAssessmentRejected  = "assessment.reject"
	AuditAssessmentDeleted   = "assessment.delete"
	AuditAssessmentReassess  = "assessment.reassess"
	AuditInspectorAssigned   = "inspector.assign"
	AuditInspectorUnassigned = "inspector.unassign"
	AuditRoleChanged         = "user.role"
	AuditUserBanned          = "user.ban"
	AuditUserUnbanned        = "user.unban"
	AuditUserDeleted         = "user.delete"
	AuditLocationArchived    = "location.archive"
)

// AuditLog records a mutating operation and who performed it
type AuditLog struct {
	BaseModel
	ActorID    uint      `gorm:"not null;index" json:"actor_id"` // 0 for system jobs
	Action     string    `gorm:"type:varchar(100);not null;index" json:"action"`
	EntityType string    `gorm:"type:varchar(50);not null" json:"entity_type"`
	EntityID   uint      `gorm:"index" json:"entity_id"`
	Details    string    `gorm:"type:text" json:"details"`
	Timestamp  time.Time `json:"timestamp"`
	Success    bool      `gorm:"default:true" json:"success"`
	IPAddress  string    `gorm:"type:varchar(45)" json:"ip_address"`
}
