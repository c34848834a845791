package models

import (
	"time"

	"gorm.io/gorm"

	"accessible-env-backend/internal/domain/rules"
	"accessible-env-backend/internal/error/apperr"
)

// ErrScoreOutOfRange is returned by BeforeSave when total is outside [0, max]
var ErrScoreOutOfRange = apperr.Integrity("total score must be between 0 and the maximum possible score", nil)

// Assessment is one evaluation of a location against an assessment set
type Assessment struct {
	BaseModel
	LocationID       uint                   `gorm:"not null;index" json:"location_id"`
	SetID            uint                   `gorm:"not null;index" json:"set_id"`
	AssessorID       uint                   `gorm:"not null;index" json:"assessor_id"`
	Status           rules.AssessmentStatus `gorm:"type:varchar(20);not null;default:'draft';index;check:chk_assessments_status,status IN ('draft','pending','in_progress','submitted','verified','rejected')" json:"status"`
	TotalScore       float64                `gorm:"not null;default:0;check:chk_assessments_total,total_score >= 0" json:"total_score"`
	MaxPossibleScore float64                `gorm:"not null;default:0;check:chk_assessments_bounds,max_possible_score >= total_score" json:"max_possible_score"`
	PercentageScore  float64                `gorm:"not null;default:0" json:"percentage_score"`
	Notes            string                 `gorm:"type:text" json:"notes"`
	SubmittedAt      *time.Time             `json:"submitted_at,omitempty"`
	VerifierID       *uint                  `gorm:"index" json:"verifier_id,omitempty"`
	VerifiedAt       *time.Time             `json:"verified_at,omitempty"`
	VerifierComment  string                 `gorm:"type:text" json:"verifier_comment,omitempty"`
	RejectionReason  string                 `gorm:"type:text" json:"rejection_reason,omitempty"`
	ReassessedFromID *uint                  `gorm:"index" json:"reassessed_from_id,omitempty"`

	Location *Location          `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	Set      *AssessmentSet     `gorm:"foreignKey:SetID" json:"set,omitempty"`
	Assessor *User              `gorm:"foreignKey:AssessorID" json:"assessor,omitempty"`
	Details  []AssessmentDetail `gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE" json:"details,omitempty"`
}

func (Assessment) TableName() string {
	return "location_set_assessments"
}

// BeforeSave keeps the percentage derived from total and max, and rejects
// out-of-range totals before they reach the database.
func (a *Assessment) BeforeSave(tx *gorm.DB) error {
	if a.TotalScore < 0 || a.TotalScore > a.MaxPossibleScore {
		return ErrScoreOutOfRange
	}
	a.PercentageScore = rules.Percentage(a.TotalScore, a.MaxPossibleScore)
	return nil
}

// ApplyScore copies a computed score onto the assessment
func (a *Assessment) ApplyScore(s rules.Score) {
	a.TotalScore = s.Total
	a.MaxPossibleScore = s.Max
	a.PercentageScore = s.Percentage
}

// AssessmentDetail is the rating of one criterion within an assessment
type AssessmentDetail struct {
	BaseModel
	AssessmentID uint   `gorm:"not null;uniqueIndex:idx_detail_assessment_criterion" json:"assessment_id"`
	CriterionID  uint   `gorm:"not null;uniqueIndex:idx_detail_assessment_criterion" json:"criterion_id"`
	Rating       int    `gorm:"not null;check:chk_assessment_details_rating,rating >= 0" json:"rating"`
	Condition    string `gorm:"column:condition_state;type:varchar(50)" json:"condition"`
	Comment      string `gorm:"type:text" json:"comment"`
	AdminComment string `gorm:"type:text" json:"admin_comment,omitempty"`
	IsReviewed   bool   `gorm:"not null;default:false" json:"is_reviewed"`

	Criterion *Criterion `gorm:"foreignKey:CriterionID" json:"criterion,omitempty"`
}

// AssessmentImage is a photo attached to an assessment or one of its details
type AssessmentImage struct {
	BaseModel
	AssessmentID uint   `gorm:"not null;index" json:"assessment_id"`
	DetailID     *uint  `gorm:"index" json:"detail_id,omitempty"`
	ObjectKey    string `gorm:"type:varchar(500);not null" json:"object_key"`
	URL          string `gorm:"type:varchar(1000);not null" json:"url"`
	Description  string `gorm:"type:varchar(500)" json:"description"`
	UploadedBy   uint   `gorm:"not null" json:"uploaded_by"`

	Assessment *Assessment `gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE" json:"-"`
}

// AssessmentComment is a discussion entry on an assessment
type AssessmentComment struct {
	BaseModel
	AssessmentID uint   `gorm:"not null;index" json:"assessment_id"`
	UserID       uint   `gorm:"not null;index" json:"user_id"`
	Body         string `gorm:"type:text;not null" json:"body"`
	IsEdited     bool   `gorm:"not null;default:false" json:"is_edited"`

	User       *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Assessment *Assessment `gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE" json:"-"`
}
