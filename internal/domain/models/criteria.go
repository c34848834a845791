package models

// Criterion is a single accessibility check, e.g. "ramp presence"
type Criterion struct {
	BaseModel
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Code        string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Description string `gorm:"type:text" json:"description"`
	MaxRating   int    `gorm:"not null;default:5;check:chk_criteria_max_rating,max_rating > 0" json:"max_rating"`
	Unit        string `gorm:"type:varchar(50)" json:"unit"`
}

func (Criterion) TableName() string {
	return "accessibility_criteria"
}

// AssessmentSet is a named, weighted collection of criteria
type AssessmentSet struct {
	BaseModel
	Name        string `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Version     int    `gorm:"not null;default:1" json:"version"`
	IsActive    bool   `gorm:"not null;default:true" json:"is_active"`

	Criteria []SetCriterion `gorm:"foreignKey:SetID;constraint:OnDelete:CASCADE" json:"criteria,omitempty"`
}

// SetCriterion places a criterion in a set with a weight
type SetCriterion struct {
	SetID       uint `gorm:"primaryKey;autoIncrement:false" json:"set_id"`
	CriterionID uint `gorm:"primaryKey;autoIncrement:false;index" json:"criterion_id"`
	Weight      int  `gorm:"not null;default:1;check:chk_set_criteria_weight,weight > 0" json:"weight"`
	Sequence    int  `gorm:"not null;default:0" json:"sequence"`

	Criterion *Criterion `gorm:"foreignKey:CriterionID;constraint:OnDelete:RESTRICT" json:"criterion,omitempty"`
}

func (SetCriterion) TableName() string {
	return "set_criteria"
}
