// Package models holds the GORM models of the platform.
package models

import "time"

// BaseModel is embedded by every table with a surrogate key
type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PaginationQuery is bound from ?page=&page_size=&desc=
type PaginationQuery struct {
	Page     int  `form:"page" json:"page"`
	PageSize int  `form:"page_size" json:"page_size"`
	Desc     bool `form:"desc" json:"desc"`
}

// Normalize clamps page and page size into their valid ranges
func (p *PaginationQuery) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
}

// Offset returns the row offset of the current page
func (p PaginationQuery) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// All lists every model in migration order
func All() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Region{},
		&District{},
		&City{},
		&Location{},
		&LocationStats{},
		&LocationImage{},
		&LocationInspector{},
		&Favourite{},
		&Review{},
		&Criterion{},
		&AssessmentSet{},
		&SetCriterion{},
		&Assessment{},
		&AssessmentDetail{},
		&AssessmentImage{},
		&AssessmentComment{},
		&Notification{},
		&AuditLog{},
	}
}
