package models

import "time"

// LocationStatus is the lifecycle state of a location
type LocationStatus string

const (
	LocationActive            LocationStatus = "active"
	LocationInactive          LocationStatus = "inactive"
	LocationUnderConstruction LocationStatus = "under_construction"
	LocationClosed            LocationStatus = "closed"
	LocationArchived          LocationStatus = "archived"
)

// Valid reports whether s is a known location status
func (s LocationStatus) Valid() bool {
	switch s {
	case LocationActive, LocationInactive, LocationUnderConstruction, LocationClosed, LocationArchived:
		return true
	}
	return false
}

// Location is a physical place under assessment
type Location struct {
	BaseModel
	Name        string         `gorm:"type:varchar(255);not null;index" json:"name"`
	Address     string         `gorm:"type:varchar(500);not null" json:"address"`
	Latitude    float64        `gorm:"not null;check:chk_locations_latitude,latitude >= -90 AND latitude <= 90" json:"latitude"`
	Longitude   float64        `gorm:"not null;check:chk_locations_longitude,longitude >= -180 AND longitude <= 180" json:"longitude"`
	CategoryID  uint           `gorm:"not null;index" json:"category_id"`
	RegionID    uint           `gorm:"not null;index" json:"region_id"`
	DistrictID  uint           `gorm:"not null;index" json:"district_id"`
	CityID      *uint          `gorm:"index" json:"city_id"`
	Status      LocationStatus `gorm:"type:varchar(30);not null;default:'active';index;check:chk_locations_status,status IN ('active','inactive','under_construction','closed','archived')" json:"status"`
	Description string         `gorm:"type:text" json:"description"`
	ContactInfo string         `gorm:"type:varchar(255)" json:"contact_info"`
	WebsiteURL  string         `gorm:"type:varchar(500)" json:"website_url"`
	CreatedBy   uint           `gorm:"not null;index" json:"created_by"`

	Category *Category      `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Region   *Region        `gorm:"foreignKey:RegionID" json:"region,omitempty"`
	District *District      `gorm:"foreignKey:DistrictID" json:"district,omitempty"`
	City     *City          `gorm:"foreignKey:CityID" json:"city,omitempty"`
	Creator  *User          `gorm:"foreignKey:CreatedBy" json:"-"`
	Stats    *LocationStats `gorm:"foreignKey:LocationID" json:"stats,omitempty"`
}

// LocationStats is the 1:1 aggregate row of a location
type LocationStats struct {
	LocationID         uint       `gorm:"primaryKey;autoIncrement:false" json:"location_id"`
	AccessibilityScore float64    `gorm:"not null;default:0" json:"accessibility_score"`
	AssessmentCount    int        `gorm:"not null;default:0" json:"assessment_count"`
	LastAssessmentAt   *time.Time `json:"last_assessment_at,omitempty"`
	AverageRating      float64    `gorm:"not null;default:0" json:"average_rating"`
	ReviewCount        int        `gorm:"not null;default:0" json:"review_count"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// LocationImage is a picture of a location kept in object storage
type LocationImage struct {
	BaseModel
	LocationID  uint   `gorm:"not null;index" json:"location_id"`
	ObjectKey   string `gorm:"type:varchar(500);not null" json:"object_key"`
	URL         string `gorm:"type:varchar(1000);not null" json:"url"`
	Description string `gorm:"type:varchar(500)" json:"description"`
	UploadedBy  uint   `gorm:"not null" json:"uploaded_by"`

	Location *Location `gorm:"foreignKey:LocationID;constraint:OnDelete:CASCADE" json:"-"`
}

// LocationInspector grants an admin inspector rights on one location
type LocationInspector struct {
	LocationID uint      `gorm:"primaryKey;autoIncrement:false" json:"location_id"`
	UserID     uint      `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	AssignedBy uint      `gorm:"not null" json:"assigned_by"`
	AssignedAt time.Time `gorm:"not null" json:"assigned_at"`

	Location *Location `gorm:"foreignKey:LocationID;constraint:OnDelete:CASCADE" json:"location,omitempty"`
	User     *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

// Favourite marks a location as favourite for a user
type Favourite struct {
	UserID     uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	LocationID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"location_id"`
	CreatedAt  time.Time `json:"created_at"`

	Location *Location `gorm:"foreignKey:LocationID;constraint:OnDelete:CASCADE" json:"location,omitempty"`
}

// Review is a user's star rating of a location, one per user
type Review struct {
	BaseModel
	LocationID uint   `gorm:"not null;uniqueIndex:idx_review_user_location" json:"location_id"`
	UserID     uint   `gorm:"not null;uniqueIndex:idx_review_user_location" json:"user_id"`
	Rating     int    `gorm:"not null;check:chk_reviews_rating,rating >= 1 AND rating <= 5" json:"rating"`
	Comment    string `gorm:"type:text" json:"comment"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
