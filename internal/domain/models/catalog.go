package models

// Category groups locations, e.g. restaurants or parks
type Category struct {
	BaseModel
	Name        string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Icon        string `gorm:"type:varchar(100)" json:"icon"`
}

// Region is the top level of the geographic hierarchy
type Region struct {
	BaseModel
	Name string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
}

// District belongs to a region
type District struct {
	BaseModel
	Name     string  `gorm:"type:varchar(100);not null" json:"name"`
	RegionID uint    `gorm:"not null;index" json:"region_id"`
	Region   *Region `gorm:"foreignKey:RegionID;constraint:OnDelete:CASCADE" json:"region,omitempty"`
}

// City belongs to a district
type City struct {
	BaseModel
	Name       string    `gorm:"type:varchar(100);not null" json:"name"`
	DistrictID uint      `gorm:"not null;index" json:"district_id"`
	District   *District `gorm:"foreignKey:DistrictID;constraint:OnDelete:CASCADE" json:"district,omitempty"`
}

// DefaultCategories are seeded on first start
var DefaultCategories = []Category{
	{Name: "Restaurant", Description: "Restaurants and cafes", Icon: "restaurant"},
	{Name: "Public building", Description: "Government and municipal buildings", Icon: "account_balance"},
	{Name: "Park", Description: "Parks and public spaces", Icon: "park"},
	{Name: "Healthcare", Description: "Hospitals, clinics and pharmacies", Icon: "local_hospital"},
	{Name: "Education", Description: "Schools and universities", Icon: "school"},
	{Name: "Transport", Description: "Stations and stops", Icon: "directions_bus"},
	{Name: "Shopping", Description: "Shops and malls", Icon: "shopping_cart"},
}
