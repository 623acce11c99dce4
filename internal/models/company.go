package models

const DefaultSector = "General"

type Company struct {
	BaseModel

	Name   string `gorm:"type:varchar(255);uniqueIndex;not null"`
	Sector string `gorm:"type:varchar(255);not null;default:General"`
	Logo   *string

	// Relationships
	Users    []User    `gorm:"foreignKey:CompanyID"`
	Projects []Project `gorm:"foreignKey:CompanyID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
