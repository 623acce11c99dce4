package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Project struct {
	BaseModel

	UserID      uint   `gorm:"not null;index"` // creator, the only user allowed to change it
	CompanyID   uint   `gorm:"not null;index"` // every member of this company can read it
	Name        string `gorm:"not null"`
	Description *string
	Budget      decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	StartDate   datatypes.Date  `gorm:"not null"`
	EndDate     *datatypes.Date
	Status      string `gorm:"not null"`

	DeadlineRemindedAt *time.Time // cleared whenever EndDate changes

	// Relationships
	User             *User            `gorm:"foreignKey:UserID"`
	Company          *Company         `gorm:"foreignKey:CompanyID"`
	BudgetCategories []BudgetCategory `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
