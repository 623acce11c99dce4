package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BudgetCategory struct {
	BaseModel

	ProjectID uint   `gorm:"not null;index"`
	Title     string `gorm:"not null"`

	// Relationships
	Subtitles []BudgetSubtitle `gorm:"foreignKey:BudgetCategoryID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

type BudgetSubtitle struct {
	BaseModel

	BudgetCategoryID uint            `gorm:"not null;index"`
	Name             string          `gorm:"not null"`
	Amount           decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Spent            decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"` // last reported total, not a sum of records
	SpentDate        *time.Time

	// Relationships
	SpendingHistory []SpendingRecord `gorm:"foreignKey:BudgetSubtitleID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

// SpendingRecord is append-only.
type SpendingRecord struct {
	BaseModel

	BudgetSubtitleID uint            `gorm:"not null;index"`
	Amount           decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Reason           *string
	SpentDate        time.Time `gorm:"not null;index"`
}
