package models

type User struct {
	BaseModel

	Email        string  `gorm:"type:varchar(255);uniqueIndex;not null"`
	Username     string  `gorm:"type:varchar(255);index;not null"`
	PasswordHash *string // nil for accounts that only sign in through OAuth
	Provider     *string `gorm:"type:varchar(64);uniqueIndex:idx_user_provider"`
	ProviderID   *string `gorm:"type:varchar(255);uniqueIndex:idx_user_provider"`
	CompanyID    *uint   `gorm:"index"`
	Title        *string

	// Relationships
	Company       *Company       `gorm:"foreignKey:CompanyID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
	Projects      []Project      `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Notifications []Notification `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

// HasPassword reports whether the user can sign in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
