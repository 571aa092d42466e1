package models

import "time"

type User struct {
	BaseModel
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null" json:"-"`
	IsVerified   bool   `gorm:"default:false"`

	Profile *UserProfile `gorm:"foreignKey:UserID"`
}

type UserProfile struct {
	BaseModel
	UserID     string `gorm:"type:uuid;uniqueIndex;not null"`
	FirstName  string `gorm:"not null"`
	LastName   string `gorm:"not null"`
	MiddleName string
	Image      *string
	Phone      string
	Gender     string
	Birthday   *time.Time
	Slug       string `gorm:"uniqueIndex;not null"`

	SubscriptionTier      SubscriptionTier `gorm:"type:varchar(20);not null;default:'None'"`
	SubscriptionExpiresAt *time.Time
	TrialUsed             bool `gorm:"default:false"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

// FullName - "Фамилия Имя Отчество" без пустых частей
func (p *UserProfile) FullName() string {
	name := p.LastName + " " + p.FirstName
	if p.MiddleName != "" {
		name += " " + p.MiddleName
	}
	return name
}

// ConfirmationCode - один код на профиль, валиден ConfirmationCodeTTL
type ConfirmationCode struct {
	BaseModel
	ProfileID string `gorm:"type:uuid;uniqueIndex;not null"`
	Code      string `gorm:"size:4;not null"`
}

const ConfirmationCodeTTL = 300 * time.Second

// RevokedToken - deny-set отозванных refresh токенов (по jti)
type RevokedToken struct {
	BaseModel
	JTI       string    `gorm:"uniqueIndex;not null"`
	UserID    string    `gorm:"type:uuid;index;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
}
