package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TokenType string

const (
	TokenTypeActivation    TokenType = "activation"
	TokenTypeResetPassword TokenType = "reset_password"
)

// TokenTTL is the validity window of every token record, counted from
// CreatedAt.
const TokenTTL = time.Hour

func (t TokenType) Valid() bool {
	return t == TokenTypeActivation || t == TokenTypeResetPassword
}

type TokenRecord struct {
	ID     uuid.UUID `gorm:"type:char(36);primaryKey"`
	UserID uuid.UUID `gorm:"type:char(36);not null;index"`
	User   *User     `gorm:"constraint:OnDelete:CASCADE"`

	TokenType TokenType `gorm:"type:varchar(24);not null;default:'activation';index"`
	Token     string    `gorm:"type:varchar(128);not null;index"`
	IsUsed    bool      `gorm:"not null;default:false"`

	CreatedAt time.Time
}

func (t *TokenRecord) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t *TokenRecord) ExpiresAt() time.Time {
	return t.CreatedAt.Add(TokenTTL)
}

func (t *TokenRecord) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt())
}
