package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SecurityAction string

const (
	Signup                 SecurityAction = "signup"
	Activation             SecurityAction = "activation"
	LoginSuccess           SecurityAction = "login_success"
	LoginFailed            SecurityAction = "login_failed"
	Logout                 SecurityAction = "logout"
	PasswordResetRequested SecurityAction = "password_reset_requested"
	Reset                  SecurityAction = "password_reset"
)

type SecurityLog struct {
	ID uuid.UUID `gorm:"type:char(36);primaryKey"`

	UserID *uuid.UUID `gorm:"type:char(36);index"`
	User   *User      `gorm:"constraint:OnDelete:SET NULL"`

	IPAddress *string        `gorm:"type:varchar(45)"`
	Action    SecurityAction `gorm:"type:varchar(32);not null"`

	Metadata datatypes.JSON

	CreatedAt time.Time
}

func (l *SecurityLog) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
