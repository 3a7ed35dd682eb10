package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleManager UserRole = "manager"
	UserRoleSales   UserRole = "sales"
	UserRoleSupport UserRole = "support"
)

// DefaultSignupRole is assigned when a self-signup does not pick a role.
const DefaultSignupRole = UserRoleSales

var userRoles = []UserRole{UserRoleAdmin, UserRoleManager, UserRoleSales, UserRoleSupport}

func UserRoles() []UserRole {
	roles := make([]UserRole, len(userRoles))
	copy(roles, userRoles)
	return roles
}

func (r UserRole) Valid() bool {
	for _, role := range userRoles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	ID           uuid.UUID `gorm:"type:char(36);primaryKey"`
	Email        string    `gorm:"type:varchar(254);uniqueIndex;not null"`
	Username     string    `gorm:"type:varchar(24);uniqueIndex;not null"`
	FirstName    string    `gorm:"type:varchar(30)"`
	LastName     string    `gorm:"type:varchar(30)"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	Role         UserRole  `gorm:"type:varchar(24);default:'sales';not null"`

	IsActive    bool `gorm:"not null;default:false"`
	IsStaff     bool `gorm:"not null;default:false"`
	IsSuperuser bool `gorm:"not null;default:false"`

	LastLogin *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
