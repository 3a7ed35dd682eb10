package service

import (
	"time"

	"leadtrack/internal/entity"
)

type SignupInput struct {
	Username        string
	Email           string
	FirstName       string
	LastName        string
	Role            entity.UserRole
	Password        string
	PasswordConfirm string
	IPAddress       *string
}

type SuperuserInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
}

type LoginInput struct {
	Email     string
	Password  string
	IPAddress *string
	UserAgent *string
}

type LoginResult struct {
	User         *entity.User
	SessionToken string
	ExpiresIn    time.Duration
}

type ResetPasswordInput struct {
	UIDB64          string
	Token           string
	Password        string
	PasswordConfirm string
	IPAddress       *string
}

// LinkCheck is the outcome of validating an account link without
// consuming it.
type LinkCheck struct {
	User      *entity.User
	ExpiresAt time.Time
}
