package service

import (
	"context"
	"time"

	"leadtrack/internal/entity"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthConfig struct {
	AppBaseURL string
	SiteName   string
	SessionTTL time.Duration
}

// EmailDispatcher hands a rendered message to a delivery path. Dispatch
// errors never undo the state change that produced the message.
type EmailDispatcher interface {
	Dispatch(ctx context.Context, message EmailMessage) error
}

// Mailer delivers a message synchronously.
type Mailer interface {
	Send(ctx context.Context, message EmailMessage) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash string, password string) bool
}

type AccountTokenGenerator interface {
	MakeToken(fingerprint string, now time.Time) (string, error)
	CheckToken(fingerprint string, token string, now time.Time) bool
}

type SessionTokenIssuer interface {
	IssueSessionToken(user entity.User, sessionID uuid.UUID, nonce string) (string, time.Duration, error)
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now().UTC()
}

type BcryptPasswordHasher struct {
	Cost int
}

func (h BcryptPasswordHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func (h BcryptPasswordHasher) Verify(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
