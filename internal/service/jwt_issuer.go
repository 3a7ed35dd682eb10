package service

import (
	"leadtrack/internal/entity"
	"leadtrack/internal/utils"
	"time"

	"github.com/google/uuid"
)

type JWTSessionIssuer struct {
	Manager *utils.JWTManager
}

func (j JWTSessionIssuer) IssueSessionToken(user entity.User, sessionID uuid.UUID, nonce string) (string, time.Duration, error) {
	if j.Manager == nil {
		return "", 0, ErrInvalidSession
	}
	return j.Manager.IssueSessionToken(user.ID.String(), string(user.Role), sessionID.String(), nonce)
}
