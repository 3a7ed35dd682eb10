package utils

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidUID = errors.New("invalid uid")

// EncodeUID renders a user id as URL-safe base64 without padding, for use
// as the uidb64 segment of account links.
func EncodeUID(id uuid.UUID) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id.String()))
}

func DecodeUID(encoded string) (uuid.UUID, error) {
	encoded = strings.TrimRight(strings.TrimSpace(encoded), "=")
	if encoded == "" {
		return uuid.Nil, ErrInvalidUID
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return uuid.Nil, ErrInvalidUID
	}
	id, err := uuid.Parse(string(raw))
	if err != nil {
		return uuid.Nil, ErrInvalidUID
	}
	return id, nil
}
