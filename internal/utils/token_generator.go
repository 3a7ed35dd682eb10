package utils

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

const (
	tokenKeySalt  = "leadtrack.accounts.TokenGenerator"
	tokenMACChars = 40
	tokenSaltSize = 8
)

var tokenEpoch = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// TokenGenerator signs account tokens with an HMAC over a fingerprint of
// mutable user state, a random salt and a minute-granular timestamp.
// Any change to the fingerprint invalidates every token minted before it.
type TokenGenerator struct {
	Secret  []byte
	Timeout time.Duration
}

func NewTokenGenerator(secret []byte) *TokenGenerator {
	return &TokenGenerator{Secret: secret, Timeout: 72 * time.Hour}
}

// MakeToken returns "<minutes base36>-<salt hex>-<mac hex>".
func (g *TokenGenerator) MakeToken(fingerprint string, now time.Time) (string, error) {
	salt := make([]byte, tokenSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	ts := strconv.FormatInt(minutesSinceEpoch(now), 36)
	saltHex := hex.EncodeToString(salt)
	return ts + "-" + saltHex + "-" + g.mac(fingerprint, ts, saltHex), nil
}

func (g *TokenGenerator) CheckToken(fingerprint string, token string, now time.Time) bool {
	if len(g.Secret) == 0 || token == "" {
		return false
	}
	parts := strings.Split(token, "-")
	if len(parts) != 3 {
		return false
	}
	ts, saltHex, mac := parts[0], parts[1], parts[2]
	minutes, err := strconv.ParseInt(ts, 36, 64)
	if err != nil {
		return false
	}
	if !hmac.Equal([]byte(g.mac(fingerprint, ts, saltHex)), []byte(mac)) {
		return false
	}
	age := minutesSinceEpoch(now) - minutes
	if age < 0 {
		return false
	}
	return time.Duration(age)*time.Minute <= g.timeout()
}

func (g *TokenGenerator) mac(fingerprint, ts, salt string) string {
	key := sha256.Sum256(append([]byte(tokenKeySalt), g.Secret...))
	h := hmac.New(sha256.New, key[:])
	h.Write([]byte(fingerprint))
	h.Write([]byte{0})
	h.Write([]byte(ts))
	h.Write([]byte{0})
	h.Write([]byte(salt))
	return hex.EncodeToString(h.Sum(nil))[:tokenMACChars]
}

func (g *TokenGenerator) timeout() time.Duration {
	if g.Timeout > 0 {
		return g.Timeout
	}
	return 72 * time.Hour
}

func minutesSinceEpoch(t time.Time) int64 {
	return int64(t.Sub(tokenEpoch) / time.Minute)
}
