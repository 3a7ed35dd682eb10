package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"leadtrack/internal/entity"
	"leadtrack/internal/utils"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type stubSessions struct {
	session *entity.Session
}

func (s stubSessions) FindActive(_ context.Context, sessionID uuid.UUID, _ time.Time) (*entity.Session, error) {
	if s.session == nil || s.session.ID != sessionID {
		return nil, nil
	}
	return s.session, nil
}

func okHandler(c echo.Context) error {
	role, _ := RoleFromContext(c)
	return c.String(http.StatusOK, role)
}

func serve(t *testing.T, handler echo.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := handler(c)
	if err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestRequireAuth(t *testing.T) {
	manager := &utils.JWTManager{Secret: []byte("k")}
	userID, sessionID := uuid.New(), uuid.New()
	token, _, err := manager.IssueSessionToken(userID.String(), "manager", sessionID.String(), "nonce")
	require.NoError(t, err)

	session := &entity.Session{ID: sessionID, UserID: userID, TokenHash: utils.HashToken("nonce")}
	auth := AuthMiddleware{JWT: manager, Sessions: stubSessions{session: session}}

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: DefaultSessionCookie, Value: token})
		rec := serve(t, auth.RequireAuth(okHandler), req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "manager", rec.Body.String())
	})

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := serve(t, auth.RequireAuth(okHandler), req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing", func(t *testing.T) {
		rec := serve(t, auth.RequireAuth(okHandler), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("revoked session", func(t *testing.T) {
		gone := AuthMiddleware{JWT: manager, Sessions: stubSessions{}}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := serve(t, gone.RequireAuth(okHandler), req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("nonce mismatch", func(t *testing.T) {
		other := *session
		other.TokenHash = utils.HashToken("another")
		mismatched := AuthMiddleware{JWT: manager, Sessions: stubSessions{session: &other}}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := serve(t, mismatched.RequireAuth(okHandler), req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name string
		role string
		want int
	}{
		{name: "allowed", role: "admin", want: http.StatusOK},
		{name: "second allowed", role: "manager", want: http.StatusOK},
		{name: "denied", role: "sales", want: http.StatusForbidden},
		{name: "anonymous", role: "", want: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := func(c echo.Context) error {
				if tt.role != "" {
					SetAuthContext(c, uuid.New(), tt.role, uuid.New())
				}
				return RequireRole("admin", "manager")(okHandler)(c)
			}
			rec := serve(t, handler, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestRateLimit(t *testing.T) {
	limited := RateLimit(NewMemoryLimiter(rate.Limit(0.001), 2, time.Minute), "test", nil)(okHandler)

	codes := make([]int, 0, 3)
	for n := 0; n < 3; n++ {
		codes = append(codes, serve(t, limited, httptest.NewRequest(http.MethodPost, "/", nil)).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	open := RateLimit(failingLimiter{}, "test", nil)(okHandler)
	assert.Equal(t, http.StatusOK, serve(t, open, httptest.NewRequest(http.MethodPost, "/", nil)).Code)
}
