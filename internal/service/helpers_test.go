package service

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"leadtrack/internal/entity"
	"leadtrack/internal/repository"
	"leadtrack/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const strongPassword = "Tr1cky-Lantern-42"

var linkPattern = regexp.MustCompile(`/accounts/(activate|reset-password)/([A-Za-z0-9_-]+)/([0-9a-z]+-[0-9a-f]+-[0-9a-f]+)/`)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingDispatcher struct {
	mu       sync.Mutex
	messages []EmailMessage
	err      error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, message EmailMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.messages = append(d.messages, message)
	return nil
}

func (d *recordingDispatcher) Sent() []EmailMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]EmailMessage(nil), d.messages...)
}

type accountLink struct {
	Kind  string
	UID   string
	Token string
}

// lastLink pulls the newest account link out of the captured mail.
func (d *recordingDispatcher) lastLink(t *testing.T) accountLink {
	t.Helper()
	sent := d.Sent()
	require.NotEmpty(t, sent, "no email dispatched")
	match := linkPattern.FindStringSubmatch(sent[len(sent)-1].Text)
	require.Len(t, match, 4, "no account link in email body")
	return accountLink{Kind: match[1], UID: match[2], Token: match[3]}
}

type testEnv struct {
	db         *gorm.DB
	auth       *AuthService
	admin      *AdminService
	clock      *testClock
	mail       *recordingDispatcher
	logHook    *test.Hook
	users      repository.UserRepository
	tokens     repository.TokenRecordRepository
	sessions   repository.SessionRepository
	jwtManager *utils.JWTManager
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&entity.User{},
		&entity.TokenRecord{},
		&entity.Session{},
		&entity.SecurityLog{},
	))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	clock := &testClock{now: time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC)}
	mail := &recordingDispatcher{}
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	users := repository.NewUserRepository(db)
	tokens := repository.NewTokenRecordRepository(db)
	sessions := repository.NewSessionRepository(db)
	securityLogs := repository.NewSecurityLogRepository(db)
	hasher := BcryptPasswordHasher{Cost: bcrypt.MinCost}
	jwtManager := &utils.JWTManager{Secret: []byte("test-secret"), Issuer: "leadtrack-test"}

	auth := NewAuthService(
		users,
		tokens,
		sessions,
		securityLogs,
		repository.NewTransactor(db),
		mail,
		hasher,
		utils.NewTokenGenerator([]byte("test-secret")),
		JWTSessionIssuer{Manager: jwtManager},
		clock,
		AuthConfig{AppBaseURL: "http://leadtrack.test", SiteName: "LeadTrack"},
		log,
	)
	admin := NewAdminService(users, tokens, sessions, securityLogs, hasher, clock, 0, log)

	return &testEnv{
		db:         db,
		auth:       auth,
		admin:      admin,
		clock:      clock,
		mail:       mail,
		logHook:    hook,
		users:      users,
		tokens:     tokens,
		sessions:   sessions,
		jwtManager: jwtManager,
	}
}

func signupInput(username, email string) SignupInput {
	return SignupInput{
		Username:        username,
		Email:           email,
		FirstName:       "Grace",
		LastName:        "Hopper",
		Password:        strongPassword,
		PasswordConfirm: strongPassword,
	}
}

// signup registers an account and returns it with its activation link.
func (e *testEnv) signup(t *testing.T, username, email string) (*entity.User, accountLink) {
	t.Helper()
	user, err := e.auth.Signup(context.Background(), signupInput(username, email))
	require.NoError(t, err)
	link := e.mail.lastLink(t)
	require.Equal(t, "activate", link.Kind)
	return user, link
}

func (e *testEnv) activeUser(t *testing.T, username, email string) *entity.User {
	t.Helper()
	_, link := e.signup(t, username, email)
	user, err := e.auth.Activate(context.Background(), link.UID, link.Token, nil)
	require.NoError(t, err)
	return user
}

func (e *testEnv) reload(t *testing.T, user *entity.User) *entity.User {
	t.Helper()
	fresh, err := e.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, fresh)
	return fresh
}

func (e *testEnv) tokenRecords(t *testing.T, email string, purpose entity.TokenType) []entity.TokenRecord {
	t.Helper()
	records, err := e.tokens.List(context.Background(), repository.TokenRecordFilter{Email: email, TokenType: purpose}, 0, 0)
	require.NoError(t, err)
	return records
}

func mustUUID(t *testing.T, value string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(value)
	require.NoError(t, err)
	return id
}

var errMailDown = errors.New("mail relay down")
