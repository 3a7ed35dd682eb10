package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"leadtrack/internal/entity"
	"leadtrack/internal/repository"
	"leadtrack/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const dummyPasswordHash = "$2a$10$CwTycUXWue0Thq9StjUM0uJ8yQbWc1x9uxw2sQ2sXUNx5x9xJ9F2S"

type AuthService struct {
	users        repository.UserRepository
	tokens       repository.TokenRecordRepository
	sessions     repository.SessionRepository
	securityLogs repository.SecurityLogRepository
	tx           repository.Transactor

	dispatcher    EmailDispatcher
	passwordHash  PasswordHasher
	tokenGen      AccountTokenGenerator
	sessionTokens SessionTokenIssuer
	clock         Clock
	config        AuthConfig
	logger        logrus.FieldLogger
}

func NewAuthService(
	users repository.UserRepository,
	tokens repository.TokenRecordRepository,
	sessions repository.SessionRepository,
	securityLogs repository.SecurityLogRepository,
	tx repository.Transactor,
	dispatcher EmailDispatcher,
	passwordHash PasswordHasher,
	tokenGen AccountTokenGenerator,
	sessionTokens SessionTokenIssuer,
	clock Clock,
	config AuthConfig,
	logger logrus.FieldLogger,
) *AuthService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AuthService{
		users:         users,
		tokens:        tokens,
		sessions:      sessions,
		securityLogs:  securityLogs,
		tx:            tx,
		dispatcher:    dispatcher,
		passwordHash:  passwordHash,
		tokenGen:      tokenGen,
		sessionTokens: sessionTokens,
		clock:         clock,
		config:        config,
		logger:        logger,
	}
}

// Signup creates an inactive account and mails its activation link. The
// user row and its activation record commit together.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*entity.User, error) {
	username := strings.TrimSpace(input.Username)
	email := utils.NormalizeEmail(input.Email)
	if username == "" || email == "" || input.Password == "" {
		return nil, ErrInvalidInput
	}
	if !utils.ValidUsername(username) {
		return nil, ErrInvalidUsername
	}
	if input.Password != input.PasswordConfirm {
		return nil, ErrPasswordMismatch
	}

	role := input.Role
	if role == "" {
		role = entity.DefaultSignupRole
	}
	if !role.Valid() || role == entity.UserRoleAdmin {
		return nil, ErrInvalidRole
	}

	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	if err := utils.ValidatePassword(input.Password, passwordAttributes(username, email, firstName, lastName)...); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWeakPassword, err)
	}

	if err := checkDuplicates(ctx, s.users, email, username); err != nil {
		return nil, err
	}

	hash, err := s.passwordHash.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Email:        email,
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: hash,
		Role:         role,
	}
	var token string
	err = s.tx.WithTransaction(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		if err := repos.Users.Create(ctx, user); err != nil {
			return err
		}
		var err error
		token, _, err = s.createTokenRecord(ctx, repos.Tokens, user, entity.TokenTypeActivation)
		return err
	})
	if err != nil {
		return nil, resolveDuplicate(ctx, s.users, user, err)
	}
	s.sendTokenEmail(ctx, user, entity.TokenTypeActivation, token)

	s.logSecurity(ctx, &user.ID, input.IPAddress, entity.Signup, map[string]any{"role": user.Role})
	s.logger.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("account created")
	return user, nil
}

// Authenticate checks credentials. Inactive accounts are rejected before
// the password is compared.
func (s *AuthService) Authenticate(ctx context.Context, email string, password string) (*entity.User, error) {
	email = utils.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = s.passwordHash.Verify(dummyPasswordHash, password)
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountNotActivated
	}
	if !s.passwordHash.Verify(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.Authenticate(ctx, input.Email, input.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrAccountNotActivated) {
			s.logSecurity(ctx, nil, input.IPAddress, entity.LoginFailed, map[string]any{
				"email":  utils.NormalizeEmail(input.Email),
				"reason": err.Error(),
			})
		}
		return nil, err
	}

	now := s.now()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLogin = &now

	nonce, err := utils.GenerateRandomToken(32)
	if err != nil {
		return nil, err
	}
	session := &entity.Session{
		UserID:    user.ID,
		TokenHash: utils.HashToken(nonce),
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
		ExpiresAt: now.Add(s.sessionTTL()),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	token, expiresIn, err := s.sessionTokens.IssueSessionToken(*user, session.ID, nonce)
	if err != nil {
		return nil, err
	}

	s.logSecurity(ctx, &user.ID, input.IPAddress, entity.LoginSuccess, map[string]any{"session_id": session.ID})
	return &LoginResult{
		User:         user,
		SessionToken: token,
		ExpiresIn:    expiresIn,
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID uuid.UUID, userID uuid.UUID, ipAddress *string) error {
	if err := s.sessions.Revoke(ctx, sessionID, s.now()); err != nil {
		return err
	}
	s.logSecurity(ctx, &userID, ipAddress, entity.Logout, map[string]any{"session_id": sessionID})
	return nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// fingerprint is the user state an account token is bound to. Changing the
// password or logging in invalidates tokens minted earlier.
func fingerprint(user *entity.User) string {
	lastLogin := ""
	if user.LastLogin != nil {
		lastLogin = strconv.FormatInt(user.LastLogin.Unix(), 10)
	}
	return strings.Join([]string{user.ID.String(), user.PasswordHash, lastLogin, user.Email}, "|")
}

func passwordAttributes(username, email, firstName, lastName string) []string {
	attributes := []string{username, email, firstName, lastName}
	if at := strings.LastIndex(email, "@"); at > 0 {
		attributes = append(attributes, email[:at])
	}
	return attributes
}

func checkDuplicates(ctx context.Context, users repository.UserRepository, email, username string) error {
	var errs []error
	exists, err := users.EmailExists(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		errs = append(errs, ErrDuplicateEmail)
	}
	exists, err = users.UsernameExists(ctx, username)
	if err != nil {
		return err
	}
	if exists {
		errs = append(errs, ErrDuplicateUsername)
	}
	return errors.Join(errs...)
}

func createUser(ctx context.Context, users repository.UserRepository, user *entity.User) error {
	return resolveDuplicate(ctx, users, user, users.Create(ctx, user))
}

// resolveDuplicate maps a unique violation lost to a concurrent insert back
// to the field that collided. users must not be bound to the failed
// transaction.
func resolveDuplicate(ctx context.Context, users repository.UserRepository, user *entity.User, err error) error {
	if err == nil || !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	if dupErr := checkDuplicates(ctx, users, user.Email, user.Username); dupErr != nil {
		return dupErr
	}
	return ErrDuplicateEmail
}

func (s *AuthService) logSecurity(
	ctx context.Context,
	userID *uuid.UUID,
	ipAddress *string,
	action entity.SecurityAction,
	metadata map[string]any,
) {
	if err := writeSecurityLog(ctx, s.securityLogs, userID, ipAddress, action, metadata); err != nil {
		s.logger.WithError(err).WithField("action", action).Warn("security log write failed")
	}
}

func writeSecurityLog(
	ctx context.Context,
	repo repository.SecurityLogRepository,
	userID *uuid.UUID,
	ipAddress *string,
	action entity.SecurityAction,
	metadata map[string]any,
) error {
	if repo == nil {
		return nil
	}
	var payload datatypes.JSON
	if metadata != nil {
		bytes, err := json.Marshal(metadata)
		if err != nil {
			return err
		}
		payload = datatypes.JSON(bytes)
	}

	log := &entity.SecurityLog{
		UserID:    userID,
		IPAddress: ipAddress,
		Action:    action,
		Metadata:  payload,
	}
	return repo.Log(ctx, log)
}

func (s *AuthService) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock.Now()
}

func (s *AuthService) sessionTTL() time.Duration {
	if s.config.SessionTTL > 0 {
		return s.config.SessionTTL
	}
	return 6 * time.Hour
}
