package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"leadtrack/internal/entity"
	"leadtrack/internal/repository"
	"leadtrack/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// AdminService backs the staff views over accounts and token records.
type AdminService struct {
	users        repository.UserRepository
	tokens       repository.TokenRecordRepository
	sessions     repository.SessionRepository
	securityLogs repository.SecurityLogRepository
	passwordHash PasswordHasher
	clock        Clock
	pageSize     int
	logger       logrus.FieldLogger
}

func NewAdminService(
	users repository.UserRepository,
	tokens repository.TokenRecordRepository,
	sessions repository.SessionRepository,
	securityLogs repository.SecurityLogRepository,
	passwordHash PasswordHasher,
	clock Clock,
	pageSize int,
	logger logrus.FieldLogger,
) *AdminService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AdminService{
		users:        users,
		tokens:       tokens,
		sessions:     sessions,
		securityLogs: securityLogs,
		passwordHash: passwordHash,
		clock:        clock,
		pageSize:     pageSize,
		logger:       logger,
	}
}

// CreateSuperuser creates an active admin account with staff and
// superuser flags set.
func (s *AdminService) CreateSuperuser(ctx context.Context, input SuperuserInput) (*entity.User, error) {
	username := strings.TrimSpace(input.Username)
	email := utils.NormalizeEmail(input.Email)
	if username == "" || email == "" || input.Password == "" {
		return nil, ErrInvalidInput
	}
	if !utils.ValidUsername(username) {
		return nil, ErrInvalidUsername
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
		Role:         entity.UserRoleAdmin,
		IsActive:     true,
		IsStaff:      true,
		IsSuperuser:  true,
	}
	if err := createUser(ctx, s.users, user); err != nil {
		return nil, err
	}
	s.logger.WithField("user_id", user.ID).Info("superuser created")
	return user, nil
}

func (s *AdminService) ListUsers(ctx context.Context, filter repository.UserFilter, limit, offset int) ([]entity.User, error) {
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, ErrInvalidRole
	}
	filter.Search = strings.TrimSpace(filter.Search)
	return s.users.List(ctx, filter, s.clampLimit(limit), max(offset, 0))
}

func (s *AdminService) ListTokenRecords(ctx context.Context, filter repository.TokenRecordFilter, limit, offset int) ([]entity.TokenRecord, error) {
	if filter.TokenType != "" && !filter.TokenType.Valid() {
		return nil, ErrInvalidInput
	}
	if filter.Email != "" {
		filter.Email = utils.NormalizeEmail(filter.Email)
	}
	return s.tokens.List(ctx, filter, s.clampLimit(limit), max(offset, 0))
}

// SetUserActive toggles is_active. Deactivating ends the user's sessions.
func (s *AdminService) SetUserActive(ctx context.Context, userID uuid.UUID, active bool) (*entity.User, error) {
	if err := s.users.SetActive(ctx, userID, active); err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !active {
		if err := s.sessions.RevokeAllByUser(ctx, userID, s.now()); err != nil {
			return nil, err
		}
	}
	s.logger.WithFields(logrus.Fields{"user_id": userID, "active": active}).Info("user activity flag changed")
	return s.find(ctx, userID)
}

// SetUserRole changes the role. Session tokens carry the role they were
// issued with, so a change ends every session of the user.
func (s *AdminService) SetUserRole(ctx context.Context, userID uuid.UUID, role entity.UserRole) (*entity.User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	user, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		return user, nil
	}
	if err := s.users.SetRole(ctx, userID, role); err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if err := s.sessions.RevokeAllByUser(ctx, userID, s.now()); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"role":     role,
		"previous": user.Role,
	}).Info("user role changed")
	return s.find(ctx, userID)
}

// UserActivity returns the newest security log rows of one user.
func (s *AdminService) UserActivity(ctx context.Context, userID uuid.UUID, limit int) ([]entity.SecurityLog, error) {
	if _, err := s.find(ctx, userID); err != nil {
		return nil, err
	}
	return s.securityLogs.ListByUser(ctx, userID, s.clampLimit(limit))
}

func (s *AdminService) find(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *AdminService) clampLimit(limit int) int {
	size := s.pageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if limit <= 0 {
		return size
	}
	return min(limit, maxPageSize)
}

func (s *AdminService) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock.Now()
}
