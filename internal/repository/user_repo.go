package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"leadtrack/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserFilter narrows the admin user list. Search matches email, username,
// first name, last name and role.
type UserFilter struct {
	Search      string
	Role        entity.UserRole
	IsActive    *bool
	IsStaff     *bool
	IsSuperuser *bool
}

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Save(ctx context.Context, user *entity.User) error
	Activate(ctx context.Context, userID uuid.UUID) error
	SetActive(ctx context.Context, userID uuid.UUID, active bool) error
	SetRole(ctx context.Context, userID uuid.UUID, role entity.UserRole) error
	SetPasswordHash(ctx context.Context, userID uuid.UUID, hash string) error
	TouchLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error
	List(ctx context.Context, filter UserFilter, limit, offset int) ([]entity.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", email)
}

func (r *userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username = ?", username)
}

func (r *userRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where(query, args...).
		Count(&count).Error
	return count > 0, err
}

func (r *userRepository) Save(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepository) Activate(ctx context.Context, userID uuid.UUID) error {
	return r.SetActive(ctx, userID, true)
}

func (r *userRepository) SetActive(ctx context.Context, userID uuid.UUID, active bool) error {
	return r.updateColumn(ctx, userID, "is_active", active)
}

func (r *userRepository) SetRole(ctx context.Context, userID uuid.UUID, role entity.UserRole) error {
	return r.updateColumn(ctx, userID, "role", role)
}

func (r *userRepository) SetPasswordHash(ctx context.Context, userID uuid.UUID, hash string) error {
	return r.updateColumn(ctx, userID, "password_hash", hash)
}

func (r *userRepository) TouchLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error {
	return r.updateColumn(ctx, userID, "last_login", &at)
}

func (r *userRepository) updateColumn(ctx context.Context, userID uuid.UUID, column string, value any) error {
	result := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", userID).
		Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter, limit, offset int) ([]entity.User, error) {
	var users []entity.User
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where(
			"LOWER(email) LIKE ? OR LOWER(username) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(role) LIKE ?",
			pattern, pattern, pattern, pattern, pattern,
		)
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.IsStaff != nil {
		query = query.Where("is_staff = ?", *filter.IsStaff)
	}
	if filter.IsSuperuser != nil {
		query = query.Where("is_superuser = ?", *filter.IsSuperuser)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
