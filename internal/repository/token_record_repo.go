package repository

import (
	"context"
	"errors"

	"leadtrack/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TokenRecordFilter struct {
	Email     string
	TokenType entity.TokenType
	IsUsed    *bool
}

type TokenRecordRepository interface {
	Create(ctx context.Context, record *entity.TokenRecord) error
	FindForUser(ctx context.Context, userID uuid.UUID, tokenType entity.TokenType, token string) (*entity.TokenRecord, error)
	MarkUsed(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, filter TokenRecordFilter, limit, offset int) ([]entity.TokenRecord, error)
}

type tokenRecordRepository struct {
	db *gorm.DB
}

func NewTokenRecordRepository(db *gorm.DB) TokenRecordRepository {
	return &tokenRecordRepository{db: db}
}

func (r *tokenRecordRepository) Create(ctx context.Context, record *entity.TokenRecord) error {
	return r.db.WithContext(ctx).Omit("User").Create(record).Error
}

func (r *tokenRecordRepository) FindForUser(
	ctx context.Context,
	userID uuid.UUID,
	tokenType entity.TokenType,
	token string,
) (*entity.TokenRecord, error) {

	var record entity.TokenRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND token_type = ? AND token = ?", userID, tokenType, token).
		Order("created_at DESC").
		First(&record).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &record, err
}

// MarkUsed flips is_used only while it is still false. It reports false
// when another transaction consumed the record first.
func (r *tokenRecordRepository) MarkUsed(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.TokenRecord{}).
		Where("id = ? AND is_used = ?", id, false).
		Update("is_used", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *tokenRecordRepository) List(ctx context.Context, filter TokenRecordFilter, limit, offset int) ([]entity.TokenRecord, error) {
	var records []entity.TokenRecord
	query := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC")
	if filter.Email != "" {
		users := r.db.Model(&entity.User{}).Select("id").Where("email = ?", filter.Email)
		query = query.Where("user_id IN (?)", users)
	}
	if filter.TokenType != "" {
		query = query.Where("token_type = ?", filter.TokenType)
	}
	if filter.IsUsed != nil {
		query = query.Where("is_used = ?", *filter.IsUsed)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
