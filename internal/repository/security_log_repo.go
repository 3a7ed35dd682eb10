package repository

import (
	"context"

	"leadtrack/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SecurityLogRepository interface {
	Log(ctx context.Context, log *entity.SecurityLog) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]entity.SecurityLog, error)
}

type securityLogRepository struct {
	db *gorm.DB
}

func NewSecurityLogRepository(db *gorm.DB) SecurityLogRepository {
	return &securityLogRepository{db: db}
}

func (r *securityLogRepository) Log(ctx context.Context, log *entity.SecurityLog) error {
	return r.db.WithContext(ctx).Omit("User").Create(log).Error
}

func (r *securityLogRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]entity.SecurityLog, error) {
	var logs []entity.SecurityLog
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
