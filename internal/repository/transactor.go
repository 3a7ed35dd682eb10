package repository

import (
	"context"

	"gorm.io/gorm"
)

// TxRepositories are bound to a single open transaction.
type TxRepositories struct {
	Users  UserRepository
	Tokens TokenRecordRepository
}

type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error
}

type gormTransactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

// WithTransaction commits when fn returns nil and rolls back otherwise.
func (t *gormTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, TxRepositories{
			Users:  NewUserRepository(tx),
			Tokens: NewTokenRecordRepository(tx),
		})
	})
}
