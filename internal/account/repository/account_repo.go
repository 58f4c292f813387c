package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/scsaalabs/memberhub/internal/account/domain"
	"gorm.io/gorm"
)

type accountRepo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Repository {
	return &accountRepo{db: db}
}

func (r *accountRepo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Account, error) {
	if db == nil {
		db = r.db
	}
	var account domain.Account
	if err := db.WithContext(ctx).First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *accountRepo) List(ctx context.Context, db *gorm.DB) ([]domain.Account, error) {
	if db == nil {
		db = r.db
	}
	var accounts []domain.Account
	if err := db.WithContext(ctx).Order("created_at DESC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *accountRepo) Count(ctx context.Context, db *gorm.DB) (int64, error) {
	if db == nil {
		db = r.db
	}
	var count int64
	if err := db.WithContext(ctx).Model(&domain.Account{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *accountRepo) RecentSignups(ctx context.Context, db *gorm.DB, limit int) ([]domain.Account, error) {
	if db == nil {
		db = r.db
	}
	if limit <= 0 {
		limit = 5
	}
	var accounts []domain.Account
	if err := db.WithContext(ctx).
		Select("id", "first_name", "last_name", "created_at").
		Order("created_at DESC").
		Limit(limit).
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}
