package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/scsaalabs/memberhub/internal/membership/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type membershipRepo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Repository {
	return &membershipRepo{db: db}
}

func (r *membershipRepo) Upsert(ctx context.Context, db *gorm.DB, membership *domain.Membership) error {
	if db == nil {
		db = r.db
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"billing_customer_id": gorm.Expr(
				"CASE WHEN memberships.billing_customer_id = '' THEN excluded.billing_customer_id ELSE memberships.billing_customer_id END"),
			"status":     membership.Status,
			"period_end": membership.PeriodEnd,
			"paid_at":    membership.PaidAt,
			"year":       membership.Year,
			"updated_at": membership.UpdatedAt,
		}),
	}).Create(membership).Error
}

func (r *membershipRepo) FindByAccountID(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (*domain.Membership, error) {
	if db == nil {
		db = r.db
	}
	var membership domain.Membership
	if err := db.WithContext(ctx).
		Where("account_id = ?", accountID).
		First(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &membership, nil
}

func (r *membershipRepo) FindByBillingCustomerID(ctx context.Context, db *gorm.DB, customerID string) (*domain.Membership, error) {
	if db == nil {
		db = r.db
	}
	var membership domain.Membership
	if err := db.WithContext(ctx).
		Where("billing_customer_id = ?", customerID).
		First(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &membership, nil
}

func (r *membershipRepo) UpdateByBillingCustomerID(ctx context.Context, db *gorm.DB, customerID string, fields map[string]any) (int64, error) {
	if db == nil {
		db = r.db
	}
	result := db.WithContext(ctx).
		Model(&domain.Membership{}).
		Where("billing_customer_id = ?", customerID).
		Updates(fields)
	return result.RowsAffected, result.Error
}

func (r *membershipRepo) CountByStatus(ctx context.Context, db *gorm.DB, status domain.Status) (int64, error) {
	if db == nil {
		db = r.db
	}
	var count int64
	if err := db.WithContext(ctx).
		Model(&domain.Membership{}).
		Where("status = ?", status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
