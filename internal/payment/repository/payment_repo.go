package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/scsaalabs/memberhub/internal/payment/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type paymentRepo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Repository {
	return &paymentRepo{db: db}
}

func (r *paymentRepo) InsertIfAbsent(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	if db == nil {
		db = r.db
	}
	result := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider_payment_id"}},
		DoNothing: true,
	}).Create(payment)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return domain.ErrDuplicatePayment
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrDuplicatePayment
	}
	return nil
}

// isUniqueViolation covers drivers where the conflict clause is not applied
// and the unique index fires instead.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func (r *paymentRepo) ListByAccountID(ctx context.Context, db *gorm.DB, accountID snowflake.ID) ([]domain.Payment, error) {
	if db == nil {
		db = r.db
	}
	var payments []domain.Payment
	if err := db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("recorded_at DESC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *paymentRepo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Payment, error) {
	if db == nil {
		db = r.db
	}
	var payment domain.Payment
	if err := db.WithContext(ctx).First(&payment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepo) SumSucceededCents(ctx context.Context, db *gorm.DB) (int64, error) {
	if db == nil {
		db = r.db
	}
	var total int64
	if err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(amount_cents), 0) FROM payments WHERE status = ?`,
		domain.StatusSucceeded,
	).Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
