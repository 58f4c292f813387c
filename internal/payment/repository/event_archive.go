package repository

import (
	"context"

	"github.com/golang/snappy"
	"github.com/oklog/ulid/v2"
	"github.com/scsaalabs/memberhub/internal/payment/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type eventArchive struct {
	db *gorm.DB
}

func ProvideArchive(db *gorm.DB) domain.EventArchive {
	return &eventArchive{db: db}
}

func (a *eventArchive) Record(ctx context.Context, db *gorm.DB, record *domain.EventRecord) (bool, error) {
	if db == nil {
		db = a.db
	}
	if record.ID == "" {
		record.ID = ulid.Make().String()
	}
	record.PayloadCompressed = snappy.Encode(nil, record.PayloadCompressed)

	result := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider_event_id"}},
		DoNothing: true,
	}).Create(record)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return false, nil
		}
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DecodePayload restores the raw payload bytes of an archived delivery.
func DecodePayload(record *domain.EventRecord) ([]byte, error) {
	return snappy.Decode(nil, record.PayloadCompressed)
}
