package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

const StatusSucceeded = "succeeded"

// Payment is one successfully processed invoice. Rows are append-only: the
// webhook processor inserts them and nothing ever mutates or deletes them.
// Amounts are kept in minor units; dollars exist only as a rendering of the
// integer, so replayed deliveries can never accumulate rounding drift.
type Payment struct {
	ID                snowflake.ID `json:"id" gorm:"primaryKey"`
	AccountID         snowflake.ID `json:"account_id" gorm:"not null;index"`
	AmountCents       int64        `json:"amount_cents" gorm:"not null"`
	ProviderPaymentID string       `json:"provider_payment_id" gorm:"type:text;not null;uniqueIndex"`
	Status            string       `json:"status" gorm:"type:text;not null"`
	RecordedAt        time.Time    `json:"recorded_at" gorm:"not null"`
}

func (Payment) TableName() string { return "payments" }

// AmountDollars formats the amount as a decimal dollar string, e.g. 5000 ->
// "50.00".
func (p Payment) AmountDollars() string {
	sign := ""
	cents := p.AmountCents
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// EventRecord archives one verified webhook delivery. The raw payload is
// snappy-compressed; provider_event_id carries a unique index so a replayed
// delivery leaves a single row.
type EventRecord struct {
	ID                string    `json:"id" gorm:"primaryKey;type:text"`
	ProviderEventID   string    `json:"provider_event_id" gorm:"type:text;not null;uniqueIndex"`
	EventType         string    `json:"event_type" gorm:"type:text;not null"`
	BillingCustomerID string    `json:"billing_customer_id" gorm:"type:text;not null;default:''"`
	PayloadCompressed []byte    `json:"-" gorm:"not null"`
	ReceivedAt        time.Time `json:"received_at" gorm:"not null"`
}

func (EventRecord) TableName() string { return "webhook_events" }

var ErrDuplicatePayment = errors.New("duplicate_payment")

type Repository interface {
	// InsertIfAbsent records the payment unless one with the same
	// provider_payment_id already exists, in which case it reports
	// ErrDuplicatePayment and writes nothing.
	InsertIfAbsent(ctx context.Context, db *gorm.DB, payment *Payment) error

	ListByAccountID(ctx context.Context, db *gorm.DB, accountID snowflake.ID) ([]Payment, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)
	SumSucceededCents(ctx context.Context, db *gorm.DB) (int64, error)
}

type EventArchive interface {
	// Record stores the delivery and reports whether this provider event id
	// was seen for the first time.
	Record(ctx context.Context, db *gorm.DB, record *EventRecord) (bool, error)
}
