package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Status is the local paid-access state derived from billing provider
// events. The three-way split between active, pending_cancellation and
// canceled is deliberate: a subscription can be contractually active (paid
// through the period) while flagged to stop renewing, and collapsing that
// into either neighbour state misleads someone.
type Status string

const (
	StatusActive              Status = "active"
	StatusPastDue             Status = "past_due"
	StatusPendingCancellation Status = "pending_cancellation"
	StatusCanceled            Status = "canceled"
)

// FromProviderStatus maps a provider subscription status plus the
// cancellation flags onto the local status. Anything the mapping does not
// recognise is mirrored verbatim so a new provider status never silently
// becomes "active".
func FromProviderStatus(providerStatus string, cancelScheduled bool) Status {
	switch {
	case providerStatus == "canceled":
		return StatusCanceled
	case providerStatus == "active" && cancelScheduled:
		return StatusPendingCancellation
	case providerStatus == "active":
		return StatusActive
	default:
		return Status(providerStatus)
	}
}

type Membership struct {
	ID                snowflake.ID `json:"id" gorm:"primaryKey"`
	AccountID         snowflake.ID `json:"account_id" gorm:"not null;uniqueIndex"`
	BillingCustomerID string       `json:"billing_customer_id" gorm:"type:text;not null;default:'';index"`
	Status            Status       `json:"status" gorm:"type:text;not null"`
	PeriodEnd         *time.Time   `json:"period_end"`
	PaidAt            *time.Time   `json:"paid_at"`
	Year              int          `json:"year" gorm:"not null"`
	CreatedAt         time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt         time.Time    `json:"updated_at" gorm:"not null"`
}

func (Membership) TableName() string { return "memberships" }

var (
	ErrMembershipNotFound = errors.New("membership_not_found")
	ErrInvalidAccount     = errors.New("invalid_account")
)

type Repository interface {
	// Upsert inserts the membership or, when a row for the account already
	// exists, refreshes its billing state. billing_customer_id is written
	// only when the existing row has none; it never changes once assigned.
	Upsert(ctx context.Context, db *gorm.DB, membership *Membership) error

	FindByAccountID(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (*Membership, error)
	FindByBillingCustomerID(ctx context.Context, db *gorm.DB, customerID string) (*Membership, error)

	// UpdateByBillingCustomerID applies fields to the membership owned by
	// customerID and reports how many rows matched. Zero rows is not an
	// error; webhook handlers treat it as an unresolvable reference.
	UpdateByBillingCustomerID(ctx context.Context, db *gorm.DB, customerID string, fields map[string]any) (int64, error)

	CountByStatus(ctx context.Context, db *gorm.DB, status Status) (int64, error)
}
