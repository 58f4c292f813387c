package dashboard

import (
	"context"
	"fmt"

	accountdomain "github.com/scsaalabs/memberhub/internal/account/domain"
	membershipdomain "github.com/scsaalabs/memberhub/internal/membership/domain"
	paymentdomain "github.com/scsaalabs/memberhub/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// annualDuesCents is the flat yearly membership fee.
const annualDuesCents int64 = 5000

type Stats struct {
	TotalAccounts       int64                   `json:"total_accounts"`
	ActiveMembers       int64                   `json:"active_members"`
	PastDueMembers      int64                   `json:"past_due_members"`
	PendingCancellation int64                   `json:"pending_cancellation"`
	CanceledMembers     int64                   `json:"canceled_members"`
	TotalRevenueCents   int64                   `json:"total_revenue_cents"`
	TotalRevenue        string                  `json:"total_revenue"`
	AnnualRunRateCents  int64                   `json:"annual_run_rate_cents"`
	RecentSignups       []accountdomain.Account `json:"recent_signups"`
}

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Accounts    accountdomain.Repository
	Memberships membershipdomain.Repository
	Payments    paymentdomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	accounts    accountdomain.Repository
	memberships membershipdomain.Repository
	payments    paymentdomain.Repository
}

func New(p Params) *Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("dashboard.service"),
		accounts:    p.Accounts,
		memberships: p.Memberships,
		payments:    p.Payments,
	}
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	total, err := s.accounts.Count(ctx, s.db)
	if err != nil {
		return nil, err
	}

	var counts [4]int64
	for i, status := range []membershipdomain.Status{
		membershipdomain.StatusActive,
		membershipdomain.StatusPastDue,
		membershipdomain.StatusPendingCancellation,
		membershipdomain.StatusCanceled,
	} {
		n, err := s.memberships.CountByStatus(ctx, s.db, status)
		if err != nil {
			return nil, err
		}
		counts[i] = n
	}

	revenue, err := s.payments.SumSucceededCents(ctx, s.db)
	if err != nil {
		return nil, err
	}

	recent, err := s.accounts.RecentSignups(ctx, s.db, 5)
	if err != nil {
		return nil, err
	}

	return &Stats{
		TotalAccounts:       total,
		ActiveMembers:       counts[0],
		PastDueMembers:      counts[1],
		PendingCancellation: counts[2],
		CanceledMembers:     counts[3],
		TotalRevenueCents:   revenue,
		TotalRevenue:        formatCents(revenue),
		AnnualRunRateCents:  counts[0] * annualDuesCents,
		RecentSignups:       recent,
	}, nil
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

var Module = fx.Module("dashboard.service",
	fx.Provide(New),
)
