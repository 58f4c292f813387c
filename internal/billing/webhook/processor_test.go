package webhook

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	billingdomain "github.com/scsaalabs/memberhub/internal/billing/domain"
	"github.com/scsaalabs/memberhub/internal/clock"
	membershipdomain "github.com/scsaalabs/memberhub/internal/membership/domain"
	membershiprepo "github.com/scsaalabs/memberhub/internal/membership/repository"
	paymentdomain "github.com/scsaalabs/memberhub/internal/payment/domain"
	paymentrepo "github.com/scsaalabs/memberhub/internal/payment/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// -- Mocks --

type verifierMock struct {
	mock.Mock
}

func (m *verifierMock) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	return m.Called(ctx, payload, headers).Error(0)
}

type parserMock struct {
	mock.Mock
}

func (m *parserMock) Parse(ctx context.Context, payload []byte) (billingdomain.Event, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(billingdomain.Event), args.Error(1)
}

type subscriptionAPIMock struct {
	mock.Mock
}

func (m *subscriptionAPIMock) GetSubscription(ctx context.Context, subscriptionID string) (*billingdomain.SubscriptionDetails, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billingdomain.SubscriptionDetails), args.Error(1)
}

// -- Fixture --

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	db          *gorm.DB
	node        *snowflake.Node
	verifier    *verifierMock
	parser      *parserMock
	subs        *subscriptionAPIMock
	memberships membershipdomain.Repository
	payments    paymentdomain.Repository
	processor   *Processor
}

func newFixture(t *testing.T, redisClient *redis.Client) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&membershipdomain.Membership{},
		&paymentdomain.Payment{},
		&paymentdomain.EventRecord{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	f := &fixture{
		db:          db,
		node:        node,
		verifier:    &verifierMock{},
		parser:      &parserMock{},
		subs:        &subscriptionAPIMock{},
		memberships: membershiprepo.Provide(db),
		payments:    paymentrepo.Provide(db),
	}

	f.processor = NewProcessor(Params{
		DB:            db,
		Log:           zap.NewNop(),
		Clock:         clock.Fixed(testNow),
		GenID:         node,
		Verifier:      f.verifier,
		Parser:        f.parser,
		Subscriptions: f.subs,
		Memberships:   f.memberships,
		Payments:      f.payments,
		Archive:       paymentrepo.ProvideArchive(db),
		Redis:         redisClient,
	})
	return f
}

func (f *fixture) ingest(t *testing.T, event billingdomain.Event) error {
	t.Helper()
	payload := []byte(`{"id":"` + event.ProviderEventID() + `"}`)
	f.verifier.On("Verify", mock.Anything, payload, mock.Anything).Return(nil).Once()
	f.parser.On("Parse", mock.Anything, payload).Return(event, nil).Once()
	return f.processor.Ingest(context.Background(), payload, http.Header{})
}

func (f *fixture) seedMembership(t *testing.T, customerID string, status membershipdomain.Status) snowflake.ID {
	t.Helper()
	accountID := f.node.Generate()
	periodEnd := testNow.AddDate(1, 0, 0)
	require.NoError(t, f.memberships.Upsert(context.Background(), nil, &membershipdomain.Membership{
		ID:                f.node.Generate(),
		AccountID:         accountID,
		BillingCustomerID: customerID,
		Status:            status,
		PeriodEnd:         &periodEnd,
		Year:              testNow.Year(),
		CreatedAt:         testNow,
		UpdatedAt:         testNow,
	}))
	return accountID
}

// -- Tests --

func TestIngest_InvalidSignature(t *testing.T) {
	f := newFixture(t, nil)
	payload := []byte(`{"id":"evt_1"}`)

	f.verifier.On("Verify", mock.Anything, payload, mock.Anything).
		Return(billingdomain.ErrInvalidSignature).Once()

	err := f.processor.Ingest(context.Background(), payload, http.Header{})
	assert.ErrorIs(t, err, billingdomain.ErrInvalidSignature)

	// Nothing is parsed, stored or archived for an unauthenticated request.
	f.parser.AssertNotCalled(t, "Parse", mock.Anything, mock.Anything)
	var count int64
	require.NoError(t, f.db.Model(&paymentdomain.EventRecord{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestIngest_UnparseablePayloadAcked(t *testing.T) {
	f := newFixture(t, nil)
	payload := []byte("not json")

	f.verifier.On("Verify", mock.Anything, payload, mock.Anything).Return(nil).Once()
	f.parser.On("Parse", mock.Anything, payload).
		Return(nil, billingdomain.ErrInvalidPayload).Once()

	assert.NoError(t, f.processor.Ingest(context.Background(), payload, http.Header{}))
}

func TestIngest_CheckoutCompleted_ProvisionsMembership(t *testing.T) {
	f := newFixture(t, nil)
	accountID := f.node.Generate()
	periodEnd := testNow.AddDate(1, 0, 0)

	f.subs.On("GetSubscription", mock.Anything, "sub_1").Return(&billingdomain.SubscriptionDetails{
		ID:               "sub_1",
		Status:           "active",
		CurrentPeriodEnd: &periodEnd,
	}, nil).Twice()

	checkout := billingdomain.CheckoutSessionCompleted{
		EventID:        "evt_checkout",
		Mode:           "subscription",
		AccountRef:     accountID.String(),
		CustomerID:     "cus_new",
		SubscriptionID: "sub_1",
	}
	require.NoError(t, f.ingest(t, checkout))

	// Redelivery lands on the same row.
	checkout.EventID = "evt_checkout_redelivery"
	require.NoError(t, f.ingest(t, checkout))

	var count int64
	require.NoError(t, f.db.Model(&membershipdomain.Membership{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	m, err := f.memberships.FindByAccountID(context.Background(), nil, accountID)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, membershipdomain.StatusActive, m.Status)
	assert.Equal(t, "cus_new", m.BillingCustomerID)
	assert.Equal(t, testNow.Year(), m.Year)
	require.NotNil(t, m.PeriodEnd)
	assert.Equal(t, periodEnd.Unix(), m.PeriodEnd.Unix())
	require.NotNil(t, m.PaidAt)
	assert.Equal(t, testNow.Unix(), m.PaidAt.Unix())
}

func TestIngest_CheckoutCompleted_NonSubscriptionModeSkipped(t *testing.T) {
	f := newFixture(t, nil)

	err := f.ingest(t, billingdomain.CheckoutSessionCompleted{
		EventID:    "evt_payment_mode",
		Mode:       "payment",
		AccountRef: f.node.Generate().String(),
		CustomerID: "cus_1",
	})
	require.NoError(t, err)

	f.subs.AssertNotCalled(t, "GetSubscription", mock.Anything, mock.Anything)
	var count int64
	require.NoError(t, f.db.Model(&membershipdomain.Membership{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestIngest_CheckoutCompleted_MissingFieldsSkipped(t *testing.T) {
	f := newFixture(t, nil)

	err := f.ingest(t, billingdomain.CheckoutSessionCompleted{
		EventID: "evt_incomplete",
		Mode:    "subscription",
		// no account ref, customer or subscription
	})
	require.NoError(t, err)

	err = f.ingest(t, billingdomain.CheckoutSessionCompleted{
		EventID:        "evt_bad_ref",
		Mode:           "subscription",
		AccountRef:     "not-a-snowflake",
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
	})
	require.NoError(t, err)

	f.subs.AssertNotCalled(t, "GetSubscription", mock.Anything, mock.Anything)
}

func TestIngest_InvoiceSucceeded_RecordsPaymentOnce(t *testing.T) {
	f := newFixture(t, nil)
	accountID := f.seedMembership(t, "cus_1", membershipdomain.StatusActive)

	event := billingdomain.InvoicePaymentSucceeded{
		EventID:         "evt_invoice",
		CustomerID:      "cus_1",
		PaymentIntentID: "pi_1",
		AmountPaidCents: 5000,
	}
	require.NoError(t, f.ingest(t, event))

	// The provider redelivers the same invoice under a fresh event id.
	event.EventID = "evt_invoice_redelivery"
	require.NoError(t, f.ingest(t, event))

	items, err := f.payments.ListByAccountID(context.Background(), nil, accountID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(5000), items[0].AmountCents)
	assert.Equal(t, "pi_1", items[0].ProviderPaymentID)
}

func TestIngest_InvoiceSucceeded_UnknownCustomerAcked(t *testing.T) {
	f := newFixture(t, nil)

	err := f.ingest(t, billingdomain.InvoicePaymentSucceeded{
		EventID:         "evt_orphan",
		CustomerID:      "cus_unknown",
		PaymentIntentID: "pi_orphan",
		AmountPaidCents: 5000,
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.db.Model(&paymentdomain.Payment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestIngest_InvoiceFailed_MarksPastDue(t *testing.T) {
	f := newFixture(t, nil)
	accountID := f.seedMembership(t, "cus_1", membershipdomain.StatusActive)

	err := f.ingest(t, billingdomain.InvoicePaymentFailed{
		EventID:    "evt_failed",
		CustomerID: "cus_1",
	})
	require.NoError(t, err)

	m, err := f.memberships.FindByAccountID(context.Background(), nil, accountID)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, membershipdomain.StatusPastDue, m.Status)
	assert.Nil(t, m.PeriodEnd)
}

func TestIngest_SubscriptionUpdated_PendingCancellation(t *testing.T) {
	f := newFixture(t, nil)
	accountID := f.seedMembership(t, "cus_1", membershipdomain.StatusActive)
	periodEnd := testNow.AddDate(0, 6, 0)

	f.subs.On("GetSubscription", mock.Anything, "sub_1").Return(&billingdomain.SubscriptionDetails{
		ID:                "sub_1",
		Status:            "active",
		CancelAtPeriodEnd: true,
		CurrentPeriodEnd:  &periodEnd,
	}, nil).Once()

	err := f.ingest(t, billingdomain.SubscriptionUpdated{
		EventID:        "evt_sub_updated",
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
	})
	require.NoError(t, err)

	m, err := f.memberships.FindByAccountID(context.Background(), nil, accountID)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, membershipdomain.StatusPendingCancellation, m.Status)
	require.NotNil(t, m.PeriodEnd)
	assert.Equal(t, periodEnd.Unix(), m.PeriodEnd.Unix())
}

func TestIngest_SubscriptionUpdated_CanceledClearsPeriodEnd(t *testing.T) {
	f := newFixture(t, nil)
	accountID := f.seedMembership(t, "cus_1", membershipdomain.StatusActive)
	periodEnd := testNow.AddDate(0, 6, 0)

	f.subs.On("GetSubscription", mock.Anything, "sub_1").Return(&billingdomain.SubscriptionDetails{
		ID:               "sub_1",
		Status:           "canceled",
		CurrentPeriodEnd: &periodEnd,
	}, nil).Once()

	err := f.ingest(t, billingdomain.SubscriptionUpdated{
		EventID:        "evt_sub_canceled",
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
	})
	require.NoError(t, err)

	m, err := f.memberships.FindByAccountID(context.Background(), nil, accountID)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, membershipdomain.StatusCanceled, m.Status)
	assert.Nil(t, m.PeriodEnd)
}

func TestIngest_SubscriptionUpdated_UnknownProviderStatusMirrored(t *testing.T) {
	f := newFixture(t, nil)
	accountID := f.seedMembership(t, "cus_1", membershipdomain.StatusActive)

	f.subs.On("GetSubscription", mock.Anything, "sub_1").Return(&billingdomain.SubscriptionDetails{
		ID:     "sub_1",
		Status: "unpaid",
	}, nil).Once()

	err := f.ingest(t, billingdomain.SubscriptionUpdated{
		EventID:        "evt_sub_unpaid",
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
	})
	require.NoError(t, err)

	m, err := f.memberships.FindByAccountID(context.Background(), nil, accountID)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, membershipdomain.Status("unpaid"), m.Status)
}

func TestIngest_SubscriptionDeleted_Cancels(t *testing.T) {
	f := newFixture(t, nil)
	accountID := f.seedMembership(t, "cus_1", membershipdomain.StatusPendingCancellation)

	err := f.ingest(t, billingdomain.SubscriptionDeleted{
		EventID:    "evt_deleted",
		CustomerID: "cus_1",
	})
	require.NoError(t, err)

	m, err := f.memberships.FindByAccountID(context.Background(), nil, accountID)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, membershipdomain.StatusCanceled, m.Status)
	assert.Nil(t, m.PeriodEnd)
}

func TestIngest_UnhandledEventAcked(t *testing.T) {
	f := newFixture(t, nil)

	err := f.ingest(t, billingdomain.UnhandledEvent{
		EventID: "evt_refund",
		Type:    "charge.refunded",
	})
	assert.NoError(t, err)
}

func TestIngest_ArchivesDelivery(t *testing.T) {
	f := newFixture(t, nil)
	f.seedMembership(t, "cus_1", membershipdomain.StatusActive)

	require.NoError(t, f.ingest(t, billingdomain.InvoicePaymentFailed{
		EventID:    "evt_archived",
		CustomerID: "cus_1",
	}))

	var record paymentdomain.EventRecord
	require.NoError(t, f.db.Where("provider_event_id = ?", "evt_archived").First(&record).Error)
	assert.Equal(t, "invoice.payment_failed", record.EventType)
	assert.Equal(t, "cus_1", record.BillingCustomerID)
}

func TestIngest_RedisDedupFastPath(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	f := newFixture(t, client)
	f.seedMembership(t, "cus_1", membershipdomain.StatusActive)

	event := billingdomain.SubscriptionDeleted{
		EventID:    "evt_dedup",
		CustomerID: "cus_1",
	}
	require.NoError(t, f.ingest(t, event))
	assert.True(t, mr.Exists("webhook:event:evt_dedup"))

	// The redelivery is verified and archived but the handler never runs,
	// so the mocked subscription API and repos see no second pass.
	require.NoError(t, f.ingest(t, event))
}

func TestIngest_HandlerFailureDoesNotMarkProcessed(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	f := newFixture(t, client)
	f.seedMembership(t, "cus_1", membershipdomain.StatusActive)

	f.subs.On("GetSubscription", mock.Anything, "sub_1").
		Return(nil, assert.AnError).Once()

	// A failed lookup is acknowledged but the dedup key stays unset so the
	// provider retry gets a real second attempt.
	require.NoError(t, f.ingest(t, billingdomain.SubscriptionUpdated{
		EventID:        "evt_retryable",
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
	}))
	assert.False(t, mr.Exists("webhook:event:evt_retryable"))

	periodEnd := testNow.AddDate(1, 0, 0)
	f.subs.On("GetSubscription", mock.Anything, "sub_1").Return(&billingdomain.SubscriptionDetails{
		ID:               "sub_1",
		Status:           "active",
		CurrentPeriodEnd: &periodEnd,
	}, nil).Once()

	require.NoError(t, f.ingest(t, billingdomain.SubscriptionUpdated{
		EventID:        "evt_retryable",
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
	}))
	assert.True(t, mr.Exists("webhook:event:evt_retryable"))
}
