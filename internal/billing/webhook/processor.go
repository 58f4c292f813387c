package webhook

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	billingdomain "github.com/scsaalabs/memberhub/internal/billing/domain"
	"github.com/scsaalabs/memberhub/internal/clock"
	membershipdomain "github.com/scsaalabs/memberhub/internal/membership/domain"
	paymentdomain "github.com/scsaalabs/memberhub/internal/payment/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dedupTTL = 24 * time.Hour

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	Clock         clock.Clock
	GenID         *snowflake.Node
	Verifier      billingdomain.Verifier
	Parser        billingdomain.EventParser
	Subscriptions billingdomain.SubscriptionAPI
	Memberships   membershipdomain.Repository
	Payments      paymentdomain.Repository
	Archive       paymentdomain.EventArchive
	Redis         *redis.Client `optional:"true"`
}

// Processor reconciles billing provider events onto the local membership
// state machine and payment ledger. Every handler is safe to re-run: the
// provider delivers at least once, and a crash mid-event means the whole
// event is delivered again.
type Processor struct {
	db            *gorm.DB
	log           *zap.Logger
	clock         clock.Clock
	genID         *snowflake.Node
	verifier      billingdomain.Verifier
	parser        billingdomain.EventParser
	subscriptions billingdomain.SubscriptionAPI
	memberships   membershipdomain.Repository
	payments      paymentdomain.Repository
	archive       paymentdomain.EventArchive
	redis         *redis.Client
	tracer        trace.Tracer
}

func NewProcessor(p Params) *Processor {
	return &Processor{
		db:            p.DB,
		log:           p.Log.Named("billing.webhook"),
		clock:         p.Clock,
		genID:         p.GenID,
		verifier:      p.Verifier,
		parser:        p.Parser,
		subscriptions: p.Subscriptions,
		memberships:   p.Memberships,
		payments:      p.Payments,
		archive:       p.Archive,
		redis:         p.Redis,
		tracer:        otel.Tracer("billing.webhook"),
	}
}

// Ingest verifies, parses and applies one webhook delivery.
//
// The only error it returns is billingdomain.ErrInvalidSignature: an
// unauthenticated request must be rejected before anything else happens.
// Every other failure mode is handled locally and acknowledged, because a
// provider retry loop cannot fix a malformed payload or a dead database.
func (p *Processor) Ingest(ctx context.Context, payload []byte, headers http.Header) error {
	ctx, span := p.tracer.Start(ctx, "webhook.ingest")
	defer span.End()

	if err := p.verifier.Verify(ctx, payload, headers); err != nil {
		p.log.Warn("webhook signature verification failed", zap.Error(err))
		return billingdomain.ErrInvalidSignature
	}

	event, err := p.parser.Parse(ctx, payload)
	if err != nil {
		p.log.Warn("webhook payload unparseable", zap.Error(err))
		eventsTotal.WithLabelValues("unknown", resultSkipped).Inc()
		return nil
	}

	eventType := billingdomain.EventType(event)
	log := p.log.With(
		zap.String("event_type", eventType),
		zap.String("provider_event_id", event.ProviderEventID()))

	p.archiveDelivery(ctx, event, eventType, payload, log)

	if p.alreadyProcessed(ctx, event.ProviderEventID()) {
		log.Debug("skipping already processed event")
		eventsTotal.WithLabelValues(eventType, resultDuplicate).Inc()
		return nil
	}

	if err := p.apply(ctx, event, log); err != nil {
		// Acknowledge anyway: redelivery retries are no substitute for
		// alerting on this counter.
		log.Error("webhook event handling failed", zap.Error(err))
		eventsTotal.WithLabelValues(eventType, resultFailed).Inc()
		return nil
	}

	p.markProcessed(ctx, event.ProviderEventID())
	return nil
}

func (p *Processor) apply(ctx context.Context, event billingdomain.Event, log *zap.Logger) error {
	eventType := billingdomain.EventType(event)

	switch e := event.(type) {
	case billingdomain.CheckoutSessionCompleted:
		return p.handleCheckoutCompleted(ctx, e, log)
	case billingdomain.InvoicePaymentSucceeded:
		return p.handleInvoiceSucceeded(ctx, e, log)
	case billingdomain.InvoicePaymentFailed:
		return p.handleInvoiceFailed(ctx, e, log)
	case billingdomain.SubscriptionUpdated:
		return p.handleSubscriptionUpdated(ctx, e, log)
	case billingdomain.SubscriptionDeleted:
		return p.handleSubscriptionDeleted(ctx, e, log)
	case billingdomain.UnhandledEvent:
		log.Debug("unhandled event type acknowledged")
		eventsTotal.WithLabelValues(eventType, resultSkipped).Inc()
		return nil
	default:
		log.Warn("event variant without handler")
		eventsTotal.WithLabelValues(eventType, resultSkipped).Inc()
		return nil
	}
}

// handleCheckoutCompleted provisions the membership on first purchase. This
// is the only moment the account id and the billing customer id appear in
// the same payload, so the upsert here establishes the index every later
// event is resolved through.
func (p *Processor) handleCheckoutCompleted(ctx context.Context, e billingdomain.CheckoutSessionCompleted, log *zap.Logger) error {
	eventType := billingdomain.EventType(e)

	if e.Mode != "subscription" {
		log.Debug("ignoring non-subscription checkout session")
		eventsTotal.WithLabelValues(eventType, resultSkipped).Inc()
		return nil
	}
	if e.AccountRef == "" || e.CustomerID == "" || e.SubscriptionID == "" {
		log.Warn("checkout session missing account, customer or subscription")
		eventsTotal.WithLabelValues(eventType, resultSkipped).Inc()
		return nil
	}

	accountID, err := snowflake.ParseString(e.AccountRef)
	if err != nil || accountID == 0 {
		log.Warn("checkout session carries invalid account reference",
			zap.String("account_ref", e.AccountRef))
		eventsTotal.WithLabelValues(eventType, resultSkipped).Inc()
		return nil
	}

	sub, err := p.subscriptions.GetSubscription(ctx, e.SubscriptionID)
	if err != nil {
		return err
	}

	now := p.clock.Now(ctx)
	if err := p.memberships.Upsert(ctx, p.db, &membershipdomain.Membership{
		ID:                p.genID.Generate(),
		AccountID:         accountID,
		BillingCustomerID: e.CustomerID,
		Status:            membershipdomain.StatusActive,
		PeriodEnd:         billingdomain.ResolvePeriodEnd(*sub),
		PaidAt:            &now,
		Year:              now.Year(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}); err != nil {
		return err
	}

	log.Info("membership provisioned", zap.String("account_id", accountID.String()))
	eventsTotal.WithLabelValues(eventType, resultProcessed).Inc()
	return nil
}

func (p *Processor) handleInvoiceSucceeded(ctx context.Context, e billingdomain.InvoicePaymentSucceeded, log *zap.Logger) error {
	eventType := billingdomain.EventType(e)

	if e.CustomerID == "" || e.PaymentID() == "" {
		log.Warn("invoice event missing customer or payment id")
		eventsTotal.WithLabelValues(eventType, resultSkipped).Inc()
		return nil
	}

	member, err := p.memberships.FindByBillingCustomerID(ctx, p.db, e.CustomerID)
	if err != nil {
		return err
	}
	if member == nil {
		// The membership row may not be committed yet, or the customer
		// belongs to another environment. Acknowledge and move on.
		log.Warn("payment for unknown billing customer",
			zap.String("billing_customer_id", e.CustomerID))
		eventsTotal.WithLabelValues(eventType, resultSkipped).Inc()
		return nil
	}

	err = p.payments.InsertIfAbsent(ctx, p.db, &paymentdomain.Payment{
		ID:                p.genID.Generate(),
		AccountID:         member.AccountID,
		AmountCents:       e.AmountPaidCents,
		ProviderPaymentID: e.PaymentID(),
		Status:            paymentdomain.StatusSucceeded,
		RecordedAt:        p.clock.Now(ctx),
	})
	if errors.Is(err, paymentdomain.ErrDuplicatePayment) {
		log.Debug("payment already recorded", zap.String("provider_payment_id", e.PaymentID()))
		eventsTotal.WithLabelValues(eventType, resultDuplicate).Inc()
		return nil
	}
	if err != nil {
		return err
	}

	log.Info("payment recorded",
		zap.String("provider_payment_id", e.PaymentID()),
		zap.Int64("amount_cents", e.AmountPaidCents))
	eventsTotal.WithLabelValues(eventType, resultProcessed).Inc()
	return nil
}

func (p *Processor) handleInvoiceFailed(ctx context.Context, e billingdomain.InvoicePaymentFailed, log *zap.Logger) error {
	eventType := billingdomain.EventType(e)

	if e.CustomerID == "" {
		eventsTotal.WithLabelValues(eventType, resultSkipped).Inc()
		return nil
	}

	rows, err := p.memberships.UpdateByBillingCustomerID(ctx, p.db, e.CustomerID, map[string]any{
		"status":     membershipdomain.StatusPastDue,
		"period_end": nil,
		"updated_at": p.clock.Now(ctx),
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		log.Warn("payment failure for unknown billing customer",
			zap.String("billing_customer_id", e.CustomerID))
		eventsTotal.WithLabelValues(eventType, resultSkipped).Inc()
		return nil
	}

	log.Info("membership marked past due", zap.String("billing_customer_id", e.CustomerID))
	eventsTotal.WithLabelValues(eventType, resultProcessed).Inc()
	return nil
}

func (p *Processor) handleSubscriptionUpdated(ctx context.Context, e billingdomain.SubscriptionUpdated, log *zap.Logger) error {
	eventType := billingdomain.EventType(e)

	if e.CustomerID == "" || e.SubscriptionID == "" {
		eventsTotal.WithLabelValues(eventType, resultSkipped).Inc()
		return nil
	}

	// The update payload is a partial snapshot; fetch the full subscription
	// so the cancellation flags and period end are authoritative.
	sub, err := p.subscriptions.GetSubscription(ctx, e.SubscriptionID)
	if err != nil {
		return err
	}

	status := membershipdomain.FromProviderStatus(sub.Status, sub.CancelScheduled())
	var periodEnd *time.Time
	if status != membershipdomain.StatusCanceled {
		periodEnd = billingdomain.ResolvePeriodEnd(*sub)
	}

	rows, err := p.memberships.UpdateByBillingCustomerID(ctx, p.db, e.CustomerID, map[string]any{
		"status":     status,
		"period_end": periodEnd,
		"updated_at": p.clock.Now(ctx),
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		log.Warn("subscription update for unknown billing customer",
			zap.String("billing_customer_id", e.CustomerID))
		eventsTotal.WithLabelValues(eventType, resultSkipped).Inc()
		return nil
	}

	log.Info("membership status updated",
		zap.String("billing_customer_id", e.CustomerID),
		zap.String("status", string(status)))
	eventsTotal.WithLabelValues(eventType, resultProcessed).Inc()
	return nil
}

func (p *Processor) handleSubscriptionDeleted(ctx context.Context, e billingdomain.SubscriptionDeleted, log *zap.Logger) error {
	eventType := billingdomain.EventType(e)

	if e.CustomerID == "" {
		eventsTotal.WithLabelValues(eventType, resultSkipped).Inc()
		return nil
	}

	rows, err := p.memberships.UpdateByBillingCustomerID(ctx, p.db, e.CustomerID, map[string]any{
		"status":     membershipdomain.StatusCanceled,
		"period_end": nil,
		"updated_at": p.clock.Now(ctx),
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		log.Warn("subscription deletion for unknown billing customer",
			zap.String("billing_customer_id", e.CustomerID))
		eventsTotal.WithLabelValues(eventType, resultSkipped).Inc()
		return nil
	}

	log.Info("membership canceled", zap.String("billing_customer_id", e.CustomerID))
	eventsTotal.WithLabelValues(eventType, resultProcessed).Inc()
	return nil
}

func (p *Processor) archiveDelivery(ctx context.Context, event billingdomain.Event, eventType string, payload []byte, log *zap.Logger) {
	customerID := ""
	switch e := event.(type) {
	case billingdomain.CheckoutSessionCompleted:
		customerID = e.CustomerID
	case billingdomain.InvoicePaymentSucceeded:
		customerID = e.CustomerID
	case billingdomain.InvoicePaymentFailed:
		customerID = e.CustomerID
	case billingdomain.SubscriptionUpdated:
		customerID = e.CustomerID
	case billingdomain.SubscriptionDeleted:
		customerID = e.CustomerID
	}

	if _, err := p.archive.Record(ctx, p.db, &paymentdomain.EventRecord{
		ProviderEventID:   event.ProviderEventID(),
		EventType:         eventType,
		BillingCustomerID: customerID,
		PayloadCompressed: payload,
		ReceivedAt:        p.clock.Now(ctx),
	}); err != nil {
		log.Warn("failed to archive webhook delivery", zap.Error(err))
	}
}

// alreadyProcessed is a best-effort fast path. The dedup key is only written
// after a handler finishes, so a crash mid-event never suppresses the retry;
// correctness always rests on the handlers being idempotent.
func (p *Processor) alreadyProcessed(ctx context.Context, providerEventID string) bool {
	if p.redis == nil || providerEventID == "" {
		return false
	}
	n, err := p.redis.Exists(ctx, dedupKey(providerEventID)).Result()
	if err != nil {
		return false
	}
	return n > 0
}

func (p *Processor) markProcessed(ctx context.Context, providerEventID string) {
	if p.redis == nil || providerEventID == "" {
		return
	}
	if err := p.redis.Set(ctx, dedupKey(providerEventID), 1, dedupTTL).Err(); err != nil {
		p.log.Debug("failed to write dedup key", zap.Error(err))
	}
}

func dedupKey(providerEventID string) string {
	return "webhook:event:" + providerEventID
}
