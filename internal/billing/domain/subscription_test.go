package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolvePeriodEnd(t *testing.T) {
	subLevel := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	itemLevel := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)

	t.Run("subscription level wins", func(t *testing.T) {
		got := ResolvePeriodEnd(SubscriptionDetails{
			CurrentPeriodEnd: &subLevel,
			ItemPeriodEnd:    &itemLevel,
		})
		assert.Equal(t, &subLevel, got)
	})

	t.Run("falls back to item level", func(t *testing.T) {
		got := ResolvePeriodEnd(SubscriptionDetails{ItemPeriodEnd: &itemLevel})
		assert.Equal(t, &itemLevel, got)
	})

	t.Run("nil when neither present", func(t *testing.T) {
		assert.Nil(t, ResolvePeriodEnd(SubscriptionDetails{}))
	})
}

func TestCancelScheduled(t *testing.T) {
	at := time.Now()

	assert.False(t, SubscriptionDetails{}.CancelScheduled())
	assert.True(t, SubscriptionDetails{CancelAtPeriodEnd: true}.CancelScheduled())
	assert.True(t, SubscriptionDetails{CancelAt: &at}.CancelScheduled())
}

func TestInvoicePaymentID_FallbackChain(t *testing.T) {
	e := InvoicePaymentSucceeded{
		PaymentIntentID: "pi_1",
		ChargeID:        "ch_1",
		InvoiceID:       "in_1",
	}
	assert.Equal(t, "pi_1", e.PaymentID())

	e.PaymentIntentID = ""
	assert.Equal(t, "ch_1", e.PaymentID())

	e.ChargeID = ""
	assert.Equal(t, "in_1", e.PaymentID())
}

func TestEventType(t *testing.T) {
	assert.Equal(t, "checkout.session.completed", EventType(CheckoutSessionCompleted{}))
	assert.Equal(t, "invoice.payment_succeeded", EventType(InvoicePaymentSucceeded{}))
	assert.Equal(t, "invoice.payment_failed", EventType(InvoicePaymentFailed{}))
	assert.Equal(t, "customer.subscription.updated", EventType(SubscriptionUpdated{}))
	assert.Equal(t, "customer.subscription.deleted", EventType(SubscriptionDeleted{}))
	assert.Equal(t, "charge.refunded", EventType(UnhandledEvent{Type: "charge.refunded"}))
}
