package domain

// Event is the tagged union of billing provider notifications the processor
// understands. Every payload parses into exactly one variant; anything the
// parser does not recognise becomes UnhandledEvent, so new provider event
// types are acknowledged instead of rejected.
type Event interface {
	// ProviderEventID is the provider's unique id for this delivery, used
	// for deduplication and archiving.
	ProviderEventID() string
	isEvent()
}

// CheckoutSessionCompleted is the first-subscription purchase. It is the only
// event that carries the application's own account reference; it establishes
// the billing_customer_id index every later event is resolved through.
type CheckoutSessionCompleted struct {
	EventID        string
	Mode           string
	AccountRef     string
	CustomerID     string
	SubscriptionID string
}

func (e CheckoutSessionCompleted) ProviderEventID() string { return e.EventID }
func (CheckoutSessionCompleted) isEvent()                  {}

type InvoicePaymentSucceeded struct {
	EventID         string
	CustomerID      string
	PaymentIntentID string
	ChargeID        string
	InvoiceID       string
	AmountPaidCents int64
}

func (e InvoicePaymentSucceeded) ProviderEventID() string { return e.EventID }
func (InvoicePaymentSucceeded) isEvent()                  {}

// PaymentID is the natural key for the ledger: the payment intent when
// present, else the charge, else the invoice id.
func (e InvoicePaymentSucceeded) PaymentID() string {
	if e.PaymentIntentID != "" {
		return e.PaymentIntentID
	}
	if e.ChargeID != "" {
		return e.ChargeID
	}
	return e.InvoiceID
}

type InvoicePaymentFailed struct {
	EventID    string
	CustomerID string
}

func (e InvoicePaymentFailed) ProviderEventID() string { return e.EventID }
func (InvoicePaymentFailed) isEvent()                  {}

type SubscriptionUpdated struct {
	EventID        string
	CustomerID     string
	SubscriptionID string
}

func (e SubscriptionUpdated) ProviderEventID() string { return e.EventID }
func (SubscriptionUpdated) isEvent()                  {}

type SubscriptionDeleted struct {
	EventID    string
	CustomerID string
}

func (e SubscriptionDeleted) ProviderEventID() string { return e.EventID }
func (SubscriptionDeleted) isEvent()                  {}

type UnhandledEvent struct {
	EventID string
	Type    string
}

func (e UnhandledEvent) ProviderEventID() string { return e.EventID }
func (UnhandledEvent) isEvent()                  {}

// EventType reports the provider-side type tag of a parsed event, for
// logging and the archive.
func EventType(event Event) string {
	switch e := event.(type) {
	case CheckoutSessionCompleted:
		return "checkout.session.completed"
	case InvoicePaymentSucceeded:
		return "invoice.payment_succeeded"
	case InvoicePaymentFailed:
		return "invoice.payment_failed"
	case SubscriptionUpdated:
		return "customer.subscription.updated"
	case SubscriptionDeleted:
		return "customer.subscription.deleted"
	case UnhandledEvent:
		return e.Type
	default:
		return ""
	}
}
