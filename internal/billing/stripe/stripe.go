package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/scsaalabs/memberhub/internal/billing/domain"
	"github.com/scsaalabs/memberhub/internal/config"
)

const defaultAPIBaseURL = "https://api.stripe.com"

type Adapter struct {
	webhookSecret string
	apiKey        string
	baseURL       string
	httpClient    *http.Client
}

func NewAdapter(cfg config.Config) (*Adapter, error) {
	secret := strings.TrimSpace(cfg.Stripe.WebhookSecret)
	if secret == "" {
		return nil, errors.New("stripe webhook secret is required")
	}

	baseURL := strings.TrimSpace(cfg.Stripe.APIBaseURL)
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}

	return &Adapter{
		webhookSecret: secret,
		apiKey:        strings.TrimSpace(cfg.Stripe.APIKey),
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (a *Adapter) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	sigHeader := strings.TrimSpace(headers.Get("Stripe-Signature"))
	if sigHeader == "" {
		return domain.ErrInvalidSignature
	}

	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return domain.ErrInvalidSignature
	}

	signedPayload := fmt.Sprintf("%s.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(a.webhookSecret))
	_, _ = mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, signature := range signatures {
		if hmac.Equal([]byte(signature), []byte(expected)) {
			return nil
		}
	}

	return domain.ErrInvalidSignature
}

func (a *Adapter) Parse(ctx context.Context, payload []byte) (domain.Event, error) {
	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if strings.TrimSpace(event.ID) == "" {
		return nil, domain.ErrInvalidEvent
	}

	switch strings.TrimSpace(event.Type) {
	case "checkout.session.completed":
		return parseCheckoutSession(event)
	case "invoice.payment_succeeded":
		return parseInvoiceSucceeded(event)
	case "invoice.payment_failed":
		return parseInvoiceFailed(event)
	case "customer.subscription.updated":
		return parseSubscriptionUpdated(event)
	case "customer.subscription.deleted":
		return parseSubscriptionDeleted(event)
	default:
		return domain.UnhandledEvent{EventID: event.ID, Type: event.Type}, nil
	}
}

type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type stripeCheckoutSession struct {
	ID                string `json:"id"`
	Mode              string `json:"mode"`
	ClientReferenceID string `json:"client_reference_id"`
	Customer          string `json:"customer"`
	Subscription      string `json:"subscription"`
}

type stripeInvoice struct {
	ID            string `json:"id"`
	Customer      string `json:"customer"`
	PaymentIntent string `json:"payment_intent"`
	Charge        string `json:"charge"`
	AmountPaid    int64  `json:"amount_paid"`
}

type stripeSubscription struct {
	ID                string `json:"id"`
	Customer          string `json:"customer"`
	Status            string `json:"status"`
	CancelAt          int64  `json:"cancel_at"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	CurrentPeriodEnd  int64  `json:"current_period_end"`
	Items             struct {
		Data []struct {
			CurrentPeriodEnd int64 `json:"current_period_end"`
		} `json:"data"`
	} `json:"items"`
}

func parseCheckoutSession(event stripeEvent) (domain.Event, error) {
	var session stripeCheckoutSession
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	return domain.CheckoutSessionCompleted{
		EventID:        event.ID,
		Mode:           session.Mode,
		AccountRef:     strings.TrimSpace(session.ClientReferenceID),
		CustomerID:     session.Customer,
		SubscriptionID: session.Subscription,
	}, nil
}

func parseInvoiceSucceeded(event stripeEvent) (domain.Event, error) {
	var invoice stripeInvoice
	if err := json.Unmarshal(event.Data.Object, &invoice); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	return domain.InvoicePaymentSucceeded{
		EventID:         event.ID,
		CustomerID:      invoice.Customer,
		PaymentIntentID: invoice.PaymentIntent,
		ChargeID:        invoice.Charge,
		InvoiceID:       invoice.ID,
		AmountPaidCents: invoice.AmountPaid,
	}, nil
}

func parseInvoiceFailed(event stripeEvent) (domain.Event, error) {
	var invoice stripeInvoice
	if err := json.Unmarshal(event.Data.Object, &invoice); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	return domain.InvoicePaymentFailed{
		EventID:    event.ID,
		CustomerID: invoice.Customer,
	}, nil
}

func parseSubscriptionUpdated(event stripeEvent) (domain.Event, error) {
	var sub stripeSubscription
	if err := json.Unmarshal(event.Data.Object, &sub); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	return domain.SubscriptionUpdated{
		EventID:        event.ID,
		CustomerID:     sub.Customer,
		SubscriptionID: sub.ID,
	}, nil
}

func parseSubscriptionDeleted(event stripeEvent) (domain.Event, error) {
	var sub stripeSubscription
	if err := json.Unmarshal(event.Data.Object, &sub); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	return domain.SubscriptionDeleted{
		EventID:    event.ID,
		CustomerID: sub.Customer,
	}, nil
}

func parseSignatureHeader(header string) (string, []string, error) {
	parts := strings.Split(header, ",")
	var timestamp string
	signatures := []string{}
	for _, part := range parts {
		piece := strings.TrimSpace(part)
		if piece == "" {
			continue
		}
		keyValue := strings.SplitN(piece, "=", 2)
		if len(keyValue) != 2 {
			continue
		}
		key := strings.TrimSpace(keyValue[0])
		value := strings.TrimSpace(keyValue[1])
		if key == "t" {
			timestamp = value
		}
		if key == "v1" {
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return "", nil, errors.New("invalid_signature")
	}
	return timestamp, signatures, nil
}

func unixTime(value int64) *time.Time {
	if value == 0 {
		return nil
	}
	t := time.Unix(value, 0).UTC()
	return &t
}
