package domain

import "time"

// SubscriptionDetails is the provider's current view of a subscription,
// fetched by id when an event does not carry enough state on its own.
type SubscriptionDetails struct {
	ID                string
	Status            string
	CancelAt          *time.Time
	CancelAtPeriodEnd bool
	CurrentPeriodEnd  *time.Time
	// ItemPeriodEnd is the paid-through timestamp of the first subscription
	// item; some provider API versions report the period there instead of
	// on the subscription itself.
	ItemPeriodEnd *time.Time
}

// CancelScheduled reports whether the subscription is flagged to stop
// renewing, either at a fixed time or at the end of the current period.
func (d SubscriptionDetails) CancelScheduled() bool {
	return d.CancelAt != nil || d.CancelAtPeriodEnd
}

// ResolvePeriodEnd picks the paid-through timestamp from its possible
// sources in a fixed order: the subscription-level period end, then the
// first item's period end, then nil. Nil means the provider reported no
// period at all and the column stays NULL.
func ResolvePeriodEnd(d SubscriptionDetails) *time.Time {
	if d.CurrentPeriodEnd != nil {
		return d.CurrentPeriodEnd
	}
	if d.ItemPeriodEnd != nil {
		return d.ItemPeriodEnd
	}
	return nil
}
