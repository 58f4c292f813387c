package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/scsaalabs/memberhub/internal/billing/domain"
)

// GetSubscription retrieves the provider's current view of a subscription.
// Webhook payloads for subscription updates are partial snapshots; period
// end and cancellation flags come from this call.
func (a *Adapter) GetSubscription(ctx context.Context, subscriptionID string) (*domain.SubscriptionDetails, error) {
	if a.apiKey == "" {
		return nil, errors.New("stripe api key not configured")
	}

	endpoint := fmt.Sprintf("%s/v1/subscriptions/%s", a.baseURL, subscriptionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("stripe api error: %d body: %s", resp.StatusCode, string(bodyBytes))
	}

	var sub stripeSubscription
	if err := json.NewDecoder(resp.Body).Decode(&sub); err != nil {
		return nil, err
	}

	details := &domain.SubscriptionDetails{
		ID:                sub.ID,
		Status:            sub.Status,
		CancelAt:          unixTime(sub.CancelAt),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		CurrentPeriodEnd:  unixTime(sub.CurrentPeriodEnd),
	}
	if len(sub.Items.Data) > 0 {
		details.ItemPeriodEnd = unixTime(sub.Items.Data[0].CurrentPeriodEnd)
	}
	return details, nil
}
