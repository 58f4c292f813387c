package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromProviderStatus(t *testing.T) {
	tests := []struct {
		name            string
		providerStatus  string
		cancelScheduled bool
		want            Status
	}{
		{"active stays active", "active", false, StatusActive},
		{"active with scheduled cancel", "active", true, StatusPendingCancellation},
		{"canceled wins over cancel flag", "canceled", true, StatusCanceled},
		{"canceled", "canceled", false, StatusCanceled},
		{"past_due passes through", "past_due", false, Status("past_due")},
		{"unknown status passes through", "incomplete_expired", false, Status("incomplete_expired")},
		{"unknown status ignores cancel flag", "trialing", true, Status("trialing")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromProviderStatus(tt.providerStatus, tt.cancelScheduled))
		})
	}
}
