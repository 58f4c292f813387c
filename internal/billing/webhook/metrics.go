package webhook

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "memberhub",
	Subsystem: "webhook",
	Name:      "events_total",
	Help:      "Webhook events by provider event type and processing result.",
}, []string{"type", "result"})

const (
	resultProcessed = "processed"
	resultSkipped   = "skipped"
	resultDuplicate = "duplicate"
	resultFailed    = "failed"
)
