package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Checkout counts webhook reconciliation outcomes and provider call results.
type Checkout struct {
	WebhookEvents *prometheus.CounterVec
	ProviderCalls *prometheus.CounterVec
}

func NewCheckout(reg prometheus.Registerer) *Checkout {
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hips",
		Subsystem: "checkout",
		Name:      "webhook_events_total",
		Help:      "Webhook deliveries by terminal reconciliation state.",
	}, []string{"state"})

	providerCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hips",
		Subsystem: "checkout",
		Name:      "provider_calls_total",
		Help:      "Outbound Hips order calls by result.",
	}, []string{"result"})

	reg.MustRegister(webhookEvents, providerCalls)

	return &Checkout{
		WebhookEvents: webhookEvents,
		ProviderCalls: providerCalls,
	}
}

func (c *Checkout) ObserveWebhook(state string) {
	c.WebhookEvents.WithLabelValues(state).Inc()
}

func (c *Checkout) ObserveProviderCall(result string) {
	c.ProviderCalls.WithLabelValues(result).Inc()
}
