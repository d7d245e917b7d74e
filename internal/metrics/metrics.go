package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes application-level counters.
type Metrics struct {
	PaymentsCreated  *prometheus.CounterVec
	PaymentEvents    *prometheus.CounterVec
	OrderTransitions *prometheus.CounterVec
	EmailsSent       *prometheus.CounterVec
}

// New registers the domain counters on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PaymentsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopforge_payments_created_total",
			Help: "Payments created, by method.",
		}, []string{"method"}),
		PaymentEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopforge_payment_events_total",
			Help: "Normalized payment status events emitted, by status.",
		}, []string{"status"}),
		OrderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopforge_order_transitions_total",
			Help: "Order status transitions applied by the payment reactor.",
		}, []string{"status"}),
		EmailsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopforge_emails_sent_total",
			Help: "Notification emails sent, by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.PaymentsCreated, m.PaymentEvents, m.OrderTransitions, m.EmailsSent)
	return m
}
