// Package metrics defines and registers all custom Prometheus metrics for the
// CanteenX ordering API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry at package init
// via promauto, and exposed on /metrics next to the HTTP metrics collected by
// echoprometheus.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/canteenx/canteen-system/internal/core/domain"
)

const namespace = "canteen"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts register and login attempts.
// Labels:
//   - operation: "register" or "login"
//   - result: "success", or the category of failure ("validation", "conflict",
//     "unauthenticated", "error")
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of registration and login attempts, by outcome.",
	},
	[]string{"operation", "result"},
)

// ── Order metrics ─────────────────────────────────────────────────────────────

// OrdersCreatedTotal counts newly placed orders. Idempotent replays are not counted.
var OrdersCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "Total number of orders placed.",
	},
)

// OrderValueTotal sums the totals of placed orders, in paise.
var OrderValueTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_value_total",
		Help:      "Sum of order totals at checkout, in minor currency units.",
	},
)

// OrderStatusTransitionsTotal counts applied status changes.
// Label:
//   - to: the status the order moved into
var OrderStatusTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_status_transitions_total",
		Help:      "Total number of order status transitions, by target status.",
	},
	[]string{"to"},
)

// RecordAuthAttempt increments AuthAttemptsTotal for the outcome of operation.
func RecordAuthAttempt(operation string, err error) {
	AuthAttemptsTotal.WithLabelValues(operation, authResult(err)).Inc()
}

// RecordOrderCreated updates the order counters for a freshly placed order.
func RecordOrderCreated(total domain.Money) {
	OrdersCreatedTotal.Inc()
	if total > 0 {
		OrderValueTotal.Add(float64(total))
	}
}

func authResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrUnauthenticated):
		return "unauthenticated"
	default:
		return "error"
	}
}
