package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionTokensIssued counts tokens issued by verification or refresh.
	SessionTokensIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cafe_session_tokens_issued_total",
			Help: "Table session tokens issued, by reason",
		},
		[]string{"reason"},
	)

	// SessionValidations counts validation outcomes (valid, expired, malformed, superseded).
	SessionValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cafe_session_validations_total",
			Help: "Table session validations by result",
		},
		[]string{"result"},
	)

	OrdersCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cafe_orders_created_total",
			Help: "Orders persisted",
		},
	)

	OrderNumberCollisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cafe_order_number_collisions_total",
			Help: "Generated order numbers rejected by the unique index",
		},
	)

	StatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cafe_status_transitions_total",
			Help: "Applied status transitions by entity, source and target status",
		},
		[]string{"entity", "from", "to"},
	)

	WaiterCallsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cafe_waiter_calls_created_total",
			Help: "Waiter calls persisted",
		},
	)

	AlertsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cafe_alerts_emitted_total",
			Help: "Notifier alerts by kind",
		},
		[]string{"kind"},
	)
)
