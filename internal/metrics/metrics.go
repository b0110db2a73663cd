package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Coordinator
	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_sessions_created_total",
			Help: "Total number of quiz sessions created",
		},
	)

	SessionsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "quiz_sessions_active",
			Help: "Sessions held in memory by status",
		},
		[]string{"status"},
	)

	SessionsSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_sessions_swept_total",
			Help: "Finished sessions removed after the retention window",
		},
	)

	AnswersRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_answers_recorded_total",
			Help: "Answers written to the ledger",
		},
		[]string{"kind"}, // "answer", "abstain", "overwrite", "deadline"
	)

	OperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_operation_errors_total",
			Help: "Caller-facing coordinator errors",
		},
		[]string{"operation", "error"},
	)

	QuestionSourceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quiz_question_source_duration_seconds",
			Help:    "Duration of question source fetches",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source", "status"},
	)

	// Persistence synchronizer
	StoreOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_store_ops_total",
			Help: "Durable store mirror operations by outcome",
		},
		[]string{"op", "status"}, // status: "ok", "error", "dropped", "breaker_open"
	)

	StoreOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quiz_store_op_duration_seconds",
			Help:    "Duration of durable store mirror operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	SyncQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quiz_sync_queue_depth",
			Help: "Mirror operations waiting for the store worker",
		},
	)

	BreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quiz_store_breaker_state",
			Help: "Durable store circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// Transport
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quiz_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quiz_ws_connections",
			Help: "Open websocket connections",
		},
	)

	WSEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_ws_events_dropped_total",
			Help: "Events dropped because a client send buffer was full",
		},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)

// RecordStoreOp records one mirror operation against the durable store.
func RecordStoreOp(op string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	StoreOps.WithLabelValues(op, status).Inc()
	StoreOpDuration.WithLabelValues(op).Observe(duration.Seconds())
}

func RecordQuestionFetch(source string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	QuestionSourceDuration.WithLabelValues(source, status).Observe(duration.Seconds())
}
