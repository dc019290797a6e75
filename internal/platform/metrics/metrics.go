// Package metrics exposes the Prometheus instruments for the ledger, the vision
// proxy and the HTTP layer. A nil *Metrics is valid and records nothing.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/SscSPs/smartlens_backend/internal/apperrors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "smartlens"

// Ledger operation results.
const (
	ResultOK                  = "ok"
	ResultInsufficientCredits = "insufficient_credits"
	ResultNotFound            = "not_found"
	ResultValidation          = "validation"
	ResultLockTimeout         = "lock_timeout"
	ResultConflict            = "conflict"
	ResultStorage             = "storage"
	ResultUpstream            = "upstream"
	ResultError               = "error"
)

// Metrics holds the application instruments.
type Metrics struct {
	ledgerOps      *prometheus.CounterVec
	creditsMoved   *prometheus.CounterVec
	lockWait       prometheus.Histogram
	accountsOpened prometheus.Counter
	visionCalls    *prometheus.CounterVec
	visionLatency  *prometheus.HistogramVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	rateLimited    prometheus.Counter
}

// New creates the instruments and registers them with registerer
// (prometheus.DefaultRegisterer when nil).
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		ledgerOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_operations_total",
			Help:      "Ledger balance changes by transaction kind and result.",
		}, []string{"kind", "result"}),
		creditsMoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_credits_total",
			Help:      "Absolute credits moved by committed ledger changes, by transaction kind.",
		}, []string{"kind"}),
		lockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ledger_lock_wait_seconds",
			Help:      "Time spent waiting for a per-account ledger lock.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}),
		accountsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_created_total",
			Help:      "Accounts created on first lookup.",
		}),
		visionCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vision_requests_total",
			Help:      "Calls to the vision API by operation and result.",
		}, []string{"operation", "result"}),
		visionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "vision_request_duration_seconds",
			Help:      "Latency of vision API calls.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
		}, []string{"operation"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}

	registerer.MustRegister(
		m.ledgerOps,
		m.creditsMoved,
		m.lockWait,
		m.accountsOpened,
		m.visionCalls,
		m.visionLatency,
		m.httpRequests,
		m.httpDuration,
		m.rateLimited,
	)
	return m
}

// Classify maps an error onto the result label used by ledger and vision counters.
func Classify(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, apperrors.ErrInsufficientCredits):
		return ResultInsufficientCredits
	case errors.Is(err, apperrors.ErrNotFound):
		return ResultNotFound
	case errors.Is(err, apperrors.ErrValidation):
		return ResultValidation
	case errors.Is(err, apperrors.ErrLockTimeout):
		return ResultLockTimeout
	case errors.Is(err, apperrors.ErrConcurrencyConflict):
		return ResultConflict
	case errors.Is(err, apperrors.ErrStorageUnavailable):
		return ResultStorage
	case errors.Is(err, apperrors.ErrUpstream):
		return ResultUpstream
	default:
		return ResultError
	}
}

// RecordLedgerOperation counts one ApplyDelta outcome. amount is the signed delta.
func (m *Metrics) RecordLedgerOperation(kind string, amount int64, err error) {
	if m == nil {
		return
	}
	m.ledgerOps.WithLabelValues(kind, Classify(err)).Inc()
	if err == nil {
		if amount < 0 {
			amount = -amount
		}
		m.creditsMoved.WithLabelValues(kind).Add(float64(amount))
	}
}

// ObserveLockWait records how long a caller waited for an account lock.
func (m *Metrics) ObserveLockWait(d time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.Observe(d.Seconds())
}

// RecordAccountCreated counts a newly created account.
func (m *Metrics) RecordAccountCreated() {
	if m == nil {
		return
	}
	m.accountsOpened.Inc()
}

// RecordVisionCall counts one call to the vision API.
func (m *Metrics) RecordVisionCall(operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.visionCalls.WithLabelValues(operation, Classify(err)).Inc()
	m.visionLatency.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordHTTPRequest counts one served request. route is the matched route pattern.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordRateLimited counts one request rejected with 429.
func (m *Metrics) RecordRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}
