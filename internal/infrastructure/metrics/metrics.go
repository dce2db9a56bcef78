package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/casacambio/cashledger/internal/domain"
)

// Metrics holds all Prometheus metrics and implements usecase.Metrics.
type Metrics struct {
	// Posting metrics
	MovementsPosted *prometheus.CounterVec
	PostingDuration prometheus.Histogram
	MovementAmount  *prometheus.HistogramVec
	PostingFailures *prometheus.CounterVec
	LockTimeouts    prometheus.Counter

	// Reconciliation metrics
	Reconciliations *prometheus.CounterVec
	DriftAbs        prometheus.Histogram

	// Chain metrics
	ChainChecks   prometheus.Counter
	ChainFindings *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge

	// Outbox metrics
	EventsPublished *prometheus.CounterVec
	PublishFailures prometheus.Counter
}

// New creates all metrics and registers them with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	f := promauto.With(reg)

	return &Metrics{
		MovementsPosted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashledger_movements_posted_total",
				Help: "Total movements appended to the log by kind",
			},
			[]string{"kind"},
		),
		PostingDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "cashledger_posting_duration_seconds",
			Help:    "Duration of posting transactions",
			Buckets: prometheus.DefBuckets,
		}),
		MovementAmount: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cashledger_movement_amount",
				Help:    "Absolute movement amounts",
				Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
			},
			[]string{"kind"},
		),
		PostingFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashledger_posting_failures_total",
				Help: "Total failed postings by reason",
			},
			[]string{"reason"},
		),
		LockTimeouts: f.NewCounter(prometheus.CounterOpts{
			Name: "cashledger_lock_timeouts_total",
			Help: "Total postings that gave up waiting for a balance lock",
		}),

		Reconciliations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashledger_reconciliations_total",
				Help: "Total reconciliations by outcome",
			},
			[]string{"outcome"},
		),
		DriftAbs: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "cashledger_reconciliation_drift",
			Help:    "Absolute drift found by reconciliations that detected one",
			Buckets: []float64{0.01, 0.1, 1, 10, 100, 1000, 10000},
		}),

		ChainChecks: f.NewCounter(prometheus.CounterOpts{
			Name: "cashledger_chain_checks_total",
			Help: "Total chain integrity checks",
		}),
		ChainFindings: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashledger_chain_findings_total",
				Help: "Chain integrity findings by type",
			},
			[]string{"type"},
		),

		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cashledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "cashledger_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),

		EventsPublished: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashledger_events_published_total",
				Help: "Total outbox events published by type",
			},
			[]string{"event_type"},
		),
		PublishFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "cashledger_event_publish_failures_total",
			Help: "Total outbox events that failed to publish",
		}),
	}
}

// MovementPosted records a committed movement.
func (m *Metrics) MovementPosted(kind domain.MovementKind, amount decimal.Decimal, duration time.Duration) {
	m.MovementsPosted.WithLabelValues(string(kind)).Inc()
	m.MovementAmount.WithLabelValues(string(kind)).Observe(amount.Abs().InexactFloat64())
	m.PostingDuration.Observe(duration.Seconds())
}

// PostingFailed records a rejected or failed posting.
func (m *Metrics) PostingFailed(reason string) {
	m.PostingFailures.WithLabelValues(reason).Inc()
}

// LockTimeout records a bounded lock wait that expired.
func (m *Metrics) LockTimeout() {
	m.LockTimeouts.Inc()
}

// ReconciliationCompleted records the outcome of one pair's reconciliation.
func (m *Metrics) ReconciliationCompleted(result *domain.ReconciliationResult) {
	switch {
	case result.Corrected:
		m.Reconciliations.WithLabelValues("corrected").Inc()
	case result.Drift:
		m.Reconciliations.WithLabelValues("drift").Inc()
	default:
		m.Reconciliations.WithLabelValues("clean").Inc()
	}

	if result.Drift {
		m.DriftAbs.Observe(result.Diferencia.Abs().InexactFloat64())
	}
}

// ChainChecked records a chain walk and its findings.
func (m *Metrics) ChainChecked(report *domain.ChainReport) {
	m.ChainChecks.Inc()
	m.ChainFindings.WithLabelValues("chain_break").Add(float64(len(report.ChainBreaks)))
	m.ChainFindings.WithLabelValues("calculation_break").Add(float64(len(report.CalculationBreaks)))
	m.ChainFindings.WithLabelValues("sign_warning").Add(float64(len(report.SignWarnings)))

	if report.ComponentDrift != nil {
		m.ChainFindings.WithLabelValues("component_drift").Inc()
	}
}

// EventPublished records an outbox event handed to the broker.
func (m *Metrics) EventPublished(eventType string) {
	m.EventsPublished.WithLabelValues(eventType).Inc()
}

// EventPublishFailed records an outbox event the broker rejected.
func (m *Metrics) EventPublishFailed() {
	m.PublishFailures.Inc()
}
