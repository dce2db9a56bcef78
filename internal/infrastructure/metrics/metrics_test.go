package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casacambio/cashledger/internal/domain"
	"github.com/casacambio/cashledger/internal/usecase"
)

var _ usecase.Metrics = (*Metrics)(nil)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.PostingFailed("validation")

	metricFamilies, err := registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, metricFamilies)
}

func TestMovementPosted(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.MovementPosted(domain.KindEgreso, decimal.NewFromInt(-40), 20*time.Millisecond)
	m.MovementPosted(domain.KindEgreso, decimal.NewFromInt(-10), 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.MovementsPosted.WithLabelValues("EGRESO")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.MovementsPosted.WithLabelValues("INGRESO")))
}

func TestPostingFailuresAndLockTimeouts(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.PostingFailed("lock_timeout")
	m.LockTimeout()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PostingFailures.WithLabelValues("lock_timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LockTimeouts))
}

func TestReconciliationCompleted(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ReconciliationCompleted(&domain.ReconciliationResult{})
	m.ReconciliationCompleted(&domain.ReconciliationResult{Drift: true, Diferencia: decimal.NewFromInt(-50)})
	m.ReconciliationCompleted(&domain.ReconciliationResult{Drift: true, Corrected: true, Diferencia: decimal.NewFromInt(5)})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reconciliations.WithLabelValues("clean")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reconciliations.WithLabelValues("drift")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reconciliations.WithLabelValues("corrected")))
}

func TestChainChecked(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ChainChecked(&domain.ChainReport{
		ChainBreaks:       []domain.ChainBreak{{}, {}},
		CalculationBreaks: []domain.CalculationBreak{{}},
		ComponentDrift:    &domain.ComponentDrift{},
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChainChecks))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ChainFindings.WithLabelValues("chain_break")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChainFindings.WithLabelValues("calculation_break")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ChainFindings.WithLabelValues("sign_warning")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChainFindings.WithLabelValues("component_drift")))
}
