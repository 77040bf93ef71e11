package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, m.Write(&out))
	if out.Counter != nil {
		return out.GetCounter().GetValue()
	}
	return out.GetGauge().GetValue()
}

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		ObserveHTTP("/health", "200", 5*time.Millisecond)
	})
}

func TestCounters(t *testing.T) {
	before := value(t, bookings.WithLabelValues("error"))
	IncBooking(errors.New("insert failed"))
	assert.Equal(t, before+1, value(t, bookings.WithLabelValues("error")))

	before = value(t, authOperations.WithLabelValues("local", "sign_in", "ok"))
	IncAuth("local", "sign_in", nil)
	assert.Equal(t, before+1, value(t, authOperations.WithLabelValues("local", "sign_in", "ok")))

	IncSyncTask("upsert", nil)
	assert.GreaterOrEqual(t, value(t, syncTasks.WithLabelValues("upsert", "ok")), 1.0)

	SetActiveClients(3)
	assert.Equal(t, 3.0, value(t, activeClients))
}
