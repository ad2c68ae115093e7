package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	t.Run("should count observations", func(t *testing.T) {
		m := New(prometheus.NewRegistry())

		m.ObserveLoad("memory")
		m.ObserveLoad("memory")
		m.ObserveRefresh("success", 1.5, 3, 1, 0)
		m.ObserveRetry("quote", "throttled")
		m.ObserveIngestedBars(4)

		assert.Equal(t, 2.0, testutil.ToFloat64(m.loads.WithLabelValues("memory")))
		assert.Equal(t, 3.0, testutil.ToFloat64(m.symbols.WithLabelValues("refreshed")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.upstreamRetries.WithLabelValues("quote", "throttled")))
		assert.Equal(t, 4.0, testutil.ToFloat64(m.ingestedBars))
	})

	t.Run("should ignore calls on nil", func(t *testing.T) {
		var m *Metrics

		assert.NotPanics(t, func() {
			m.ObserveLoad("database")
			m.ObserveRefresh("error", 0, 0, 0, 0)
			m.ObserveRetry("spark", "upstream")
			m.ObserveIngestedBars(1)
		})
	})
}
