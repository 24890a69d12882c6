package metrics

import (
	"testing"

	"github.com/jmgilman/go/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounting(t *testing.T) {
	var c Counting
	c.Hit()
	c.Hit()
	c.Hit()
	c.Miss()
	c.Expire()
	c.Shared()
	c.Failure()
	c.Sweep(4)
	c.Sweep(0)

	s := c.Snapshot()
	assert.Equal(t, Snapshot{Hits: 3, Misses: 1, Expired: 1, Shares: 1, Failures: 1, Sweeps: 2, Swept: 4}, s)
	assert.InDelta(t, 0.75, s.HitRatio(), 1e-9)
	assert.Zero(t, Snapshot{}.HitRatio())
}

func TestPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewPrometheus(PrometheusConfig{Registerer: reg, Namespace: "test"})
	require.NoError(t, err)

	p.Hit()
	p.Hit()
	p.Miss()
	p.Shared()
	p.Sweep(3)
	p.Sweep(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.events.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.events.WithLabelValues("miss")))
	assert.Equal(t, 0.0, testutil.ToFloat64(p.events.WithLabelValues("failure")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.sweeps))
	assert.Equal(t, 5.0, testutil.ToFloat64(p.removed))

	n, err := testutil.GatherAndCount(reg, "test_events_total")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestPrometheusDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheus(PrometheusConfig{Registerer: reg})
	require.NoError(t, err)

	_, err = NewPrometheus(PrometheusConfig{Registerer: reg})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
}
