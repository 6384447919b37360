package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.RecordForecast("http", "random", 0.001)
	r.RecordForecast("http", "random", 0.002)
	r.RecordReport("mon-am")
	r.RecordCacheLookup(true)
	r.RecordCacheLookup(false)
	r.RecordError("clickhouse")
	r.SetLiveClients(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.forecasts.WithLabelValues("http", "random")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.reports.WithLabelValues("mon-am")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("clickhouse")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.liveClients))
}

func TestRecorderRegistersOnProvidedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)
	r.RecordReport("sat-pm")

	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)
}
