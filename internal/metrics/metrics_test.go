package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMustRegisterHelpers(t *testing.T) {
	counter := MustRegisterCounter(Namespace, "helper_test", "events_total", "Test counter.")
	counter.Add(2)
	assert.Equal(t, float64(2), testutil.ToFloat64(counter))

	vec := MustRegisterCounterVec(Namespace, "helper_test", "labelled_total", "Test counter vector.", "kind")
	vec.WithLabelValues("a").Inc()
	vec.WithLabelValues("b").Add(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(vec.WithLabelValues("b")))
	assert.Equal(t, 2, testutil.CollectAndCount(vec))

	gauge := MustRegisterGauge(Namespace, "helper_test", "level", "Test gauge.")
	gauge.Set(7)
	gauge.Dec()
	assert.Equal(t, float64(6), testutil.ToFloat64(gauge))

	hist := MustRegisterHistogram(Namespace, "helper_test", "seconds", "Test histogram.", []float64{1, 5})
	hist.Observe(0.5)
	hist.Observe(3)
	expected := `
# HELP enchantments_helper_test_seconds Test histogram.
# TYPE enchantments_helper_test_seconds histogram
enchantments_helper_test_seconds_bucket{le="1"} 1
enchantments_helper_test_seconds_bucket{le="5"} 2
enchantments_helper_test_seconds_bucket{le="+Inf"} 2
enchantments_helper_test_seconds_sum 3.5
enchantments_helper_test_seconds_count 2
`
	assert.NoError(t, testutil.CollectAndCompare(hist, strings.NewReader(expected)))

	// names are unique per registry
	assert.Panics(t, func() {
		MustRegisterCounter(Namespace, "helper_test", "events_total", "Duplicate.")
	})
}

func TestResolverCollectorsAreRegistered(t *testing.T) {
	FetchTotal.WithLabelValues(OutcomeBlocked).Add(0)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	for _, name := range []string{
		"enchantments_resolver_cache_hits_total",
		"enchantments_resolver_cache_misses_total",
		"enchantments_resolver_shared_total",
		"enchantments_resolver_fetch_total",
		"enchantments_resolver_fetch_duration_seconds",
		"enchantments_resolver_queue_depth",
		"enchantments_resolver_in_flight",
		"enchantments_resolver_active_workers",
		"enchantments_resolver_cooldown_trips_total",
	} {
		assert.True(t, names[name], name)
	}
}

func TestCooldownTripsTotal(t *testing.T) {
	before := testutil.ToFloat64(CooldownTripsTotal)
	CooldownTripsTotal.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(CooldownTripsTotal))
}
