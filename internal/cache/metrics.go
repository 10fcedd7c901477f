package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	hits          prometheus.Counter
	misses        prometheus.Counter
	loads         prometheus.Counter
	loadErrors    prometheus.Counter
	shared        prometheus.Counter
	invalidations prometheus.Counter
	commits       prometheus.Counter
	rollbacks     prometheus.Counter
}

// newMetrics registers the cache counters on reg. A nil reg yields working
// but unregistered counters, which keeps tests free of global state.
func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	counter := func(name, help string) prometheus.Counter {
		return f.NewCounter(prometheus.CounterOpts{
			Namespace: "hoardings",
			Subsystem: "cache",
			Name:      name,
			Help:      help,
		})
	}
	return &metrics{
		hits:          counter("hits_total", "Fetches served from a fresh entry."),
		misses:        counter("misses_total", "Fetches that needed a load."),
		loads:         counter("loads_total", "Loader invocations, retries included."),
		loadErrors:    counter("load_errors_total", "Loads that failed after retries."),
		shared:        counter("shared_total", "Fetches that received a result shared with other callers."),
		invalidations: counter("invalidations_total", "Entries marked stale by Invalidate."),
		commits:       counter("mutation_commits_total", "Mutations committed."),
		rollbacks:     counter("mutation_rollbacks_total", "Mutations rolled back."),
	}
}
