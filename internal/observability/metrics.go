package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MappingsCreated counts newly stored mappings.
	MappingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ridiculink_mappings_created_total",
		Help: "Total number of mappings created with a fresh surrogate",
	})

	// MappingsReused counts create calls answered by an existing valid mapping.
	MappingsReused = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ridiculink_mappings_reused_total",
		Help: "Total number of create calls that returned an existing mapping",
	})

	// Resolutions counts surrogate lookups by result ("hit" or "miss").
	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ridiculink_resolutions_total",
		Help: "Total number of surrogate resolutions by result",
	}, []string{"result"})

	// StorageFailures counts backend errors by operation.
	StorageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ridiculink_storage_failures_total",
		Help: "Total number of storage backend failures",
	}, []string{"op"})

	// MappingsPurged counts expired mappings removed by housekeeping.
	MappingsPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ridiculink_mappings_purged_total",
		Help: "Total number of expired mappings purged",
	})
)

// RecordResolution records a surrogate lookup outcome.
func RecordResolution(hit bool) {
	if hit {
		Resolutions.WithLabelValues("hit").Inc()
		return
	}
	Resolutions.WithLabelValues("miss").Inc()
}

// RecordStorageFailure records a failed backend operation.
func RecordStorageFailure(op string) {
	StorageFailures.WithLabelValues(op).Inc()
}
