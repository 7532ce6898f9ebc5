// Package metrics registers the Prometheus instrumentation for the
// boundary API, grounded directly on the teacher's metrics.go
// (metrics_RpcRequestByMethod, metrics_methodToSuccessOrFailure,
// metrics_responseTimeHistogram, metrics_epochsAvailable): the same
// CounterVec/HistogramVec/GaugeVec + init()-time MustRegister shape.
package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	prometheus.MustRegister(OperationsTotal)
	prometheus.MustRegister(OperationResult)
	prometheus.MustRegister(OperationDuration)
	prometheus.MustRegister(LiveHandles)
	prometheus.MustRegister(TotalTerms)
}

// OperationsTotal counts boundary calls by operation name.
var OperationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sortedset_operations_total",
		Help: "Boundary API calls by operation.",
	},
	[]string{"operation"},
)

// OperationResult counts boundary calls by operation and result kind ("ok",
// "lock_fail", "bad_reference", "invalid_config").
var OperationResult = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sortedset_operation_result_total",
		Help: "Boundary API calls by operation and result kind.",
	},
	[]string{"operation", "result"},
)

// OperationDuration is a latency histogram per operation.
var OperationDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "sortedset_operation_duration_seconds",
		Help:    "Boundary API call latency by operation.",
		Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12), // 1us .. ~4.2s
	},
	[]string{"operation"},
)

// LiveHandles is the current count of live handles in the registry.
var LiveHandles = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "sortedset_live_handles",
		Help: "Number of currently live handles.",
	},
)

// TotalTerms is the current sum of Size() across every live handle.
var TotalTerms = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "sortedset_total_terms",
		Help: "Sum of term counts across every live handle.",
	},
)
