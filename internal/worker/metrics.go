package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the worker's Prometheus collectors
type Metrics struct {
	Processed prometheus.Counter
	Acked     prometheus.Counter
	Nacked    prometheus.Counter
	Poison    prometheus.Counter
	Duration  prometheus.Histogram
}

// NewMetrics registers the worker collectors on the given registerer
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Processed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fastq_worker",
			Name:      "jobs_processed_total",
			Help:      "Total number of messages pulled and processed.",
		}),
		Acked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fastq_worker",
			Name:      "jobs_acked_total",
			Help:      "Total number of messages acknowledged after a recorded result.",
		}),
		Nacked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fastq_worker",
			Name:      "jobs_nacked_total",
			Help:      "Total number of messages negatively acknowledged for redelivery.",
		}),
		Poison: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fastq_worker",
			Name:      "poison_messages_total",
			Help:      "Total number of messages that can never be processed.",
		}),
		Duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fastq_worker",
			Name:      "job_duration_seconds",
			Help:      "Wall-clock processing time per message.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
}
