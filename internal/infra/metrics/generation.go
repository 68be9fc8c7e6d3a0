package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(generationsTotal, generationLatency) }

var generationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "generations_total",
		Help: "Total generation attempts, labeled by stage and outcome.",
	},
	[]string{"stage", "success"}, // stage: 'image', 'video', 'thumbnail'
)

var generationLatency = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "generation_latency_seconds",
		Help:    "Generation call latency distribution in seconds.",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 180, 300},
	},
	[]string{"stage"},
)

func ObserveGeneration(stage string, ok bool, elapsed time.Duration) {
	generationsTotal.WithLabelValues(norm(stage), strconv.FormatBool(ok)).Inc()
	generationLatency.WithLabelValues(norm(stage)).Observe(elapsed.Seconds())
}
