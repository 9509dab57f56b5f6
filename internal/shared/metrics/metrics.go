package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aushad"

var (
	pipelineRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pipeline_requests_total",
		Help:      "Pipeline requests by route and outcome.",
	}, []string{"route", "outcome"})

	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_ms",
		Help:      "Duration of pipeline stages in milliseconds.",
		Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000},
	}, []string{"stage"})

	reportFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "report_failures_total",
		Help:      "Medical reports skipped because decoding or recognition failed.",
	})

	degradedParses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analytics_degraded_total",
		Help:      "Analytics responses that could not be parsed as JSON.",
	})

	activeConversations = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_conversations",
		Help:      "Number of live chat conversations.",
	})
)

// IncRequest counts one pipeline request for route. Outcomes in use: ok, degraded, failed, client_error, server_error.
func IncRequest(route, outcome string) {
	pipelineRequests.WithLabelValues(route, outcome).Inc()
}

// ObserveStage records how long a pipeline stage (decode, ocr, stt, llm, persist) took.
func ObserveStage(stage string, d time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(float64(d.Microseconds()) / 1000.0)
}

// IncReportFailed increments the skipped report counter.
func IncReportFailed() {
	reportFailures.Inc()
}

// IncDegraded increments the degraded analytics counter.
func IncDegraded() {
	degradedParses.Inc()
}

// SetActiveConversations sets the live conversation gauge.
func SetActiveConversations(n int) {
	activeConversations.Set(float64(n))
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
