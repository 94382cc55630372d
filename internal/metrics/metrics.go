package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ocrdispatcher"

var (
	qualityDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quality_decisions_total",
			Help:      "Direct-text quality decisions by outcome (skip_ocr, needs_ocr)",
		},
		[]string{"decision"},
	)

	qualityScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quality_score",
			Help:      "Quality score of directly extracted text",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		},
	)

	ocrPasses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ocr_passes_total",
			Help:      "OCR passes by result (success, timeout, failed, rejected)",
		},
		[]string{"result"},
	)

	ocrPassLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ocr_pass_duration_seconds",
			Help:      "Wall time of a full OCR pass",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		},
	)

	chunks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_total",
			Help:      "Chunk tasks by result (success, failed, cancelled)",
		},
		[]string{"result"},
	)

	chunkLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_duration_seconds",
			Help:      "Duration of a single chunk task",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 12),
		},
	)

	pagesFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_ocr_failed_total",
			Help:      "Pages skipped because the OCR engine failed or returned nothing",
		},
	)

	poolBusy = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_busy_workers",
			Help:      "Workers currently executing a chunk",
		},
	)

	poolCapacity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_capacity",
			Help:      "Configured worker pool size",
		},
	)

	admissionRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admission_rejected_total",
			Help:      "OCR passes refused because the pool was saturated",
		},
	)
)

// Init registers collectors.
func Init() {
	prometheus.MustRegister(qualityDecisions, qualityScore, ocrPasses, ocrPassLatency,
		chunks, chunkLatency, pagesFailed, poolBusy, poolCapacity, admissionRejected)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveQuality(skip bool, score int) {
	decision := "needs_ocr"
	if skip {
		decision = "skip_ocr"
	}
	qualityDecisions.WithLabelValues(decision).Inc()
	qualityScore.Observe(float64(score))
}

func ObserveOCRPass(result string, dur time.Duration) {
	ocrPasses.WithLabelValues(result).Inc()
	ocrPassLatency.Observe(dur.Seconds())
}

func ObserveChunk(result string, dur time.Duration) {
	chunks.WithLabelValues(result).Inc()
	chunkLatency.Observe(dur.Seconds())
}

func IncPageFailed() { pagesFailed.Inc() }
func IncAdmissionRejected() { admissionRejected.Inc() }
func SetPoolCapacity(n int) { poolCapacity.Set(float64(n)) }
func WorkerBusy() { poolBusy.Inc() }
func WorkerIdle() { poolBusy.Dec() }
