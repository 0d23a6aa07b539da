package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AnalyzeRequests tracks total /analyze requests by outcome
	AnalyzeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyze_requests_total",
			Help: "Total number of analyze requests by status code class and outcome",
		},
		[]string{"status_code", "outcome"},
	)

	// AnalyzeDuration tracks end-to-end /analyze handling duration
	AnalyzeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analyze_duration_seconds",
			Help:    "Duration of analyze request handling in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"outcome"},
	)

	// UploadRejections tracks rejected uploads by reason
	UploadRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upload_rejections_total",
			Help: "Total number of rejected uploads by reason",
		},
		[]string{"reason"},
	)

	// ClassifierDuration tracks classifier subprocess duration
	ClassifierDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "classifier_duration_seconds",
			Help:    "Duration of classifier invocations in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"status"},
	)

	// ClassifierInvocations tracks classifier invocations by status
	ClassifierInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classifier_invocations_total",
			Help: "Total number of classifier invocations by status",
		},
		[]string{"status"},
	)

	// ClassifierExitCodes tracks non-zero classifier exit codes
	ClassifierExitCodes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classifier_exit_codes_total",
			Help: "Total number of classifier exits by exit code",
		},
		[]string{"exit_code"},
	)
)

// RecordAnalyzeRequest records a completed analyze request
func RecordAnalyzeRequest(statusCode int, outcome string, duration float64) {
	AnalyzeRequests.WithLabelValues(fmt.Sprintf("%d", statusCode), outcome).Inc()
	AnalyzeDuration.WithLabelValues(outcome).Observe(duration)
}

// RecordUploadRejection records a rejected upload
func RecordUploadRejection(reason string) {
	UploadRejections.WithLabelValues(reason).Inc()
}

// RecordClassifierInvocation records a classifier run
func RecordClassifierInvocation(status string, exitCode int, duration float64) {
	ClassifierInvocations.WithLabelValues(status).Inc()
	ClassifierDuration.WithLabelValues(status).Observe(duration)
	if exitCode != 0 {
		ClassifierExitCodes.WithLabelValues(fmt.Sprintf("%d", exitCode)).Inc()
	}
}
