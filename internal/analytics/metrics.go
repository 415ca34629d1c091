package analytics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesScanned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sentinel_messages_scanned_total",
			Help: "Total number of inbox rows scanned",
		},
	)

	spamDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sentinel_spam_detected_total",
			Help: "Total number of rows scored above the spam threshold",
		},
	)

	actionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_actions_total",
			Help: "Total number of actions taken on rows",
		},
		[]string{"action"}, // action: delete, unsubscribe, organize, highlight
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_cache_lookups_total",
			Help: "Score cache lookups by outcome",
		},
		[]string{"outcome"}, // outcome: hit, miss
	)

	scanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sentinel_row_scan_duration_seconds",
			Help:    "Time spent scoring a single row",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~1.6s
		},
	)

	errorCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sentinel_errors_total",
			Help: "Total number of recorded processing errors",
		},
	)
)

// RecordScanDuration records how long a single row took to score.
func RecordScanDuration(d time.Duration) {
	scanDuration.Observe(d.Seconds())
}

// RecordAction increments the counter for an executed action.
func RecordAction(action string) {
	actionCount.WithLabelValues(action).Inc()
}
