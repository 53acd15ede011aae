package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fitts",
		Name:      "sessions_active",
		Help:      "Number of live study sessions held in memory.",
	})
	metricSessionsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitts",
		Name:      "sessions_completed_total",
		Help:      "Study sessions that reached their last trial.",
	}, []string{"cursor"})
	metricTrialsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitts",
		Name:      "trials_completed_total",
		Help:      "Completed trials by cursor type.",
	}, []string{"cursor"})
	metricMissedClicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitts",
		Name:      "missed_clicks_total",
		Help:      "Missed clicks recorded in completed trials.",
	}, []string{"cursor"})
	metricDegradedPlacements = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fitts",
		Name:      "placement_degraded_total",
		Help:      "Rejection sampling loops that exhausted their attempt budget.",
	})
	metricIgnoredEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitts",
		Name:      "events_ignored_total",
		Help:      "Events rejected by a session without changing its state.",
	}, []string{"reason"})
	metricMovementTime = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fitts",
		Name:      "movement_time_seconds",
		Help:      "Movement time of completed trials.",
		Buckets:   []float64{0.1, 0.2, 0.3, 0.5, 0.75, 1, 1.5, 2, 3, 5},
	}, []string{"cursor"})
	metricSinkErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fitts",
		Name:      "sink_errors_total",
		Help:      "Trial records that at least one sink failed to store.",
	})
)

func SessionStarted()  { metricActiveSessions.Inc() }
func SessionReleased() { metricActiveSessions.Dec() }

func SessionCompleted(cursor string) {
	metricSessionsCompleted.WithLabelValues(cursor).Inc()
}

// TrialCompleted records the outcome of one trial.
func TrialCompleted(cursor string, movementTime time.Duration, missed, degraded int) {
	metricTrialsCompleted.WithLabelValues(cursor).Inc()
	metricMovementTime.WithLabelValues(cursor).Observe(movementTime.Seconds())
	if missed > 0 {
		metricMissedClicks.WithLabelValues(cursor).Add(float64(missed))
	}
	if degraded > 0 {
		metricDegradedPlacements.Add(float64(degraded))
	}
}

// EventIgnored counts an event the session rejected, labelled by reason.
func EventIgnored(reason string) {
	metricIgnoredEvents.WithLabelValues(reason).Inc()
}

func SinkFailed() { metricSinkErrors.Inc() }
