package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	sessionsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "presencebot",
		Subsystem: "sessions",
		Name:      "started_total",
		Help:      "Number of activity sessions started.",
	})
	sessionsEnded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "presencebot",
		Subsystem: "sessions",
		Name:      "ended_total",
		Help:      "Number of activity sessions ended, by session type.",
	}, []string{"session_type"})
	activeSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "presencebot",
		Subsystem: "sessions",
		Name:      "active",
		Help:      "Number of currently active sessions.",
	})
	notificationFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "presencebot",
		Subsystem: "notify",
		Name:      "failures_total",
		Help:      "Number of failed outbound event notifications, by event type.",
	}, []string{"event_type"})
	retrospectivesGenerated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "presencebot",
		Subsystem: "stats",
		Name:      "retrospectives_total",
		Help:      "Number of retrospectives generated, by period.",
	}, []string{"period"})
)

func init() {
	prometheus.MustRegister(
		sessionsStarted,
		sessionsEnded,
		activeSessions,
		notificationFailures,
		retrospectivesGenerated,
	)
}

// RecordSessionStarted increments the started counter.
func RecordSessionStarted() {
	sessionsStarted.Inc()
}

// RecordSessionEnded increments the ended counter for the session type.
func RecordSessionEnded(sessionType string) {
	sessionsEnded.WithLabelValues(sessionType).Inc()
}

// SetActiveSessions updates the active session gauge.
func SetActiveSessions(count int) {
	activeSessions.Set(float64(count))
}

// RecordNotificationFailure increments the failure counter for an event type.
func RecordNotificationFailure(eventType string) {
	notificationFailures.WithLabelValues(eventType).Inc()
}

// RecordRetrospective counts a generated retrospective.
func RecordRetrospective(period string) {
	retrospectivesGenerated.WithLabelValues(period).Inc()
}
