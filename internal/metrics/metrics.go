// Package metrics exposes Prometheus collectors for quiz sessions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "quizwhiz"

var (
	verdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "grading",
		Name:      "verdicts_total",
		Help:      "Graded answers by question kind and outcome.",
	}, []string{"kind", "outcome"})

	gradingFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "grading",
		Name:      "failures_total",
		Help:      "Remote grading calls that failed and were recovered locally.",
	}, []string{"reason"})

	gradingLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "grading",
		Name:      "remote_duration_seconds",
		Help:      "Latency of remote subjective grading calls.",
		Buckets:   prometheus.DefBuckets,
	})

	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "active",
		Help:      "Sessions currently running.",
	})

	sessionsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "completed_total",
		Help:      "Sessions that reached completion.",
	})

	recognitionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "speech",
		Name:      "recognition_errors_total",
		Help:      "Speech recognition errors by kind.",
	}, []string{"kind"})

	voiceMatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "speech",
		Name:      "voice_matches_total",
		Help:      "Voice transcripts matched against options.",
	}, []string{"result"})
)

// ObserveVerdict counts a graded answer.
func ObserveVerdict(kind string, correct bool) {
	outcome := "incorrect"
	if correct {
		outcome = "correct"
	}
	verdicts.WithLabelValues(kind, outcome).Inc()
}

func ObserveGradingFailure(reason string) {
	gradingFailures.WithLabelValues(reason).Inc()
}

func ObserveGradingLatency(seconds float64) {
	gradingLatency.Observe(seconds)
}

func SessionStarted() {
	sessionsActive.Inc()
}

// SessionClosed decrements the active gauge; completed marks a finished quiz.
func SessionClosed(completed bool) {
	sessionsActive.Dec()
	if completed {
		sessionsCompleted.Inc()
	}
}

func ObserveRecognitionError(kind string) {
	recognitionErrors.WithLabelValues(kind).Inc()
}

func ObserveVoiceMatch(matched bool) {
	result := "no_match"
	if matched {
		result = "matched"
	}
	voiceMatches.WithLabelValues(result).Inc()
}

// RegisterConnectionGauge exports the number of open session sockets. Call it
// once per process.
func RegisterConnectionGauge(count func() int) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ws",
		Name:      "connections",
		Help:      "Open session WebSocket connections.",
	}, func() float64 { return float64(count()) })
}
