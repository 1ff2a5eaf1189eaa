package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session metrics
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voicebench_active_sessions",
		Help: "Number of active benchmark sessions",
	})

	totalSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicebench_sessions_total",
		Help: "Total number of benchmark sessions",
	})

	// Transcription metrics
	transcriptionEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicebench_transcription_events_total",
		Help: "Transcription events emitted downstream",
	}, []string{"provider", "finality"}) // finality: "final" or "interim"

	finalLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voicebench_final_transcript_latency_seconds",
		Help:    "Anchor-to-final-transcript latency per provider",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
	}, []string{"provider"})

	// Synthesis metrics
	synthesisRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicebench_synthesis_requests_total",
		Help: "Per-provider synthesis outcomes",
	}, []string{"provider", "status"})

	synthesisTTFB = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voicebench_synthesis_ttfb_seconds",
		Help:    "Time to first synthesized audio byte per provider",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
	}, []string{"provider"})

	// Audio metrics
	audioBytesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicebench_audio_bytes_total",
		Help: "Total audio bytes processed",
	}, []string{"direction"}) // direction: "in" or "out"

	droppedFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicebench_dropped_frames_total",
		Help: "Audio frames dropped by a provider's bounded queue",
	}, []string{"provider"})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicebench_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})
)

// RecordSessionStart records the start of a benchmark session
func RecordSessionStart() {
	activeSessions.Inc()
	totalSessions.Inc()
}

// RecordSessionEnd records the end of a benchmark session
func RecordSessionEnd() {
	activeSessions.Dec()
}

// RecordTranscriptionEvent records one normalized transcription event
func RecordTranscriptionEvent(provider string, isFinal bool) {
	finality := "interim"
	if isFinal {
		finality = "final"
	}
	transcriptionEvents.WithLabelValues(provider, finality).Inc()
}

// ObserveFinalLatency records the anchor-based latency of a final transcript
func ObserveFinalLatency(provider string, seconds float64) {
	finalLatency.WithLabelValues(provider).Observe(seconds)
}

// RecordSynthesis records a per-provider synthesis outcome
func RecordSynthesis(provider string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	synthesisRequests.WithLabelValues(provider, status).Inc()
}

// ObserveSynthesisTTFB records synthesis time-to-first-byte
func ObserveSynthesisTTFB(provider string, seconds float64) {
	synthesisTTFB.WithLabelValues(provider).Observe(seconds)
}

// RecordAudioBytes records audio bytes processed
func RecordAudioBytes(direction string, bytes int64) {
	audioBytesProcessed.WithLabelValues(direction).Add(float64(bytes))
}

// RecordDroppedFrame records a frame dropped by a provider queue
func RecordDroppedFrame(provider string) {
	droppedFrames.WithLabelValues(provider).Inc()
}

// RecordError records an error
func RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}
