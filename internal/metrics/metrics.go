// Package metrics provides Prometheus metrics for the speak and listen services.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "openai_speech"

const (
	ServiceSTT = "stt"
	ServiceTTS = "tts"

	OutcomeSuccess = "success"
	OutcomeError   = "error"

	DirectionIn  = "in"
	DirectionOut = "out"
)

type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	AudioBytes      *prometheus.CounterVec
}

// New registers all metrics on reg. Passing nil uses a throwaway registry,
// which keeps tests independent of the global default.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Speech requests by service, outcome and failure kind",
		}, []string{"service", "outcome", "kind"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Duration of speech requests including the remote call",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"service"}),
		AudioBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_total",
			Help:      "Audio bytes received for transcription (in) and returned from synthesis (out)",
		}, []string{"direction"}),
	}
}

// Observe records one finished request. kind is empty on success.
func (m *Metrics) Observe(service string, start time.Time, kind string) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if kind != "" {
		outcome = OutcomeError
	}
	m.Requests.WithLabelValues(service, outcome, kind).Inc()
	m.RequestDuration.WithLabelValues(service).Observe(time.Since(start).Seconds())
}

func (m *Metrics) AddAudioBytes(direction string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.AudioBytes.WithLabelValues(direction).Add(float64(n))
}
