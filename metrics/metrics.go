package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"earshot/capture"
)

// Metrics contains all Prometheus metrics for capture and transcription.
type Metrics struct {
	Captures        *prometheus.CounterVec
	CaptureErrors   *prometheus.CounterVec
	CaptureDuration prometheus.Histogram
	NoiseRMS        prometheus.Gauge

	Transcriptions        *prometheus.CounterVec
	TranscriptionDuration prometheus.Histogram

	gatherer prometheus.Gatherer
}

// New registers all metrics with reg. A nil reg uses a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		Captures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "earshot_captures_total",
			Help: "Completed capture sessions by outcome",
		}, []string{"outcome"}),
		CaptureErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "earshot_capture_errors_total",
			Help: "Capture sessions that ended with an error, by kind",
		}, []string{"kind"}),
		CaptureDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "earshot_capture_duration_seconds",
			Help:    "Duration of captured utterance audio",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2 minutes
		}),
		NoiseRMS: f.NewGauge(prometheus.GaugeOpts{
			Name: "earshot_noise_rms",
			Help: "Ambient noise RMS measured by the last calibration",
		}),
		Transcriptions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "earshot_transcriptions_total",
			Help: "Transcription requests by provider and status",
		}, []string{"provider", "status"}),
		TranscriptionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "earshot_transcription_duration_seconds",
			Help:    "Wall time of a transcription request",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		}),
		gatherer: reg,
	}
}

func (m *Metrics) RecordUtterance(u *capture.Utterance) {
	m.Captures.WithLabelValues(u.Outcome.String()).Inc()
	m.NoiseRMS.Set(u.Calibration.NoiseRMS)
	if !u.Empty() {
		m.CaptureDuration.Observe(u.Duration().Seconds())
	}
}

func (m *Metrics) RecordCaptureError(err error) {
	m.CaptureErrors.WithLabelValues(ErrorKind(err)).Inc()
}

// ErrorKind maps a capture error to the kind label.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, capture.ErrDeviceUnavailable):
		return "device_unavailable"
	case errors.Is(err, capture.ErrReadFailure):
		return "read_failure"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "other"
	}
}

func (m *Metrics) RecordTranscription(provider string, took time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Transcriptions.WithLabelValues(provider, status).Inc()
	m.TranscriptionDuration.Observe(took.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
