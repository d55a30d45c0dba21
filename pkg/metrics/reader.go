// Package metrics exposes prometheus collectors for buffered camera readers.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const cameraLabel = "camera"

// ReaderMetrics counts what happens to frames between a camera stream and
// its consumer. A nil *ReaderMetrics is valid and records nothing.
type ReaderMetrics struct {
	framesPublished *prometheus.CounterVec
	framesDropped   *prometheus.CounterVec
	pullFailures    *prometheus.CounterVec
	framesRead      *prometheus.CounterVec
	readWait        *prometheus.HistogramVec
	sourceHealthy   *prometheus.GaugeVec
}

// NewReaderMetrics creates and registers reader metrics on registry.
func NewReaderMetrics(registry prometheus.Registerer) (*ReaderMetrics, error) {
	m := &ReaderMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ReaderMetrics) initMetrics() {
	m.framesPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camreader_frames_published_total",
			Help: "Frames pulled from the stream and published into the buffer",
		},
		[]string{cameraLabel},
	)

	m.framesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camreader_frames_dropped_total",
			Help: "Buffered frames overwritten before the consumer took them",
		},
		[]string{cameraLabel},
	)

	m.pullFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camreader_pull_failures_total",
			Help: "Stream reads which failed or produced an empty frame",
		},
		[]string{cameraLabel},
	)

	m.framesRead = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "camreader_frames_read_total",
			Help: "Frames handed to the consumer",
		},
		[]string{cameraLabel},
	)

	m.readWait = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "camreader_read_wait_seconds",
			Help:    "Time the consumer spent waiting for a frame",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10), // 100µs to ~26s
		},
		[]string{cameraLabel},
	)

	m.sourceHealthy = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "camreader_source_healthy",
			Help: "1 while the stream is producing frames, 0 after too many consecutive failures",
		},
		[]string{cameraLabel},
	)
}

func (m *ReaderMetrics) FramePublished(camera string) {
	if m == nil {
		return
	}
	m.framesPublished.WithLabelValues(camera).Inc()
}

func (m *ReaderMetrics) FrameDropped(camera string) {
	if m == nil {
		return
	}
	m.framesDropped.WithLabelValues(camera).Inc()
}

func (m *ReaderMetrics) PullFailed(camera string) {
	if m == nil {
		return
	}
	m.pullFailures.WithLabelValues(camera).Inc()
}

func (m *ReaderMetrics) FrameRead(camera string, waited time.Duration) {
	if m == nil {
		return
	}
	m.framesRead.WithLabelValues(camera).Inc()
	m.readWait.WithLabelValues(camera).Observe(waited.Seconds())
}

func (m *ReaderMetrics) SetHealthy(camera string, healthy bool) {
	if m == nil {
		return
	}
	v := 0.0
	if healthy {
		v = 1
	}
	m.sourceHealthy.WithLabelValues(camera).Set(v)
}

// Forget removes every series labelled with camera.
func (m *ReaderMetrics) Forget(camera string) {
	if m == nil {
		return
	}
	m.framesPublished.DeleteLabelValues(camera)
	m.framesDropped.DeleteLabelValues(camera)
	m.pullFailures.DeleteLabelValues(camera)
	m.framesRead.DeleteLabelValues(camera)
	m.readWait.DeleteLabelValues(camera)
	m.sourceHealthy.DeleteLabelValues(camera)
}

// Describe implements prometheus.Collector
func (m *ReaderMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.framesPublished.Describe(ch)
	m.framesDropped.Describe(ch)
	m.pullFailures.Describe(ch)
	m.framesRead.Describe(ch)
	m.readWait.Describe(ch)
	m.sourceHealthy.Describe(ch)
}

// Collect implements prometheus.Collector
func (m *ReaderMetrics) Collect(ch chan<- prometheus.Metric) {
	m.framesPublished.Collect(ch)
	m.framesDropped.Collect(ch)
	m.pullFailures.Collect(ch)
	m.framesRead.Collect(ch)
	m.readWait.Collect(ch)
	m.sourceHealthy.Collect(ch)
}
