package camera

import (
	"time"

	"github.com/tauraamui/camreader/pkg/metrics"
)

const DefaultFPS = 30.0

type Settings struct {
	// FPS is the frame rate the reader reports. It describes the stream to
	// callers and does not pace reads.
	FPS                    float64
	MaxConsecutiveFailures uint64
	FailureBackoff         time.Duration
	Metrics                *metrics.ReaderMetrics
}
