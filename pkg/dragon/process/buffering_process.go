package process

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/tauraamui/camreader/pkg/log"
	"github.com/tauraamui/camreader/pkg/metrics"
	"github.com/tauraamui/camreader/pkg/video/framecell"
	"github.com/tauraamui/camreader/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
)

// TransientPullFailure marks a single failed or empty read. The producer
// retries these silently.
const TransientPullFailure = xerror.Kind("transient_pull_failure")

// FrameSource is the part of a stream connection the producer needs. Read
// may block on network I/O for as long as the camera takes.
type FrameSource interface {
	Read(videoframe.Frame) error
}

type BufferingSettings struct {
	Title    string
	Source   FrameSource
	NewFrame func() videoframe.Frame
	Cell     *framecell.Cell
	Metrics  *metrics.ReaderMetrics
	// MaxConsecutiveFailures marks the source unhealthy after this many
	// failed reads in a row. Zero disables health tracking.
	MaxConsecutiveFailures uint64
	// FailureBackoff is slept after a failed read. Zero retries immediately.
	FailureBackoff time.Duration
}

type BufferingStats struct {
	Published           uint64
	Dropped             uint64
	PullFailures        uint64
	ConsecutiveFailures uint64
}

type BufferingProcess interface {
	Process
	Healthy() bool
	Stats() BufferingStats
}

type bufferingProcess struct {
	published           uint64
	dropped             uint64
	pullFailures        uint64
	consecutiveFailures uint64
	unhealthy           int32
	started             int32

	ctx      context.Context
	cancel   context.CancelFunc
	stopping chan interface{}
	settings BufferingSettings
}

// NewBufferingProcess returns the producer half of a buffered reader. Once
// started it keeps the cell filled with the freshest frame the source can
// give, never waiting on whoever takes from the cell.
func NewBufferingProcess(settings BufferingSettings) BufferingProcess {
	ctx, cancel := context.WithCancel(context.Background())
	if settings.Cell == nil {
		settings.Cell = framecell.New()
	}
	return &bufferingProcess{
		ctx: ctx, cancel: cancel,
		stopping: make(chan interface{}),
		settings: settings,
	}
}

func (proc *bufferingProcess) Setup() Process { return proc }

func (proc *bufferingProcess) Start() {
	if !atomic.CompareAndSwapInt32(&proc.started, 0, 1) {
		return
	}
	proc.settings.Metrics.SetHealthy(proc.settings.Title, true)
	go proc.run()
}

func (proc *bufferingProcess) run() {
	defer close(proc.stopping)
	for {
		select {
		case <-proc.ctx.Done():
			log.Debug("Stopped buffering frames from [%s]", proc.settings.Title)
			return
		default:
			if ok := proc.bufferNextFrame(); !ok {
				proc.backoff()
			}
		}
	}
}

func (proc *bufferingProcess) bufferNextFrame() (buffered bool) {
	var frame videoframe.Frame
	defer func() {
		if r := recover(); r != nil {
			if frame != nil {
				frame.Close()
			}
			log.Error("Recovered from panic reading frame from [%s] at %s: %v", proc.settings.Title, log.PanicOrigin(), r)
			proc.recordFailure()
			buffered = false
		}
	}()

	frame = proc.settings.NewFrame()
	if err := proc.settings.Source.Read(frame); err != nil {
		log.Debug(xerror.Errorf("unable to read frame from [%s]: %w", proc.settings.Title, err).AsKind(TransientPullFailure).Error())
		frame.Close()
		frame = nil
		proc.recordFailure()
		return false
	}

	if frame.Empty() {
		frame.Close()
		frame = nil
		proc.recordFailure()
		return false
	}

	publish := frame
	frame = nil
	if dropped := proc.settings.Cell.Publish(publish); dropped {
		atomic.AddUint64(&proc.dropped, 1)
		proc.settings.Metrics.FrameDropped(proc.settings.Title)
	}
	proc.recordPublish()
	return true
}

func (proc *bufferingProcess) recordPublish() {
	atomic.AddUint64(&proc.published, 1)
	atomic.StoreUint64(&proc.consecutiveFailures, 0)
	proc.settings.Metrics.FramePublished(proc.settings.Title)
	if atomic.CompareAndSwapInt32(&proc.unhealthy, 1, 0) {
		log.Info("Camera [%s] is producing frames again", proc.settings.Title)
		proc.settings.Metrics.SetHealthy(proc.settings.Title, true)
	}
}

func (proc *bufferingProcess) recordFailure() {
	atomic.AddUint64(&proc.pullFailures, 1)
	failures := atomic.AddUint64(&proc.consecutiveFailures, 1)
	proc.settings.Metrics.PullFailed(proc.settings.Title)

	max := proc.settings.MaxConsecutiveFailures
	if max == 0 || failures < max {
		return
	}
	if atomic.CompareAndSwapInt32(&proc.unhealthy, 0, 1) {
		log.Warn("Camera [%s] failed to produce a frame %d times in a row", proc.settings.Title, failures)
		proc.settings.Metrics.SetHealthy(proc.settings.Title, false)
	}
}

func (proc *bufferingProcess) backoff() {
	if proc.settings.FailureBackoff <= 0 {
		return
	}
	t := time.NewTimer(proc.settings.FailureBackoff)
	defer t.Stop()
	select {
	case <-proc.ctx.Done():
	case <-t.C:
	}
}

func (proc *bufferingProcess) Healthy() bool {
	return atomic.LoadInt32(&proc.unhealthy) == 0
}

func (proc *bufferingProcess) Stats() BufferingStats {
	return BufferingStats{
		Published:           atomic.LoadUint64(&proc.published),
		Dropped:             atomic.LoadUint64(&proc.dropped),
		PullFailures:        atomic.LoadUint64(&proc.pullFailures),
		ConsecutiveFailures: atomic.LoadUint64(&proc.consecutiveFailures),
	}
}

// Stop requests cancellation. A read already in progress is not interrupted,
// the loop exits once it returns.
func (proc *bufferingProcess) Stop() {
	proc.cancel()
}

func (proc *bufferingProcess) Wait() {
	if atomic.LoadInt32(&proc.started) == 0 {
		return
	}
	<-proc.stopping
}
