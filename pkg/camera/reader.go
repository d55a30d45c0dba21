// Package camera reads frames from a network camera without letting stream
// latency reach the caller.
//
// Opening a Reader starts a producer goroutine which pulls frames from the
// stream as fast as the camera delivers them and parks only the newest one in
// a single slot buffer. Read hands the caller whatever frame is in the slot,
// waiting only if the slot is empty. Frames the caller was too slow to take
// are dropped.
package camera

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tauraamui/camreader/pkg/dragon/process"
	"github.com/tauraamui/camreader/pkg/log"
	"github.com/tauraamui/camreader/pkg/video/framecell"
	"github.com/tauraamui/camreader/pkg/video/videobackend"
	"github.com/tauraamui/camreader/pkg/video/videoframe"
)

const pollInterval = 5 * time.Microsecond

var teardownWarnAfter = 5 * time.Second

type Reader interface {
	UUID() string
	Title() string
	// Read returns the most recently buffered frame, waiting until one
	// arrives. It only returns an empty frame once the reader is closed.
	// The caller owns the returned frame and must Close it.
	Read() videoframe.Frame
	ReadWithCancel(context.Context) (videoframe.Frame, error)
	// Position counts calls to Read, starting from 0 on the first call and
	// -1 before it.
	Position() int64
	FrameName() string
	FPS() float64
	SetFPS(float64)
	Get(videobackend.Property) float64
	Set(videobackend.Property, float64)
	IsOpen() bool
	Healthy() bool
	Stats() Stats
	Close() error
}

type Stats struct {
	Published           uint64
	Dropped             uint64
	PullFailures        uint64
	ConsecutiveFailures uint64
	Reads               uint64
}

type reader struct {
	position int64
	reads    uint64
	closed   int32

	uuid      string
	title     string
	sett      Settings
	backend   videobackend.Backend
	conn      videobackend.Connection
	cell      *framecell.Cell
	buffering process.BufferingProcess

	fpsMu sync.Mutex
	fps   float64

	closeOnce sync.Once
	closeErr  error
}

// Open connects to the stream at addr and starts buffering frames from it.
// It never fails: if the stream cannot be opened the error is logged and the
// returned reader stays inert, reporting IsOpen false.
func Open(title, addr string, settings Settings, backend videobackend.Backend) Reader {
	return open(context.Background(), title, addr, settings, backend)
}

func OpenWithCancel(cancel context.Context, title, addr string, settings Settings, backend videobackend.Backend) Reader {
	return open(cancel, title, addr, settings, backend)
}

func open(ctx context.Context, title, addr string, settings Settings, backend videobackend.Backend) Reader {
	if backend == nil {
		backend = videobackend.Default()
	}

	fps := settings.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}

	r := &reader{
		position: -1,
		uuid:     uuid.NewString(),
		title:    title,
		sett:     settings,
		backend:  backend,
		cell:     framecell.New(),
		fps:      fps,
	}

	conn, err := connect(ctx, addr, backend)
	if err != nil {
		log.Error(sourceUnavailable(title, err).Error())
		return r
	}
	r.conn = conn

	if !conn.IsOpen() {
		log.Warn("Camera [%s] stream is not open, no frames will be buffered", title)
		return r
	}

	r.buffering = process.NewBufferingProcess(process.BufferingSettings{
		Title:                  title,
		Source:                 conn,
		NewFrame:               backend.NewFrame,
		Cell:                   r.cell,
		Metrics:                settings.Metrics,
		MaxConsecutiveFailures: settings.MaxConsecutiveFailures,
		FailureBackoff:         settings.FailureBackoff,
	})
	r.buffering.Setup().Start()
	log.Info("Buffering frames from camera [%s]", title)

	return r
}

func connect(ctx context.Context, addr string, backend videobackend.Backend) (conn videobackend.Connection, err error) {
	defer func() {
		if r := recover(); r != nil {
			conn, err = nil, fmt.Errorf("backend panicked at %s: %v", log.PanicOrigin(), r)
		}
	}()

	addr, err = videobackend.NormaliseAddress(addr)
	if err != nil {
		return nil, err
	}
	return backend.Connect(ctx, addr)
}

func (r *reader) UUID() string {
	return r.uuid
}

func (r *reader) Title() string {
	return r.title
}

func (r *reader) Read() videoframe.Frame {
	frame, _ := r.read(context.Background())
	return frame
}

// ReadWithCancel behaves like Read but gives up with the context's error,
// returning an empty frame, once ctx is done.
func (r *reader) ReadWithCancel(ctx context.Context) (videoframe.Frame, error) {
	return r.read(ctx)
}

func (r *reader) read(ctx context.Context) (frame videoframe.Frame, err error) {
	atomic.AddInt64(&r.position, 1)
	defer func() {
		if rec := recover(); rec != nil {
			log.Error(recoveredPanic(r.title, "read", rec).Error())
			frame, err = r.backend.NewFrame(), nil
		}
	}()

	start := time.Now()
	for {
		if f, ok := r.cell.Take(); ok {
			atomic.AddUint64(&r.reads, 1)
			r.sett.Metrics.FrameRead(r.title, time.Since(start))
			return f, nil
		}

		if r.isClosed() {
			return r.backend.NewFrame(), nil
		}

		if err := ctx.Err(); err != nil {
			return r.backend.NewFrame(), err
		}

		time.Sleep(pollInterval)
	}
}

func (r *reader) Position() int64 {
	return atomic.LoadInt64(&r.position)
}

func (r *reader) FrameName() string {
	return fmt.Sprintf("%012d", r.Position())
}

func (r *reader) FPS() float64 {
	r.fpsMu.Lock()
	defer r.fpsMu.Unlock()
	return r.fps
}

func (r *reader) SetFPS(fps float64) {
	r.fpsMu.Lock()
	defer r.fpsMu.Unlock()
	r.fps = fps
}

// Get answers position and fps from the reader itself and passes every other
// property through to the stream. Failures are logged and reported as 0.
func (r *reader) Get(prop videobackend.Property) (v float64) {
	switch prop {
	case videobackend.PropPosFrames:
		return float64(r.Position())
	case videobackend.PropFPS:
		return r.FPS()
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error(recoveredPanic(r.title, "get "+prop.String(), rec).Error())
			v = 0
		}
	}()

	if r.conn == nil {
		log.Error(propertyAccessError(r.title, "get "+prop.String(), errNotConnected).Error())
		return 0
	}

	v, err := r.conn.Get(prop)
	if err != nil {
		log.Error(propertyAccessError(r.title, "get "+prop.String(), err).Error())
		return 0
	}
	return v
}

func (r *reader) Set(prop videobackend.Property, v float64) {
	if prop == videobackend.PropFPS {
		r.SetFPS(v)
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error(recoveredPanic(r.title, "set "+prop.String(), rec).Error())
		}
	}()

	if r.conn == nil {
		log.Error(propertyAccessError(r.title, "set "+prop.String(), errNotConnected).Error())
		return
	}

	if err := r.conn.Set(prop, v); err != nil {
		log.Error(propertyAccessError(r.title, "set "+prop.String(), err).Error())
	}
}

func (r *reader) IsOpen() bool {
	if r.isClosed() || r.conn == nil {
		return false
	}
	return r.conn.IsOpen()
}

// Healthy is false once the stream has failed more consecutive reads than
// Settings.MaxConsecutiveFailures allows. An inert reader is never healthy.
func (r *reader) Healthy() bool {
	if r.buffering == nil {
		return false
	}
	return r.buffering.Healthy()
}

func (r *reader) Stats() Stats {
	stats := Stats{Reads: atomic.LoadUint64(&r.reads)}
	if r.buffering == nil {
		return stats
	}
	b := r.buffering.Stats()
	stats.Published = b.Published
	stats.Dropped = b.Dropped
	stats.PullFailures = b.PullFailures
	stats.ConsecutiveFailures = b.ConsecutiveFailures
	return stats
}

func (r *reader) isClosed() bool {
	return atomic.LoadInt32(&r.closed) == 1
}

// Close stops the producer, waits for it to exit, then releases the buffered
// frame and the stream. Calling Close more than once is safe.
func (r *reader) Close() error {
	r.closeOnce.Do(func() {
		atomic.StoreInt32(&r.closed, 1)
		if r.buffering != nil {
			hangWarning := time.AfterFunc(teardownWarnAfter, func() {
				log.Warn(teardownHang(r.title, teardownWarnAfter).Error())
			})
			r.buffering.Stop()
			r.buffering.Wait()
			hangWarning.Stop()
		}
		r.cell.Drain()
		r.closeErr = r.closeConn()
		r.sett.Metrics.Forget(r.title)
	})
	return r.closeErr
}

func (r *reader) closeConn() (err error) {
	if r.conn == nil {
		return nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			e := recoveredPanic(r.title, "close", rec)
			log.Error(e.Error())
			err = e.ToError()
		}
	}()
	return r.conn.Close()
}
