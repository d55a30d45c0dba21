package process_test

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/tauraamui/camreader/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
)

type mockFrame struct {
	tag     int
	empty   bool
	closed  int32
	onClose func()
}

func (m *mockFrame) DataRef() interface{} {
	return m.tag
}

func (m *mockFrame) Dimensions() videoframe.Dimensions {
	return videoframe.Dimensions{W: 4, H: 3}
}

func (m *mockFrame) Empty() bool { return m.empty }

func (m *mockFrame) Close() {
	atomic.AddInt32(&m.closed, 1)
	if m.onClose != nil {
		m.onClose()
	}
}

func newEmptyMockFrame() videoframe.Frame {
	return &mockFrame{empty: true}
}

// mockSource fills frames with an increasing tag, or defers to readFunc.
type mockSource struct {
	mu       sync.Mutex
	tag      int
	readFunc func(videoframe.Frame) error
	reads    int64
}

func (m *mockSource) Read(frame videoframe.Frame) error {
	atomic.AddInt64(&m.reads, 1)
	if m.readFunc != nil {
		return m.readFunc(frame)
	}
	return m.fill(frame)
}

func (m *mockSource) fill(frame videoframe.Frame) error {
	f, ok := frame.(*mockFrame)
	if !ok {
		return xerror.New("must pass mock frame to mock source read")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tag++
	f.tag = m.tag
	f.empty = false
	return nil
}

func (m *mockSource) readCount() int64 {
	return atomic.LoadInt64(&m.reads)
}

type mockFrameReader struct {
	title    string
	position int64
	frames   chan videoframe.Frame
}

func (m *mockFrameReader) Title() string { return m.title }

func (m *mockFrameReader) Position() int64 { return atomic.LoadInt64(&m.position) }

func (m *mockFrameReader) ReadWithCancel(ctx context.Context) (videoframe.Frame, error) {
	atomic.AddInt64(&m.position, 1)
	select {
	case <-ctx.Done():
		return newEmptyMockFrame(), ctx.Err()
	case f := <-m.frames:
		return f, nil
	}
}

type snapshotCall struct {
	path string
	tag  int
}

type mockSnapshotWriter struct {
	mu    sync.Mutex
	calls []snapshotCall
	err   error
}

func (m *mockSnapshotWriter) WriteSnapshot(path string, frame videoframe.Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.calls = append(m.calls, snapshotCall{path: path, tag: frame.DataRef().(int)})
	return nil
}

func (m *mockSnapshotWriter) snapshots() []snapshotCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]snapshotCall{}, m.calls...)
}
