package videobackend

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/tauraamui/camreader/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
)

type openCVFrame struct {
	isClosed bool
	mat      gocv.Mat
}

func (frame *openCVFrame) DataRef() interface{} {
	return &frame.mat
}

func (frame *openCVFrame) Dimensions() videoframe.Dimensions {
	if frame.isClosed {
		return videoframe.Dimensions{}
	}
	return videoframe.Dimensions{W: frame.mat.Cols(), H: frame.mat.Rows()}
}

func (frame *openCVFrame) Empty() bool {
	return frame.isClosed || frame.mat.Empty()
}

func (frame *openCVFrame) Close() {
	if !frame.isClosed {
		frame.mat.Close()
		frame.isClosed = true
	}
}

type openCVBackend struct{}

func (b *openCVBackend) Connect(cancel context.Context, addr string) (Connection, error) {
	conn := openCVConnection{}
	err := conn.connect(cancel, addr)
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

func (b *openCVBackend) NewFrame() videoframe.Frame {
	return &openCVFrame{mat: gocv.NewMat()}
}

func (b *openCVBackend) WriteSnapshot(path string, frame videoframe.Frame) error {
	mat, ok := frame.DataRef().(*gocv.Mat)
	if !ok {
		return xerror.New("must pass OpenCV frame to OpenCV snapshot writer")
	}
	if mat.Empty() {
		return xerror.New("cannot write empty frame to snapshot")
	}
	if err := ensureDirectoryPathExists(filepath.Dir(path)); err != nil {
		return xerror.Errorf("unable to create snapshot directory: %w", err)
	}
	if ok := writeImage(path, *mat); !ok {
		return xerror.Errorf("unable to write snapshot to %s", path)
	}
	return nil
}

var writeImage = func(path string, mat gocv.Mat) bool {
	return gocv.IMWrite(path, mat)
}

func ensureDirectoryPathExists(path string) error {
	err := fs.MkdirAll(path, os.ModePerm|os.ModeDir)
	if err == nil || os.IsExist(err) {
		return nil
	}
	return err
}

var openCVProperties = map[Property]gocv.VideoCaptureProperties{
	PropPosFrames:   gocv.VideoCapturePosFrames,
	PropFPS:         gocv.VideoCaptureFPS,
	PropFrameWidth:  gocv.VideoCaptureFrameWidth,
	PropFrameHeight: gocv.VideoCaptureFrameHeight,
	PropFrameCount:  gocv.VideoCaptureFrameCount,
	PropBrightness:  gocv.VideoCaptureBrightness,
	PropContrast:    gocv.VideoCaptureContrast,
	PropBufferSize:  gocv.VideoCaptureBufferSize,
}

// openCVConnection serialises every call into the capture behind mu, which
// Read holds for as long as the stream takes to deliver. IsOpen and the
// property accessors never take mu: open state is atomic, Get answers from a
// cache and Set is queued until the next Read.
type openCVConnection struct {
	open int32

	uuid string
	mu   sync.Mutex
	vc   *gocv.VideoCapture

	propsMu sync.Mutex
	props   map[Property]float64
	pending map[Property]float64
}

func (c *openCVConnection) connect(cancel context.Context, addr string) error {
	connAndError := make(chan openVideoStreamResult, 1)
	go openVideoStream(addr, connAndError)
	select {
	case r := <-connAndError:
		if r.err != nil {
			return r.err
		}
		c.vc = r.vc
		c.loadProperties()
		atomic.StoreInt32(&c.open, 1)
		return nil
	case <-cancel.Done():
		go closeLateVideoStream(connAndError)
		return xerror.New("connection cancelled")
	}
}

type openVideoStreamResult struct {
	vc  *gocv.VideoCapture
	err error
}

func openVideoStream(addr string, d chan openVideoStreamResult) {
	vc, err := openVideoCapture(addr)
	result := openVideoStreamResult{vc: vc, err: err}
	d <- result
}

// closeLateVideoStream releases a capture that finished opening after the
// caller had already given up on it.
func closeLateVideoStream(d chan openVideoStreamResult) {
	r := <-d
	if r.err == nil && r.vc != nil {
		r.vc.Close()
	}
}

var openVideoCapture = func(addr string) (*gocv.VideoCapture, error) {
	return gocv.OpenVideoCapture(addr)
}

var readFromVideoConnection = func(vc *gocv.VideoCapture, mat *gocv.Mat) bool {
	if vc.IsOpened() {
		return vc.Read(mat)
	}
	return false
}

var getVideoCaptureProperty = func(vc *gocv.VideoCapture, prop gocv.VideoCaptureProperties) float64 {
	return vc.Get(prop)
}

var setVideoCaptureProperty = func(vc *gocv.VideoCapture, prop gocv.VideoCaptureProperties, v float64) {
	vc.Set(prop, v)
}

// must be called before the connection is shared
func (c *openCVConnection) loadProperties() {
	c.props = make(map[Property]float64, len(openCVProperties))
	for prop, cvProp := range openCVProperties {
		c.props[prop] = getVideoCaptureProperty(c.vc, cvProp)
	}
}

func (c *openCVConnection) UUID() string {
	if len(c.uuid) == 0 {
		c.uuid = uuid.NewString()
	}
	return c.uuid
}

func (c *openCVConnection) Read(frame videoframe.Frame) error {
	mat, ok := frame.DataRef().(*gocv.Mat)
	if !ok {
		return xerror.New("must pass OpenCV frame to OpenCV connection read")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.IsOpen() {
		return xerror.New("video connection is closed")
	}

	c.applyPendingProperties()
	ok = readFromVideoConnection(c.vc, mat)
	if !ok {
		return xerror.New("unable to read from video connection")
	}

	pos := getVideoCaptureProperty(c.vc, openCVProperties[PropPosFrames])
	c.propsMu.Lock()
	c.props[PropPosFrames] = pos
	c.propsMu.Unlock()
	return nil
}

// must be called with c.mu held
func (c *openCVConnection) applyPendingProperties() {
	c.propsMu.Lock()
	pending := c.pending
	c.pending = nil
	c.propsMu.Unlock()

	for prop, v := range pending {
		setVideoCaptureProperty(c.vc, openCVProperties[prop], v)
	}
}

func (c *openCVConnection) Get(prop Property) (float64, error) {
	if _, ok := openCVProperties[prop]; !ok {
		return 0, xerror.Errorf("property %s is unsupported", prop)
	}
	if !c.IsOpen() {
		return 0, xerror.Errorf("unable to get %s: video connection is closed", prop)
	}
	c.propsMu.Lock()
	defer c.propsMu.Unlock()
	return c.props[prop], nil
}

// Set records the new value straight away and hands it to the capture
// before the next frame is read.
func (c *openCVConnection) Set(prop Property, v float64) error {
	if _, ok := openCVProperties[prop]; !ok {
		return xerror.Errorf("property %s is unsupported", prop)
	}
	if !c.IsOpen() {
		return xerror.Errorf("unable to set %s: video connection is closed", prop)
	}
	c.propsMu.Lock()
	defer c.propsMu.Unlock()
	if c.props == nil {
		c.props = map[Property]float64{}
	}
	if c.pending == nil {
		c.pending = map[Property]float64{}
	}
	c.props[prop] = v
	c.pending[prop] = v
	return nil
}

func (c *openCVConnection) IsOpen() bool {
	return atomic.LoadInt32(&c.open) == 1
}

// Close waits for an in flight Read to return before releasing the capture.
func (c *openCVConnection) Close() error {
	if !atomic.CompareAndSwapInt32(&c.open, 1, 0) {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vc.Close()
}
