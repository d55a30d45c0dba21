package videobackend

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"
	"time"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"github.com/tauraamui/camreader/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

const (
	mockFrameWidth  = 600
	mockFrameHeight = 400
	mockFPS         = 30
)

type mockVideoBackend struct{}

func (b *mockVideoBackend) Connect(cancel context.Context, addr string) (Connection, error) {
	select {
	case <-cancel.Done():
		return nil, xerror.New("connection cancelled")
	default:
	}
	return &mockVideoConnection{
		address: addr,
		isOpen:  true,
		props: map[Property]float64{
			PropFPS:         mockFPS,
			PropFrameWidth:  mockFrameWidth,
			PropFrameHeight: mockFrameHeight,
		},
	}, nil
}

func (b *mockVideoBackend) NewFrame() videoframe.Frame {
	return &openCVFrame{mat: gocv.NewMat()}
}

func (b *mockVideoBackend) WriteSnapshot(path string, frame videoframe.Frame) error {
	openCVBackend := openCVBackend{}
	return openCVBackend.WriteSnapshot(path, frame)
}

// mockVideoConnection renders an offline test pattern carrying the stream
// address, a frame sequence number and the current time. Reads are paced
// to the configured fps to behave like a live camera.
type mockVideoConnection struct {
	mu                      sync.Mutex
	uuid                    string
	address                 string
	isOpen                  bool
	seq                     int
	lastRead                time.Time
	props                   map[Property]float64
	renderedBaseFrameCanvas bool
	baseFrameCanvas         image.Image
}

func (mvc *mockVideoConnection) UUID() string {
	if len(mvc.uuid) == 0 {
		mvc.uuid = uuid.NewString()
	}
	return mvc.uuid
}

func (mvc *mockVideoConnection) Read(frame videoframe.Frame) error {
	frameMatRef, ok := frame.DataRef().(*gocv.Mat)
	if !ok {
		return xerror.New("must pass OpenCV frame to MockVideo connection read")
	}

	mvc.mu.Lock()
	if !mvc.isOpen {
		mvc.mu.Unlock()
		return xerror.New("mock video connection is closed")
	}
	wait := mvc.reserveReadSlot()
	mvc.mu.Unlock()

	time.Sleep(wait)

	mvc.mu.Lock()
	if !mvc.isOpen {
		mvc.mu.Unlock()
		return xerror.New("mock video connection is closed")
	}
	if !mvc.renderedBaseFrameCanvas {
		mvc.baseFrameCanvas = renderBaseFrameCanvas()
		mvc.renderedBaseFrameCanvas = true
	}
	mvc.seq++
	base, seq := mvc.baseFrameCanvas, mvc.seq
	mvc.mu.Unlock()

	img, err := drawTextLayerOntoBaseFrameClone(base, mvc.address, seq)
	if err != nil {
		return err
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return xerror.Errorf("unable to convert Go image into OpenCV mat: %w", err)
	}
	defer mat.Close()

	mat.CopyTo(frameMatRef)

	return nil
}

// reserveReadSlot returns how long the caller must wait to keep reads paced
// to the configured fps. Must be called with mvc.mu held, the wait itself
// happens without it.
func (mvc *mockVideoConnection) reserveReadSlot() time.Duration {
	now := time.Now()
	fps := mvc.props[PropFPS]
	if fps <= 0 {
		mvc.lastRead = now
		return 0
	}
	interval := time.Duration(float64(time.Second) / fps)
	next := mvc.lastRead.Add(interval)
	if next.Before(now) {
		next = now
	}
	mvc.lastRead = next
	return next.Sub(now)
}

func (mvc *mockVideoConnection) Get(prop Property) (float64, error) {
	mvc.mu.Lock()
	defer mvc.mu.Unlock()
	if prop == PropPosFrames {
		return float64(mvc.seq), nil
	}
	v, ok := mvc.props[prop]
	if !ok {
		return 0, xerror.Errorf("property %s is unsupported", prop)
	}
	return v, nil
}

func (mvc *mockVideoConnection) Set(prop Property, v float64) error {
	mvc.mu.Lock()
	defer mvc.mu.Unlock()
	switch prop {
	case PropFrameWidth, PropFrameHeight, PropPosFrames:
		return xerror.Errorf("property %s is read only", prop)
	}
	mvc.props[prop] = v
	return nil
}

func (mvc *mockVideoConnection) IsOpen() bool {
	mvc.mu.Lock()
	defer mvc.mu.Unlock()
	return mvc.isOpen
}

// Close the video capture instance
func (mvc *mockVideoConnection) Close() error {
	mvc.mu.Lock()
	defer mvc.mu.Unlock()
	mvc.isOpen = false
	mvc.renderedBaseFrameCanvas = false
	mvc.baseFrameCanvas = nil
	return nil
}

func drawTextLayerOntoBaseFrameClone(base image.Image, title string, seq int) (image.Image, error) {
	baseClone := cloneImage(base)
	err := drawText(baseClone, 5, 50, "CAMREADER_OFFLINE_STREAM")
	if err != nil {
		return nil, xerror.Errorf("unable to draw text onto in-mem image for offline stream: %w", err)
	}

	err = drawText(baseClone, 5, 180, fmt.Sprintf("%s #%d", title, seq))
	if err != nil {
		return nil, xerror.Errorf("unable to draw text onto in-mem image for offline stream: %w", err) //nolint
	}
	err = drawText(baseClone, 5, 310, time.Now().Format("2006-01-02 15:04:05.999999999"))
	if err != nil {
		return nil, xerror.Errorf("unable to draw text onto in-mem image for offline stream: %w", err) //nolint
	}
	return baseClone, nil
}

func renderBaseFrameCanvas() image.Image {
	var w, h int = mockFrameWidth, mockFrameHeight
	var hw, hh float64 = float64(w / 2), float64(h / 2)
	r := 200.0
	θ := 2 * math.Pi / 3
	cr := &circle{hw - r*math.Sin(0), hh - r*math.Cos(0), 300}
	cg := &circle{hw - r*math.Sin(θ), hh - r*math.Cos(θ), 300}
	cb := &circle{hw - r*math.Sin(-θ), hh - r*math.Cos(-θ), 300}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			c := color.RGBA{
				cr.Brightness(float64(x), float64(y)),
				cg.Brightness(float64(x), float64(y)),
				cb.Brightness(float64(x), float64(y)),
				255,
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func cloneImage(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)
	return dst
}

var parsedFont struct {
	once sync.Once
	font *truetype.Font
	err  error
}

func drawText(canvas *image.RGBA, x, y int, text string) error {
	parsedFont.once.Do(func() {
		parsedFont.font, parsedFont.err = freetype.ParseFont(goregular.TTF)
	})
	if parsedFont.err != nil {
		return parsedFont.err
	}

	fontDrawer := &font.Drawer{
		Dst: canvas,
		Src: image.White,
		Face: truetype.NewFace(parsedFont.font, &truetype.Options{
			Size:    32.0,
			Hinting: font.HintingFull,
		}),
	}
	textBounds, _ := fontDrawer.BoundString(text)
	textHeight := textBounds.Max.Y - textBounds.Min.Y
	yPosition := fixed.I((y)-textHeight.Ceil())/2 + fixed.I(textHeight.Ceil())
	fontDrawer.Dot = fixed.Point26_6{
		X: fixed.I(x),
		Y: yPosition,
	}
	fontDrawer.DrawString(text)
	return nil
}

type circle struct {
	X, Y, R float64
}

func (c *circle) Brightness(x, y float64) uint8 {
	var dx, dy float64 = c.X - x, c.Y - y
	d := math.Sqrt(dx*dx+dy*dy) / c.R
	if d > 1 {
		return 0
	}
	return 255
}
