package videobackend

import (
	"context"

	"github.com/spf13/afero"
	"github.com/tauraamui/camreader/pkg/video/videoframe"
)

var fs = afero.NewOsFs()

// Connection is an opened video source. Read may block for as long as the
// network or decoder takes to produce the next frame.
type Connection interface {
	UUID() string
	Read(videoframe.Frame) error
	IsOpen() bool
	Get(Property) (float64, error)
	Set(Property, float64) error
	Close() error
}

type Backend interface {
	Connect(context.Context, string) (Connection, error)
	NewFrame() videoframe.Frame
	WriteSnapshot(string, videoframe.Frame) error
}

func Default() Backend {
	return OpenCV()
}

func OpenCV() Backend {
	return &openCVBackend{}
}

func Mock() Backend {
	return &mockVideoBackend{}
}

func Resolve(t string) Backend {
	switch t {
	case "mock":
		return Mock()
	default:
		return Default()
	}
}
