package videoframe

type Dimensions struct {
	W, H int
}

// Frame is a single raster image. Whoever holds a frame owns it and must
// Close it once done, unless ownership is handed on.
type Frame interface {
	DataRef() interface{}
	Dimensions() Dimensions
	// Empty reports a valid frame with no image data, the result of a
	// failed read or of a read on a reader that never received data.
	Empty() bool
	Close()
}
