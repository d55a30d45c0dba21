package videobackend

import "fmt"

// Property identifies a queryable or settable stream property.
type Property int

const (
	PropPosFrames Property = iota
	PropFPS
	PropFrameWidth
	PropFrameHeight
	PropFrameCount
	PropBrightness
	PropContrast
	PropBufferSize
)

var propertyNames = map[Property]string{
	PropPosFrames:   "pos_frames",
	PropFPS:         "fps",
	PropFrameWidth:  "frame_width",
	PropFrameHeight: "frame_height",
	PropFrameCount:  "frame_count",
	PropBrightness:  "brightness",
	PropContrast:    "contrast",
	PropBufferSize:  "buffer_size",
}

func (p Property) String() string {
	if name, ok := propertyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("property(%d)", int(p))
}
