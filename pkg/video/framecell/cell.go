// Package framecell holds the single slot through which a producer hands its
// most recent frame to a consumer.
//
// A Cell never queues. Publishing into an occupied cell displaces the old
// frame, which is closed, so a slow consumer only ever sees the freshest
// frame. Frames move in and out of the cell by exchange and are never copied,
// so any frame is owned by exactly one of the producer, the cell or the
// consumer at a time.
package framecell

import (
	"sync"

	"github.com/tauraamui/camreader/pkg/video/videoframe"
)

// Cell is safe for one publishing and one taking goroutine. The zero value
// is an empty cell ready for use.
type Cell struct {
	mu    sync.Mutex
	frame videoframe.Frame
}

func New() *Cell {
	return &Cell{}
}

// Publish moves frame into the cell and reports whether an untaken frame was
// displaced. The displaced frame is closed once the lock is released.
func (c *Cell) Publish(frame videoframe.Frame) bool {
	if frame == nil {
		return false
	}

	c.mu.Lock()
	frame, c.frame = c.frame, frame
	c.mu.Unlock()

	if frame != nil {
		frame.Close()
		return true
	}
	return false
}

// Take moves the resident frame out of the cell, leaving it empty. It
// returns false without blocking if there is nothing to take.
func (c *Cell) Take() (videoframe.Frame, bool) {
	c.mu.Lock()
	if c.frame == nil {
		c.mu.Unlock()
		return nil, false
	}
	var frame videoframe.Frame
	frame, c.frame = c.frame, nil
	c.mu.Unlock()
	return frame, true
}

// Drain closes and discards any resident frame, reporting whether there was
// one. Only call once the producer has stopped.
func (c *Cell) Drain() bool {
	frame, ok := c.Take()
	if ok {
		frame.Close()
	}
	return ok
}
