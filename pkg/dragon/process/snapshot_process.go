package process

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/tauraamui/camreader/pkg/log"
	"github.com/tauraamui/camreader/pkg/video/videoframe"
)

const (
	snapshotDateFormat = "2006-01-02"
	snapshotTimeFormat = "15.04.05.000"
)

var TimeNow = func() time.Time {
	return time.Now()
}

// FrameReader is the consumer side of a buffered camera reader.
type FrameReader interface {
	Title() string
	ReadWithCancel(context.Context) (videoframe.Frame, error)
	Position() int64
}

type SnapshotWriter interface {
	WriteSnapshot(string, videoframe.Frame) error
}

// TakeSnapshots consumes the latest frames from reader and writes one to
// disk every interval. A zero interval still drains the reader but never
// writes.
func TakeSnapshots(reader FrameReader, writer SnapshotWriter, location string, interval time.Duration) func(context.Context) []chan interface{} {
	return func(cancel context.Context) []chan interface{} {
		var stopSignals []chan interface{}
		log.Info("Reading frames from camera [%s]", reader.Title())
		stopping := make(chan interface{})
		go func(cancel context.Context, stopping chan interface{}) {
			var lastSnapshotAt time.Time
		procLoop:
			for {
				select {
				case <-cancel.Done():
					close(stopping)
					break procLoop
				default:
					lastSnapshotAt = consume(cancel, reader, writer, location, interval, lastSnapshotAt)
				}
			}
		}(cancel, stopping)
		stopSignals = append(stopSignals, stopping)
		return stopSignals
	}
}

func consume(
	cancel context.Context,
	reader FrameReader,
	writer SnapshotWriter,
	location string,
	interval time.Duration,
	lastSnapshotAt time.Time,
) time.Time {
	frame, err := reader.ReadWithCancel(cancel)
	if frame != nil {
		defer frame.Close()
	}
	if err != nil {
		return lastSnapshotAt
	}

	if frame.Empty() {
		// reader has been closed underneath us
		time.Sleep(1 * time.Millisecond)
		return lastSnapshotAt
	}

	log.Debug("Read frame %d from camera [%s]", reader.Position(), reader.Title())
	if interval <= 0 {
		return lastSnapshotAt
	}

	now := TimeNow()
	if !lastSnapshotAt.IsZero() && now.Before(lastSnapshotAt.Add(interval)) {
		return lastSnapshotAt
	}

	path := snapshotPath(location, reader.Title(), now)
	if err := writer.WriteSnapshot(path, frame); err != nil {
		log.Error(fmt.Errorf("Unable to write snapshot for camera [%s]: %w", reader.Title(), err).Error())
		return lastSnapshotAt
	}
	log.Info("Saved snapshot: %s", path)
	return now
}

func snapshotPath(location, title string, t time.Time) string {
	if len(location) == 0 {
		location = "."
	}
	return filepath.Join(location, title, t.Format(snapshotDateFormat), t.Format(snapshotTimeFormat)+".jpg")
}
