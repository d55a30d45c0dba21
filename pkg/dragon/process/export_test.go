package process

import "time"

func SnapshotPath(location, title string, t time.Time) string {
	return snapshotPath(location, title, t)
}
