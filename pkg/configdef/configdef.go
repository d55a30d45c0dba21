package configdef

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/dealancer/validate.v2"
)

type Camera struct {
	Title                   string `json:"title" validate:"empty=false"`
	Address                 string `json:"address"`
	FPS                     int    `json:"fps" validate:"gte=1 & lte=60"`
	MockCapturer            bool   `json:"mock_capturer"`
	Disabled                bool   `json:"disabled"`
	SnapshotLoc             string `json:"snapshot_location"`
	SnapshotIntervalSeconds int    `json:"snapshot_interval_seconds" validate:"gte=0 & lte=3600"`
	MaxConsecutiveFailures  uint64 `json:"max_consecutive_failures"`
	FailureBackoffMillis    int    `json:"failure_backoff_millis" validate:"gte=0"`
}

// SnapshotInterval of 0 means frames are read and discarded, never saved.
func (c Camera) SnapshotInterval() time.Duration {
	return time.Duration(c.SnapshotIntervalSeconds) * time.Second
}

func (c Camera) FailureBackoff() time.Duration {
	return time.Duration(c.FailureBackoffMillis) * time.Millisecond
}

type Values struct {
	Debug          bool     `json:"debug"`
	MetricsAddress string   `json:"metrics_address"`
	Cameras        []Camera `json:"cameras"`
}

func (v Values) RunValidate() error {
	if err := validate.Validate(&v); err != nil {
		return err
	}
	return v.validateUniqueTitles()
}

func (v Values) validateUniqueTitles() error {
	const validationErrorHeader = "validation failed: %w"
	if hasDupCameraTitles(v.Cameras) {
		return fmt.Errorf(validationErrorHeader, errors.New("camera titles must be unique"))
	}
	return nil
}

func hasDupCameraTitles(cameras []Camera) bool {
	seen := make(map[string]struct{}, len(cameras))
	for _, cam := range cameras {
		if _, ok := seen[cam.Title]; ok {
			return true
		}
		seen[cam.Title] = struct{}{}
	}
	return false
}
