package configdef_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/tauraamui/camreader/pkg/configdef"
)

func TestValidateEmptyConfigPasses(t *testing.T) {
	is := is.New(t)
	body := `{}`
	config := configdef.Values{}
	is.NoErr(json.Unmarshal([]byte(body), &config))
	is.NoErr(config.RunValidate())
}

func TestValidatePopulatedConfigPassesValidation(t *testing.T) {
	is := is.New(t)
	body := `{
			"metrics_address": ":9101",
			"cameras": [
				{
					"title": "NotBlank",
					"address": "rtsp://frontdoor/stream1",
					"fps": 11,
					"snapshot_location": "/snapshots",
					"snapshot_interval_seconds": 10,
					"max_consecutive_failures": 30,
					"failure_backoff_millis": 250
				}
			]
		}`
	config := configdef.Values{}
	is.NoErr(json.Unmarshal([]byte(body), &config))
	is.NoErr(config.RunValidate())

	is.Equal(config.MetricsAddress, ":9101")
	cam := config.Cameras[0]
	is.Equal(cam.SnapshotInterval(), 10*time.Second)
	is.Equal(cam.FailureBackoff(), 250*time.Millisecond)
	is.Equal(cam.MaxConsecutiveFailures, uint64(30))
}

func TestValidatePopulatedConfigFailsValidationForMissingTitle(t *testing.T) {
	is := is.New(t)
	body := `{
			"cameras": [
				{
					"address": "rtsp://frontdoor/stream1",
					"fps": 11
				}
			]
		}`
	config := configdef.Values{}
	is.NoErr(json.Unmarshal([]byte(body), &config))
	is.Equal(config.RunValidate().Error(), `Validation error in field "Title" of type "string" using validator "empty=false"`)
}

func TestValidatePopulatedConfigFailsValidationForMissingFPS(t *testing.T) {
	is := is.New(t)
	body := `{
			"cameras": [
				{
					"title": "NotBlank"
				}
			]
		}`
	config := configdef.Values{}
	is.NoErr(json.Unmarshal([]byte(body), &config))
	is.Equal(config.RunValidate().Error(), `Validation error in field "FPS" of type "int" using validator "gte=1"`)
}

func TestValidatePopulatedConfigFailsValidationForFPSMoreThan60(t *testing.T) {
	is := is.New(t)
	body := `{
			"cameras": [
				{
					"title": "NotBlank",
					"fps": 61
				}
			]
		}`
	config := configdef.Values{}
	is.NoErr(json.Unmarshal([]byte(body), &config))
	is.Equal(config.RunValidate().Error(), `Validation error in field "FPS" of type "int" using validator "lte=60"`)
}

func TestValidatePopulatedConfigFailsValidationForSnapshotIntervalMoreThanAnHour(t *testing.T) {
	is := is.New(t)
	body := `{
			"cameras": [
				{
					"title": "NotBlank",
					"fps": 30,
					"snapshot_interval_seconds": 3601
				}
			]
		}`
	config := configdef.Values{}
	is.NoErr(json.Unmarshal([]byte(body), &config))
	is.Equal(config.RunValidate().Error(), `Validation error in field "SnapshotIntervalSeconds" of type "int" using validator "lte=3600"`)
}

func TestValidatePopulatedConfigFailsValidationForNegativeBackoff(t *testing.T) {
	is := is.New(t)
	body := `{
			"cameras": [
				{
					"title": "NotBlank",
					"fps": 30,
					"failure_backoff_millis": -1
				}
			]
		}`
	config := configdef.Values{}
	is.NoErr(json.Unmarshal([]byte(body), &config))
	is.Equal(config.RunValidate().Error(), `Validation error in field "FailureBackoffMillis" of type "int" using validator "gte=0"`)
}

func TestValidatePopulatedConfigFailsValiationForNonUniqueCameraTitles(t *testing.T) {
	is := is.New(t)
	body := `{
			"cameras": [
				{
					"title": "TheSameNotUnique",
					"fps": 11
				},
				{
					"title": "TheSameNotUnique",
					"fps": 11
				}
			]
		}`
	config := configdef.Values{}
	is.NoErr(json.Unmarshal([]byte(body), &config))
	is.Equal(config.RunValidate().Error(), "validation failed: camera titles must be unique")
}

func TestHasDupCameraTitlesDoesNotFindDuplicates(t *testing.T) {
	is := is.New(t)
	cameras := []configdef.Camera{}
	is.True(configdef.HasDupCameraTitles(cameras) == false)

	cameras = []configdef.Camera{
		{Title: "TestCam1"},
		{Title: "TestCam2"},
		{Title: "TestCam3"},
	}

	is.True(configdef.HasDupCameraTitles(cameras) == false)
}

func TestHasDupCameraTitlesDoesFindDuplicates(t *testing.T) {
	is := is.New(t)
	cameras := []configdef.Camera{
		{Title: "TestCam1"},
		{Title: "TestCam2"},
		{Title: "TestCam3"},
		{Title: "TestCam3"},
		{Title: "TestCam4"},
	}

	is.True(configdef.HasDupCameraTitles(cameras))
}

func TestHasDupCameraTitlesDoesFindDuplicateWithLargeGap(t *testing.T) {
	is := is.New(t)
	cameras := []configdef.Camera{
		{Title: "TestCam1"},
		{Title: "TestCam2"},
		{Title: "TestCam3"},
		{Title: "TestCam4"},
		{Title: "TestCam5"},
		{Title: "TestCam6"},
		{Title: "TestCam7"},
		{Title: "TestCam8"},
		{Title: "TestCam1"},
		{Title: "TestCam10"},
	}

	is.True(configdef.HasDupCameraTitles(cameras))
}
