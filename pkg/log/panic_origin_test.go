package log_test

import (
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/tauraamui/camreader/pkg/log"
)

func explode() {
	panic("boom")
}

func recoverOrigin(f func()) (origin string) {
	defer func() {
		if r := recover(); r != nil {
			origin = log.PanicOrigin()
		}
	}()
	f()
	return ""
}

func TestPanicOriginNamesRaisingFunction(t *testing.T) {
	is := is.New(t)
	origin := recoverOrigin(explode)
	is.True(strings.HasPrefix(origin, "panic_origin_test.go:"))
	is.True(strings.Contains(origin, "explode"))
}

func TestPanicOriginSkipsRuntimeFrames(t *testing.T) {
	is := is.New(t)
	origin := recoverOrigin(func() {
		var m map[string]int
		m["unset"] = 1
	})
	is.True(strings.HasPrefix(origin, "panic_origin_test.go:"))
	is.True(strings.Contains(origin, "TestPanicOriginSkipsRuntimeFrames"))
}

func TestPanicOriginOutsidePanicReportsCaller(t *testing.T) {
	is := is.New(t)
	origin := log.PanicOrigin()
	is.True(strings.HasPrefix(origin, "panic_origin_test.go:"))
	is.True(strings.Contains(origin, "TestPanicOriginOutsidePanicReportsCaller"))
}
