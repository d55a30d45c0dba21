package log

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// PanicOrigin reports where the panic currently being recovered was raised,
// as "file.go:line function". It must be called from a deferred function.
// Outside of a panic it reports its caller instead.
func PanicOrigin() string {
	st, ok := errors.New("").(stackTracer)
	if !ok {
		return "unknown"
	}
	frames := st.StackTrace()

	start := 1
	for i, f := range frames {
		if frameFunc(f) == "runtime.gopanic" {
			start = i + 1
			break
		}
	}

	for _, f := range frames[start:] {
		if !strings.HasPrefix(frameFunc(f), "runtime.") {
			return fmt.Sprintf("%s:%d %n", f, f, f)
		}
	}
	return "unknown"
}

func frameFunc(f errors.Frame) string {
	text, _ := f.MarshalText()
	return strings.SplitN(string(text), " ", 2)[0]
}
