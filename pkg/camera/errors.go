package camera

import (
	"time"

	"github.com/tauraamui/camreader/pkg/dragon/process"
	"github.com/tauraamui/camreader/pkg/log"
	"github.com/tauraamui/xerror"
)

const (
	// SourceUnavailable is logged when a stream could not be opened. The
	// reader stays inert instead of failing construction.
	SourceUnavailable = xerror.Kind("source_unavailable")
	// TransientPullFailure covers a single failed or empty read, retried
	// silently by the producer.
	TransientPullFailure = process.TransientPullFailure
	// PropertyAccessError is logged when the stream rejects a property query
	// or update. Callers get 0 or a no-op.
	PropertyAccessError = xerror.Kind("property_access_error")
	// Close blocks until the producer's in flight read returns. A read that
	// never returns hangs Close, there is no timeout.
	TeardownHang = xerror.Kind("teardown_hang")
)

var errNotConnected = xerror.New("stream is not connected")

func sourceUnavailable(title string, err error) xerror.I {
	return xerror.Errorf("unable to open camera [%s]: %w", title, err).AsKind(SourceUnavailable)
}

func propertyAccessError(title, op string, err error) xerror.I {
	return xerror.Errorf("unable to %s camera [%s] property: %w", op, title, err).AsKind(PropertyAccessError)
}

func teardownHang(title string, waited time.Duration) xerror.I {
	return xerror.Errorf("still waiting after %s for camera [%s] stream read to return", waited, title).AsKind(TeardownHang)
}

func recoveredPanic(title, op string, r interface{}) xerror.I {
	return xerror.Errorf("recovered from panic during %s on camera [%s] at %s: %v", op, title, log.PanicOrigin(), r)
}
