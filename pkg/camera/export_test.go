package camera

import "time"

func OverloadTeardownWarnAfter(d time.Duration) func() {
	ref := teardownWarnAfter
	teardownWarnAfter = d
	return func() { teardownWarnAfter = ref }
}
