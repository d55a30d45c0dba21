package videobackend

import (
	"net/url"
	"strings"

	"github.com/tauraamui/xerror"
)

const defaultRTSPPort = "554"

var networkSchemes = []string{"rtsp", "rtsps", "http", "https"}

// NormaliseAddress fills in the default RTSP port when one is missing and
// rejects network addresses without a host. Anything else, device indices,
// file paths, other schemes or capture pipelines, is handed to the backend
// untouched.
func NormaliseAddress(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if len(addr) == 0 {
		return "", xerror.New("connection address is undefined")
	}

	if !strings.Contains(addr, "://") {
		return addr, nil
	}

	u, err := url.Parse(addr)
	if err != nil {
		return addr, nil
	}

	scheme := strings.ToLower(u.Scheme)
	if ok := containsString(scheme, networkSchemes); !ok {
		return addr, nil
	}

	if len(u.Host) == 0 {
		return "", xerror.Errorf("address %s is missing a host", addr)
	}

	if scheme == "rtsp" && len(u.Port()) == 0 {
		u.Host += ":" + defaultRTSPPort
	}

	return u.String(), nil
}

func containsString(str string, strs []string) bool {
	for _, s := range strs {
		if str == s {
			return true
		}
	}
	return false
}
