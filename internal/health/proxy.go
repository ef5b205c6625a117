package health

import (
	"os"
	"strings"
)

var loopbackHosts = []string{"127.0.0.1", "localhost", "::1"}

// EnsureLoopbackNoProxy adds loopback hosts to NO_PROXY/no_proxy so that
// environment-wide proxy settings never intercept local sidecar traffic.
// Call it during startup before any HTTP work begins.
func EnsureLoopbackNoProxy() {
	for _, key := range []string{"NO_PROXY", "no_proxy"} {
		upsertHosts(key)
	}
}

func upsertHosts(key string) {
	var items []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}

	for _, host := range loopbackHosts {
		present := false
		for _, item := range items {
			if strings.EqualFold(item, host) {
				present = true
				break
			}
		}
		if !present {
			items = append(items, host)
		}
	}

	_ = os.Setenv(key, strings.Join(items, ","))
}
