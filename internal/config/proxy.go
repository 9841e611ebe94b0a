package config

import (
	"log/slog"
	"os"
	"strings"
)

// EnsureLocalNoProxy adds localhost and 127.0.0.1 to NO_PROXY so that
// requests to co-located embedding and vector-store backends never go
// through a corporate proxy that cannot reach them.
func EnsureLocalNoProxy() {
	const wanted = "localhost,127.0.0.1"
	current := os.Getenv("NO_PROXY")
	if current == "" {
		current = os.Getenv("no_proxy")
	}
	merged := current
	for _, host := range strings.Split(wanted, ",") {
		if !containsHost(current, host) {
			if merged != "" {
				merged += ","
			}
			merged += host
		}
	}
	if merged == current {
		return
	}
	os.Setenv("NO_PROXY", merged)
	os.Setenv("no_proxy", merged)
	slog.Debug("proxy bypass for local hosts", "no_proxy", merged)
}

func containsHost(list, host string) bool {
	for _, h := range strings.Split(list, ",") {
		if strings.TrimSpace(h) == host {
			return true
		}
	}
	return false
}
