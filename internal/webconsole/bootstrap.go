// Package webconsole serves the browser console shell and bootstraps its
// background service worker.
package webconsole

import (
	"net"
	"strings"

	"go.uber.org/zap"
)

// WorkerPath is the fixed path the service worker is registered at.
const WorkerPath = "/service-worker.js"

// DefaultSandboxMarkers are host substrings of development sandboxes where
// service workers cannot be registered.
var DefaultSandboxMarkers = []string{"stackblitz", "webcontainer"}

// Bootstrap decides whether a page should register the service worker and
// records the outcome reported back by the browser.
type Bootstrap struct {
	markers []string
	logger  *zap.Logger
}

// NewBootstrap creates a bootstrap. Empty markers fall back to
// DefaultSandboxMarkers.
func NewBootstrap(markers []string, logger *zap.Logger) *Bootstrap {
	var cleaned []string
	for _, m := range markers {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			cleaned = append(cleaned, m)
		}
	}
	if len(cleaned) == 0 {
		cleaned = DefaultSandboxMarkers
	}
	return &Bootstrap{markers: cleaned, logger: logger}
}

// ShouldRegister reports whether a page served for host may register the
// worker. Hosts containing a sandbox marker are skipped.
func (b *Bootstrap) ShouldRegister(host string) bool {
	name := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		name = h
	}
	name = strings.ToLower(name)
	for _, m := range b.markers {
		if strings.Contains(name, m) {
			b.logger.Info("service worker registration skipped",
				zap.String("host", host), zap.String("marker", m))
			return false
		}
	}
	return true
}

// Outcome is what the page reports after attempting registration.
type Outcome struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Record logs a registration outcome.
func (b *Bootstrap) Record(o Outcome, host string) {
	if o.OK {
		b.logger.Info("service worker registered", zap.String("host", host))
		return
	}
	b.logger.Error("service worker registration failed",
		zap.String("host", host), zap.String("error", o.Error))
}
