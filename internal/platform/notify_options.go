// Package platform sends desktop notifications through the host's native
// notification service.
package platform

import (
	"errors"
	"time"
)

// ErrUnsupported is returned where no notification service is available.
var ErrUnsupported = errors.New("desktop notifications are not supported on this platform")

// DefaultAppName is reported to notification services that group by sender.
const DefaultAppName = "Floormark"

// DefaultTimeout is how long a notification stays on screen where the
// platform lets the sender choose.
const DefaultTimeout = 5 * time.Second

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// AppName identifies the sender; empty means DefaultAppName.
	AppName string
	// IconPath, when non-empty, points to an image file the notification center
	// should display with the notification if supported by the platform.
	IconPath string
	// Timeout overrides DefaultTimeout where supported.
	Timeout time.Duration
}

func (o Options) appName() string {
	if o.AppName == "" {
		return DefaultAppName
	}
	return o.AppName
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}
