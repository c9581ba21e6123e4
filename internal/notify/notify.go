// Package notify announces finished exports and clipboard copies through
// desktop notifications.
package notify

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/floormark/internal/platform"
)

// Event identifies a notification trigger.
type Event string

const (
	// EventExport emits a notification when an annotated plan is written.
	EventExport Event = "export"
	// EventCopy emits a notification when data is copied to the clipboard.
	EventCopy Event = "copy"
)

// EventPreference describes formatting for a notification event.
type EventPreference struct {
	Template string
}

// Preferences describes notification behaviour loaded from configuration.
type Preferences struct {
	Title  string
	Events map[Event]EventPreference
}

// DefaultPreferences returns the default notification settings.
func DefaultPreferences() Preferences {
	return Preferences{
		Title: platform.DefaultAppName,
		Events: map[Event]EventPreference{
			EventExport: {Template: "Exported %s"},
			EventCopy:   {Template: "Copied %s to clipboard"},
		},
	}
}

// LoadPreferences applies FLOORMARK_NOTIFY_* overrides read with getenv.
func LoadPreferences(getenv func(string) string) Preferences {
	prefs := DefaultPreferences()
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv("FLOORMARK_NOTIFY_TITLE")); v != "" {
		prefs.Title = v
	}
	apply := func(key string, event Event) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			prefs.Events[event] = EventPreference{Template: v}
		}
	}
	apply("FLOORMARK_NOTIFY_EXPORT_TEXT", EventExport)
	apply("FLOORMARK_NOTIFY_COPY_TEXT", EventCopy)
	return prefs
}

// send is swapped in tests.
var send = platform.Notify

// Notifier sends OS-level notifications based on the configured preferences.
// A nil Notifier is valid and sends nothing.
type Notifier struct {
	prefs   Preferences
	enabled map[Event]bool
	log     *slog.Logger
}

// New creates a new Notifier using the provided preferences.
func New(prefs Preferences, log *slog.Logger) *Notifier {
	cloned := Preferences{Title: prefs.Title, Events: make(map[Event]EventPreference, len(prefs.Events))}
	for k, v := range prefs.Events {
		cloned.Events[k] = v
	}
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{prefs: cloned, enabled: make(map[Event]bool), log: log}
}

// Enable toggles the notifier for the provided event.
func (n *Notifier) Enable(event Event, enabled bool) {
	if n == nil {
		return
	}
	n.enabled[event] = enabled
}

// Export announces a written file, showing it as the icon when it exists.
func (n *Notifier) Export(path string) {
	if !n.enabledFor(EventExport) {
		return
	}
	detail := strings.TrimSpace(path)
	opts := platform.Options{AppName: n.prefs.Title}
	if abs, err := filepath.Abs(path); err == nil {
		detail = abs
		if _, statErr := os.Stat(abs); statErr == nil {
			opts.IconPath = abs
		}
	}
	n.dispatch(EventExport, detail, opts)
}

// Copy sends a clipboard notification.
func (n *Notifier) Copy(detail string) {
	if !n.enabledFor(EventCopy) {
		return
	}
	if strings.TrimSpace(detail) == "" {
		detail = "image"
	}
	n.dispatch(EventCopy, detail, platform.Options{AppName: n.prefs.Title})
}

func (n *Notifier) enabledFor(event Event) bool {
	return n != nil && n.enabled[event]
}

func (n *Notifier) dispatch(event Event, detail string, opts platform.Options) {
	template := strings.TrimSpace(n.prefs.Events[event].Template)
	if template == "" {
		return
	}
	body := template
	if strings.Contains(template, "%") {
		body = fmt.Sprintf(template, strings.TrimSpace(detail))
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return
	}
	if err := send(n.prefs.Title, body, opts); err != nil {
		n.log.Debug("notification failed", "event", event, "error", err)
	}
}
