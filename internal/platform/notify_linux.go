//go:build linux

package platform

import (
	"github.com/godbus/dbus/v5"
)

const (
	notifyDest = "org.freedesktop.Notifications"
	notifyPath = "/org/freedesktop/Notifications"
)

// Notify sends a desktop notification using the Freedesktop.org notifications interface.
func Notify(title, body string, opts Options) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return err
	}
	defer conn.Close()

	hints := map[string]dbus.Variant{
		"category": dbus.MakeVariant("transfer.complete"),
	}
	obj := conn.Object(notifyDest, dbus.ObjectPath(notifyPath))
	call := obj.Call(notifyDest+".Notify", 0,
		opts.appName(), uint32(0), opts.IconPath, title, body, []string{}, hints, int32(opts.timeout().Milliseconds()))
	return call.Err
}
