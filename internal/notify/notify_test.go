package notify

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/floormark/internal/platform"
)

type sent struct {
	title, body string
	opts        platform.Options
}

func capture(t *testing.T) *[]sent {
	t.Helper()
	var got []sent
	prev := send
	send = func(title, body string, opts platform.Options) error {
		got = append(got, sent{title, body, opts})
		return nil
	}
	t.Cleanup(func() { send = prev })
	return &got
}

func TestDisabledEventsAreSilent(t *testing.T) {
	got := capture(t)
	n := New(DefaultPreferences(), nil)
	n.Export("plan.jpg")
	n.Copy("")
	var nilNotifier *Notifier
	nilNotifier.Copy("x")
	if len(*got) != 0 {
		t.Fatalf("unexpected notifications: %+v", *got)
	}
}

func TestExportUsesAbsolutePathAndIcon(t *testing.T) {
	got := capture(t)
	path := filepath.Join(t.TempDir(), "20261018_plan.jpg")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	n := New(DefaultPreferences(), nil)
	n.Enable(EventExport, true)
	n.Export(path)
	if len(*got) != 1 {
		t.Fatalf("got %d notifications", len(*got))
	}
	s := (*got)[0]
	if s.title != "Floormark" || s.body != "Exported "+path || s.opts.IconPath != path {
		t.Fatalf("unexpected notification %+v", s)
	}
}

func TestLoadPreferences(t *testing.T) {
	env := map[string]string{
		"FLOORMARK_NOTIFY_TITLE":     "店舗",
		"FLOORMARK_NOTIFY_COPY_TEXT": "已複製",
	}
	got := capture(t)
	n := New(LoadPreferences(func(k string) string { return env[k] }), nil)
	n.Enable(EventCopy, true)
	n.Copy("")
	if len(*got) != 1 || (*got)[0].title != "店舗" || (*got)[0].body != "已複製" {
		t.Fatalf("unexpected notifications %+v", *got)
	}
}

func TestSendErrorsAreSwallowed(t *testing.T) {
	prev := send
	send = func(string, string, platform.Options) error { return errors.New("no bus") }
	t.Cleanup(func() { send = prev })
	n := New(DefaultPreferences(), nil)
	n.Enable(EventCopy, true)
	n.Copy("plan")
}
