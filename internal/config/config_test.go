package config

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	input := `
theme = my_custom_theme
save_dir = /tmp/plans
jpeg_quality = 90
pdf_scale = 2

[fonts]
files = msjhbd.ttc, NotoSansTC-Bold.otf
dirs = /usr/share/fonts

[server]
addr = 127.0.0.1:9000
max_upload = 1048576
session_ttl = 30m

[notify]
export = false
copy = true

[categories]
商品 = #112233

[theme.my_custom_theme]
Background = #111111
Foreground = #FFFFFF
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Theme != "my_custom_theme" {
		t.Errorf("Expected theme 'my_custom_theme', got '%s'", cfg.Theme)
	}
	if cfg.SaveDir != "/tmp/plans" {
		t.Errorf("Expected save_dir '/tmp/plans', got '%s'", cfg.SaveDir)
	}
	if cfg.JPEGQuality != 90 || cfg.PDFScale != 2 || cfg.DisplayWidth != 1000 {
		t.Errorf("unexpected image settings: %d %g %d", cfg.JPEGQuality, cfg.PDFScale, cfg.DisplayWidth)
	}
	if diff := cmp.Diff(Fonts{Files: []string{"msjhbd.ttc", "NotoSansTC-Bold.otf"}, Dirs: []string{"/usr/share/fonts"}}, cfg.Fonts); diff != "" {
		t.Errorf("fonts mismatch (-want +got):\n%s", diff)
	}
	if want := (Server{Addr: "127.0.0.1:9000", MaxUpload: 1 << 20, SessionTTL: 30 * time.Minute}); cfg.Server != want {
		t.Errorf("server %+v, want %+v", cfg.Server, want)
	}
	if cfg.Notify.Export || !cfg.Notify.Copy {
		t.Errorf("unexpected notify %+v", cfg.Notify)
	}
	if got := cfg.Palette().Color("商品"); got != (color.RGBA{0x11, 0x22, 0x33, 0xFF}) {
		t.Errorf("category override not applied: %+v", got)
	}
	if got := cfg.Palette().Color("價格"); got != (color.RGBA{0xFF, 0xD7, 0x40, 0xFF}) {
		t.Errorf("untouched category changed: %+v", got)
	}

	theme, ok := cfg.Themes["my_custom_theme"]
	if !ok {
		t.Fatal("Expected theme 'my_custom_theme' to be loaded")
	}
	if theme.Background.R != 0x11 || theme.Background.G != 0x11 || theme.Background.B != 0x11 {
		t.Errorf("Unexpected Background color: %+v", theme.Background)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{
		"jpeg_quality = high\n",
		"[server]\nsession_ttl = soon\n",
		"[notify]\nexport = maybe\n",
		"[categories]\n商品 = red\n",
		"[theme.x]\nBackground: 111111\n",
	} {
		if _, err := Parse(strings.NewReader(input)); err == nil {
			t.Errorf("expected error for %q", input)
		}
	}
}

func TestValidate(t *testing.T) {
	cfg := New()
	cfg.JPEGQuality = 0
	cfg.PDFScale = -1
	cfg.Categories["寵物"] = color.RGBA{A: 255}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"jpeg_quality", "pdf_scale", "寵物"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
	if err := New().Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestCircular(t *testing.T) {
	input := `theme = dark
save_dir = /home/user/plans

[fonts]
dirs = /opt/fonts, /usr/share/fonts

[server]
addr = :9090

[notify]
export = true
copy = false

[categories]
清潔 = #00FF00

[theme.custom]
Name = custom
Background = #000000
Foreground = #FFFFFF
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Initial parse failed: %v", err)
	}
	generated := cfg.String()
	cfg2, err := Parse(strings.NewReader(generated))
	if err != nil {
		t.Fatalf("Circular parse failed: %v\n%s", err, generated)
	}
	if diff := cmp.Diff(cfg, cfg2); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"FLOORMARK_ADDR":        ":7000",
		"FLOORMARK_SAVE_DIR":    "/srv/plans",
		"FLOORMARK_SESSION_TTL": "5m",
		"FLOORMARK_FONT_DIRS":   "/a, /b",
	}
	cfg := New()
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":7000" || cfg.SaveDir != "/srv/plans" || cfg.Server.SessionTTL != 5*time.Minute {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if diff := cmp.Diff([]string{"/a", "/b"}, cfg.Fonts.Dirs); diff != "" {
		t.Fatalf("font dirs (-want +got):\n%s", diff)
	}

	env["FLOORMARK_JPEG_QUALITY"] = "best"
	if err := New().ApplyEnv(func(k string) string { return env[k] }); err == nil || !strings.Contains(err.Error(), "FLOORMARK_JPEG_QUALITY") {
		t.Fatalf("expected named env error, got %v", err)
	}
}

func TestLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.rc")
	if err := os.WriteFile(path, []byte("jpeg_quality = 80\n[server]\naddr = :1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("FLOORMARK_TEST_ONLY=1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("FLOORMARK_TEST_ONLY") })

	l := NewLoader("v1.0.0", path)
	l.EnvFiles = []string{envFile, filepath.Join(dir, "missing.env")}
	l.Getenv = func(k string) string {
		if k == "FLOORMARK_ADDR" {
			return ":2"
		}
		return ""
	}
	cfg, err := l.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.JPEGQuality != 80 || cfg.Server.Addr != ":2" {
		t.Fatalf("file or env not applied: quality %d addr %s", cfg.JPEGQuality, cfg.Server.Addr)
	}
	if os.Getenv("FLOORMARK_TEST_ONLY") != "1" {
		t.Fatal(".env file not loaded")
	}

	out := filepath.Join(dir, "nested", "config.rc")
	if err := Save(cfg, out); err != nil {
		t.Fatal(err)
	}
	l2 := NewLoader("v1.0.0", out)
	l2.EnvFiles = nil
	l2.Getenv = func(string) string { return "" }
	cfg2, err := l2.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg2.Server.Addr != ":2" || cfg2.JPEGQuality != 80 {
		t.Fatalf("saved config not reloaded: %+v", cfg2)
	}
}
