package config

import (
	"errors"
	"fmt"
	"image/color"
	"sort"
	"strings"
	"time"

	"github.com/example/floormark/internal/marker"
	"github.com/example/floormark/internal/theme"
)

// Notify holds notification settings.
type Notify struct {
	Export bool
	Copy   bool
}

// Fonts lists the label font files and the directories searched for them.
type Fonts struct {
	Files []string
	Dirs  []string
}

// Server holds the settings of the HTTP surface.
type Server struct {
	Addr       string
	MaxUpload  int64
	SessionTTL time.Duration
}

// Config holds the application configuration.
type Config struct {
	Theme        string
	SaveDir      string
	DisplayWidth int
	JPEGQuality  int
	PDFScale     float64

	Fonts      Fonts
	Server     Server
	Notify     Notify
	Categories map[string]color.RGBA
	Themes     map[string]*theme.Theme
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		DisplayWidth: 1000,
		JPEGQuality:  95,
		PDFScale:     1.5,
		Server: Server{
			Addr:       ":8080",
			MaxUpload:  50 << 20,
			SessionTTL: time.Hour,
		},
		Notify: Notify{
			Export: true,
		},
		Categories: make(map[string]color.RGBA),
		Themes:     make(map[string]*theme.Theme),
	}
}

// Palette returns the category colours with any configured overrides.
func (c *Config) Palette() marker.Palette {
	p := marker.DefaultPalette()
	for label, col := range c.Categories {
		p = p.WithColor(label, col)
	}
	return p
}

// Validate reports settings that are out of range.
func (c *Config) Validate() error {
	var errs []error
	if c.DisplayWidth < 1 {
		errs = append(errs, fmt.Errorf("display_width must be positive, got %d", c.DisplayWidth))
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("jpeg_quality must be between 1 and 100, got %d", c.JPEGQuality))
	}
	if c.PDFScale <= 0 || c.PDFScale > 8 {
		errs = append(errs, fmt.Errorf("pdf_scale must be in (0, 8], got %g", c.PDFScale))
	}
	if c.Server.MaxUpload < 1 {
		errs = append(errs, fmt.Errorf("server.max_upload must be positive, got %d", c.Server.MaxUpload))
	}
	if c.Server.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("server.session_ttl must be positive, got %s", c.Server.SessionTTL))
	}
	for label := range c.Categories {
		if !marker.IsCategory(label) {
			errs = append(errs, fmt.Errorf("categories: unknown category %q", label))
		}
	}
	return errors.Join(errs...)
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.SaveDir != "" {
		fmt.Fprintf(&sb, "save_dir = %s\n", c.SaveDir)
	}
	fmt.Fprintf(&sb, "display_width = %d\n", c.DisplayWidth)
	fmt.Fprintf(&sb, "jpeg_quality = %d\n", c.JPEGQuality)
	fmt.Fprintf(&sb, "pdf_scale = %g\n", c.PDFScale)
	sb.WriteString("\n")

	if len(c.Fonts.Files) > 0 || len(c.Fonts.Dirs) > 0 {
		sb.WriteString("[fonts]\n")
		if len(c.Fonts.Files) > 0 {
			fmt.Fprintf(&sb, "files = %s\n", strings.Join(c.Fonts.Files, ", "))
		}
		if len(c.Fonts.Dirs) > 0 {
			fmt.Fprintf(&sb, "dirs = %s\n", strings.Join(c.Fonts.Dirs, ", "))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("[server]\n")
	fmt.Fprintf(&sb, "addr = %s\n", c.Server.Addr)
	fmt.Fprintf(&sb, "max_upload = %d\n", c.Server.MaxUpload)
	fmt.Fprintf(&sb, "session_ttl = %s\n", c.Server.SessionTTL)
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "export = %v\n", c.Notify.Export)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	sb.WriteString("\n")

	if len(c.Categories) > 0 {
		sb.WriteString("[categories]\n")
		// Table order, not map order.
		for _, label := range marker.Categories() {
			if col, ok := c.Categories[label]; ok {
				fmt.Fprintf(&sb, "%s = %s\n", label, theme.Hex(col))
			}
		}
		sb.WriteString("\n")
	}

	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	for _, name := range themeNames {
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		theme.Write(&sb, c.Themes[name])
		sb.WriteString("\n")
	}

	return sb.String()
}
