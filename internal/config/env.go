package config

import (
	"fmt"
	"strconv"
	"time"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "FLOORMARK_"

// ApplyEnv overrides settings from FLOORMARK_* variables read with getenv.
// Empty variables are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := func(name string, dst *string) {
		if v := getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	str("THEME", &c.Theme)
	str("SAVE_DIR", &c.SaveDir)
	str("ADDR", &c.Server.Addr)

	if v := getenv(EnvPrefix + "FONT_FILES"); v != "" {
		c.Fonts.Files = splitList(v)
	}
	if v := getenv(EnvPrefix + "FONT_DIRS"); v != "" {
		c.Fonts.Dirs = splitList(v)
	}

	parse := func(name string, set func(string) error) error {
		v := getenv(EnvPrefix + name)
		if v == "" {
			return nil
		}
		if err := set(v); err != nil {
			return fmt.Errorf("%s%s=%q: %w", EnvPrefix, name, v, err)
		}
		return nil
	}
	return firstErr(
		parse("DISPLAY_WIDTH", func(v string) (err error) { c.DisplayWidth, err = strconv.Atoi(v); return }),
		parse("JPEG_QUALITY", func(v string) (err error) { c.JPEGQuality, err = strconv.Atoi(v); return }),
		parse("PDF_SCALE", func(v string) (err error) { c.PDFScale, err = strconv.ParseFloat(v, 64); return }),
		parse("MAX_UPLOAD", func(v string) (err error) { c.Server.MaxUpload, err = strconv.ParseInt(v, 10, 64); return }),
		parse("SESSION_TTL", func(v string) (err error) { c.Server.SessionTTL, err = time.ParseDuration(v); return }),
	)
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
