package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/example/floormark/internal/theme"
)

// Parse reads configuration from an io.Reader.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	var currentSection string
	var currentTheme *theme.Theme

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			currentTheme = nil

			if name, ok := strings.CutPrefix(currentSection, "theme."); ok {
				// Start with defaults so missing keys are fine
				currentTheme = theme.Default()
				currentTheme.Name = name
				cfg.Themes[name] = currentTheme
			}
			continue
		}

		key, value, ok := splitLine(line)
		if !ok {
			continue
		}

		var err error
		switch {
		case currentTheme != nil:
			err = theme.SetField(currentTheme, key, value)
		case currentSection == "":
			err = setRootField(cfg, key, value)
		case currentSection == "fonts":
			setFontsField(&cfg.Fonts, key, value)
		case currentSection == "server":
			err = setServerField(&cfg.Server, key, value)
		case currentSection == "notify":
			err = setNotifyField(&cfg.Notify, key, value)
		case currentSection == "categories":
			err = setCategory(cfg, key, value)
		}
		if err != nil {
			if currentSection == "" {
				return nil, fmt.Errorf("error in root section: %w", err)
			}
			return nil, fmt.Errorf("error in section [%s]: %w", currentSection, err)
		}
	}

	return cfg, scanner.Err()
}

// splitLine parses "Key = Value" or "Key: Value". Values may be quoted.
func splitLine(line string) (string, string, bool) {
	sep := "="
	if !strings.Contains(line, "=") {
		if !strings.Contains(line, ":") {
			return "", "", false
		}
		sep = ":"
	}
	key, value, _ := strings.Cut(line, sep)
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if len(value) >= 2 && strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") {
		value = value[1 : len(value)-1]
	}
	return key, value, true
}

func setRootField(cfg *Config, key, value string) error {
	var err error
	switch strings.ToLower(key) {
	case "theme":
		cfg.Theme = value
	case "save_dir":
		cfg.SaveDir = value
	case "display_width":
		cfg.DisplayWidth, err = strconv.Atoi(value)
	case "jpeg_quality":
		cfg.JPEGQuality, err = strconv.Atoi(value)
	case "pdf_scale":
		cfg.PDFScale, err = strconv.ParseFloat(value, 64)
	}
	if err != nil {
		return fmt.Errorf("invalid value for key %s: %w", key, err)
	}
	return nil
}

func setFontsField(f *Fonts, key, value string) {
	switch strings.ToLower(key) {
	case "files":
		f.Files = splitList(value)
	case "dirs":
		f.Dirs = splitList(value)
	}
}

func setServerField(s *Server, key, value string) error {
	var err error
	switch strings.ToLower(key) {
	case "addr":
		s.Addr = value
	case "max_upload":
		s.MaxUpload, err = strconv.ParseInt(value, 10, 64)
	case "session_ttl":
		s.SessionTTL, err = time.ParseDuration(value)
	}
	if err != nil {
		return fmt.Errorf("invalid value for key %s: %w", key, err)
	}
	return nil
}

func setNotifyField(n *Notify, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	switch strings.ToLower(key) {
	case "export":
		n.Export = b
	case "copy":
		n.Copy = b
	}
	return nil
}

func setCategory(cfg *Config, label, value string) error {
	col, err := theme.ParseColor(value)
	if err != nil {
		return fmt.Errorf("invalid color for category %s: %w", label, err)
	}
	cfg.Categories[label] = col
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
