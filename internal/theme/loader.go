package theme

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when no source provides the requested theme.
var ErrNotFound = errors.New("theme not found")

// Loader handles loading themes from various sources.
type Loader struct {
	ConfigDir string
	SystemDir string
}

// NewLoader creates a new Loader with standard paths.
func NewLoader() *Loader {
	home, _ := os.UserHomeDir()
	return &Loader{
		ConfigDir: filepath.Join(home, ".config", "floormark", "themes"),
		SystemDir: "/usr/share/floormark/themes",
	}
}

// Load resolves a theme by name or path. A path to an existing file wins,
// then the embedded themes, then ConfigDir and SystemDir. An empty name
// returns Default.
func (l *Loader) Load(name string) (*Theme, error) {
	if name == "" {
		return Default(), nil
	}
	if t, err := parseFS(os.DirFS(filepath.Dir(name)), filepath.Base(name)); err == nil || !errors.Is(err, fs.ErrNotExist) {
		return t, err
	}

	filename := name
	if !strings.HasSuffix(filename, ".theme") {
		filename += ".theme"
	}
	if t, err := parseFS(EmbeddedThemes, "defaults/"+filename); err == nil || !errors.Is(err, fs.ErrNotExist) {
		return t, err
	}
	for _, dir := range []string{l.ConfigDir, l.SystemDir} {
		if dir == "" {
			continue
		}
		if t, err := parseFS(os.DirFS(dir), filename); err == nil || !errors.Is(err, fs.ErrNotExist) {
			return t, err
		}
	}
	return nil, fmt.Errorf("theme %q: %w", name, ErrNotFound)
}

func parseFS(fsys fs.FS, name string) (*Theme, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if st, err := f.Stat(); err == nil && st.IsDir() {
		return nil, fs.ErrNotExist
	}
	return Parse(f)
}
