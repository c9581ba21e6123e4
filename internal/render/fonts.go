package render

import (
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// DefaultFontFiles lists the label fonts tried in order. Bold CJK faces come
// first so category labels and sequence numbers stay legible.
func DefaultFontFiles() []string {
	return []string{
		"msjhbd.ttc",
		"msjh.ttc",
		"arialbd.ttf",
		"arial.ttf",
		"/System/Library/Fonts/STHeiti Light.ttc",
		"DejaVuSans.ttf",
	}
}

// DefaultFontDirs returns the platform's usual font directories.
func DefaultFontDirs() []string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		windir := os.Getenv("WINDIR")
		if windir == "" {
			windir = `C:\Windows`
		}
		return []string{filepath.Join(windir, "Fonts")}
	case "darwin":
		return []string{"/System/Library/Fonts", "/Library/Fonts", filepath.Join(home, "Library", "Fonts")}
	default:
		return []string{"/usr/share/fonts", "/usr/local/share/fonts", filepath.Join(home, ".fonts"), filepath.Join(home, ".local", "share", "fonts")}
	}
}

// FontSet resolves the label font once and hands out faces per pixel size.
// When none of the candidate files can be loaded it falls back to Go Regular.
// The parsed font is shared; every Face call returns a new face because
// opentype faces keep glyph buffers and must not be used concurrently.
type FontSet struct {
	Files []string
	Dirs  []string
	Log   *slog.Logger

	readFile func(string) ([]byte, error)

	once   sync.Once
	font   *opentype.Font
	source string
}

// NewFontSet creates a FontSet. Empty arguments select the defaults.
func NewFontSet(files, dirs []string) *FontSet {
	if len(files) == 0 {
		files = DefaultFontFiles()
	}
	if len(dirs) == 0 {
		dirs = DefaultFontDirs()
	}
	return &FontSet{Files: files, Dirs: dirs, readFile: os.ReadFile}
}

// Source names the file the faces come from, or "goregular".
func (set *FontSet) Source() string {
	set.once.Do(set.resolve)
	return set.source
}

// Face returns a new face whose em size is px pixels for use by a single
// goroutine. It never returns nil.
func (set *FontSet) Face(px float64) font.Face {
	set.once.Do(set.resolve)
	if px < 1 || math.IsNaN(px) {
		px = 1
	}
	opts := &opentype.FaceOptions{Size: px, DPI: 72, Hinting: font.HintingFull}
	face, err := opentype.NewFace(set.font, opts)
	if err != nil {
		set.logger().Debug("font face", "size", px, "error", err)
		face, _ = opentype.NewFace(fallbackFont(), opts)
	}
	return face
}

func (set *FontSet) logger() *slog.Logger {
	if set.Log != nil {
		return set.Log
	}
	return slog.Default()
}

func (set *FontSet) resolve() {
	for _, name := range set.Files {
		if f, path, ok := set.tryPaths(set.candidates(name)); ok {
			set.font, set.source = f, path
			return
		}
	}
	for _, name := range set.Files {
		if filepath.IsAbs(name) {
			continue
		}
		if f, path, ok := set.tryPaths(set.search(name)); ok {
			set.font, set.source = f, path
			return
		}
	}
	set.font, set.source = fallbackFont(), "goregular"
}

func (set *FontSet) tryPaths(paths []string) (*opentype.Font, string, bool) {
	read := set.readFile
	if read == nil {
		read = os.ReadFile
	}
	for _, path := range paths {
		data, err := read(path)
		if err != nil {
			continue
		}
		f, err := parseFont(data)
		if err != nil {
			set.logger().Debug("skip font", "path", path, "error", err)
			continue
		}
		return f, path, true
	}
	return nil, "", false
}

// candidates expands a font name into the direct paths to try: the name
// itself, then the name inside each font directory.
func (set *FontSet) candidates(name string) []string {
	if filepath.IsAbs(name) {
		return []string{name}
	}
	out := []string{name}
	for _, dir := range set.Dirs {
		out = append(out, filepath.Join(dir, name))
	}
	return out
}

// search looks for a file called name anywhere below the font directories.
func (set *FontSet) search(name string) []string {
	var out []string
	for _, dir := range set.Dirs {
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return fs.SkipDir
			}
			if !d.IsDir() && strings.EqualFold(d.Name(), name) {
				out = append(out, path)
				return fs.SkipAll
			}
			return nil
		})
	}
	return out
}

func parseFont(data []byte) (*opentype.Font, error) {
	f, err := opentype.Parse(data)
	if err == nil {
		return f, nil
	}
	coll, cerr := opentype.ParseCollection(data)
	if cerr != nil {
		return nil, err
	}
	return coll.Font(0)
}

var (
	goregularOnce sync.Once
	goregularFont *opentype.Font
)

func fallbackFont() *opentype.Font {
	goregularOnce.Do(func() {
		f, err := opentype.Parse(goregular.TTF)
		if err != nil {
			panic(err)
		}
		goregularFont = f
	})
	return goregularFont
}
