package theme

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
)

// EmbeddedThemes holds the themes shipped with the binary.
//
//go:embed defaults/*.theme
var EmbeddedThemes embed.FS

// Names lists the embedded theme names.
func Names() []string {
	entries, _ := fs.ReadDir(EmbeddedThemes, "defaults")
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".theme"))
	}
	sort.Strings(names)
	return names
}
