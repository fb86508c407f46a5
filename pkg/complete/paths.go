package complete

import (
	"os"
	"path/filepath"
	"strings"
)

// FilePaths is a grammar.CompleterFunc suggesting filesystem paths.
// Directories are suggested with a trailing separator, which also marks
// them as expecting more input so no space is appended after them.
func FilePaths(prefix string) ([]string, error) {
	dir, base := filepath.Split(prefix)
	searchDir := dir
	if searchDir == "" {
		searchDir = "."
	}
	entries, err := os.ReadDir(searchDir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, ent := range entries {
		name := ent.Name()
		if !strings.HasPrefix(name, base) {
			continue
		}
		if base == "" && strings.HasPrefix(name, ".") {
			continue
		}
		full := dir + name
		if ent.IsDir() {
			full += string(os.PathSeparator)
		}
		out = append(out, full)
	}
	return out, nil
}
