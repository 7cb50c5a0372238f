// internal/util/util.go
package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteFile writes data to a file with 0o644 permissions, creating the
// parent directory when needed.
func WriteFile(path string, data []byte) error {
	if err := EnsureParentDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// EnsureParentDir creates the directory that will hold path.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("unable to create directory for %s: %w", path, err)
	}
	return nil
}

// SplitList splits a comma separated flag value, trimming blanks and
// dropping empty entries.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Truncate shortens text to maxRunes runes, appending an ellipsis if truncated.
func Truncate(text string, maxRunes int) string {
	runes := []rune(text)
	if maxRunes <= 0 || len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes]) + "…"
}
