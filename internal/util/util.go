// Package util holds small file and text helpers shared by the renderers and commands.
package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// WriteFile writes data to path with 0o644 permissions, creating missing
// parent directories.
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// TruncateRunes truncates a string to a maximum number of runes,
// appending an ellipsis if truncated.
func TruncateRunes(text string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxRunes]) + "…"
}

// OneLine collapses runs of whitespace, including newlines, to single spaces.
func OneLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// WrapToWidth wraps text at word boundaries to width runes, splitting words
// longer than a line. Blank lines are kept.
func WrapToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		words := strings.Fields(line)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		var cur strings.Builder
		n := 0
		flush := func() {
			if n > 0 {
				out = append(out, cur.String())
				cur.Reset()
				n = 0
			}
		}
		for _, w := range words {
			wLen := utf8.RuneCountInString(w)
			if n > 0 && n+1+wLen <= width {
				cur.WriteByte(' ')
				cur.WriteString(w)
				n += 1 + wLen
				continue
			}
			flush()
			r := []rune(w)
			for len(r) > width {
				out = append(out, string(r[:width]))
				r = r[width:]
			}
			cur.WriteString(string(r))
			n = len(r)
		}
		flush()
	}
	return strings.Join(out, "\n")
}
