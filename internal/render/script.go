package render

import (
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

// Script colours generated Python source for a 256-colour terminal. Source
// chroma cannot handle is returned unchanged.
func Script(src string) string {
	if strings.TrimSpace(src) == "" {
		return src
	}
	var buf bytes.Buffer
	if err := quick.Highlight(&buf, src, "python", "terminal256", "monokai"); err != nil {
		return src
	}
	return strings.TrimRight(buf.String(), "\n")
}
