package render

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/util"
)

// Markdown mounts a tree as a Markdown document, used for exports.
func Markdown(n Node) string {
	var b strings.Builder
	writeMarkdown(&b, n)
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeMarkdown(b *strings.Builder, n Node) {
	switch n.kind {
	case KindPlaceholder:
		fmt.Fprintf(b, "_%s_\n", n.text)
	case KindContainer, KindSection, KindTableContainer:
		for _, c := range n.children {
			writeMarkdown(b, c)
		}
	case KindHeading:
		fmt.Fprintf(b, "## %s\n\n", util.OneLine(n.text))
	case KindStatGrid:
		for _, box := range n.children {
			writeMarkdownStat(b, box)
		}
		b.WriteString("\n")
	case KindParagraph:
		fmt.Fprintf(b, "%s\n\n", n.text)
	case KindDescription:
		fmt.Fprintf(b, "%s\n\n", n.text)
	case KindTable:
		t := newTableWriter(n, util.OneLine)
		if t == nil {
			return
		}
		t.Style().Format.Header = text.FormatDefault
		b.WriteString(t.RenderMarkdown() + "\n\n")
	}
}

func writeMarkdownStat(b *strings.Builder, box Node) {
	var label string
	for _, c := range box.children {
		switch c.kind {
		case KindStatLabel:
			label = util.OneLine(c.text)
		case KindStatValue:
			fmt.Fprintf(b, "- **%s**: %s\n", label, util.OneLine(c.text))
		case KindStatList:
			fmt.Fprintf(b, "- **%s**\n", label)
			for _, item := range c.children {
				key, value := listItemText(item)
				fmt.Fprintf(b, "  - **%s**: %s\n", util.OneLine(key), util.OneLine(value))
			}
		}
	}
}
