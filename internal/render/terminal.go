package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/util"
)

var (
	headingStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")).MarginBottom(1)
	placeholderStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("244"))
	statBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1).MarginRight(1)
	statLabelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	statValueStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("40"))
	listKeyStyle     = lipgloss.NewStyle().Bold(true)
	descriptionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
)

// Terminal mounts a tree as styled terminal text wrapped to width. A width of
// zero or less disables wrapping.
func Terminal(n Node, width int) string {
	var b strings.Builder
	writeTerminal(&b, n, width)
	return strings.TrimRight(b.String(), "\n")
}

func writeTerminal(b *strings.Builder, n Node, width int) {
	switch n.kind {
	case KindPlaceholder:
		b.WriteString(placeholderStyle.Render(n.text))
		b.WriteString("\n")
	case KindContainer:
		for _, c := range n.children {
			writeTerminal(b, c, width)
		}
	case KindSection:
		for _, c := range n.children {
			writeTerminal(b, c, width)
		}
		b.WriteString("\n")
	case KindHeading:
		b.WriteString(headingStyle.Render(n.text))
		b.WriteString("\n")
	case KindStatGrid:
		b.WriteString(statGridTerminal(n, width))
		b.WriteString("\n\n")
	case KindParagraph:
		b.WriteString(util.WrapToWidth(n.text, width))
		b.WriteString("\n\n")
	case KindTableContainer:
		for _, c := range n.children {
			writeTerminal(b, c, width)
		}
	case KindDescription:
		b.WriteString(descriptionStyle.Render(util.WrapToWidth(n.text, width)))
		b.WriteString("\n")
	case KindTable:
		if out := tableTerminal(n); out != "" {
			b.WriteString(out)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
}

// statGridTerminal lays stat boxes out left to right, starting a new line when
// the next box would overflow width.
func statGridTerminal(grid Node, width int) string {
	var lines []string
	var current []string
	lineWidth := 0
	for _, box := range grid.children {
		rendered := statBoxStyle.Render(statBoxContent(box))
		w := lipgloss.Width(rendered)
		if width > 0 && lineWidth > 0 && lineWidth+w > width {
			lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, current...))
			current = nil
			lineWidth = 0
		}
		current = append(current, rendered)
		lineWidth += w
	}
	if len(current) > 0 {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, current...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func statBoxContent(box Node) string {
	var parts []string
	for _, c := range box.children {
		switch c.kind {
		case KindStatLabel:
			parts = append(parts, statLabelStyle.Render(c.text))
		case KindStatValue:
			parts = append(parts, statValueStyle.Render(c.text))
		case KindStatList:
			for _, item := range c.children {
				key, value := listItemText(item)
				parts = append(parts, listKeyStyle.Render(key)+": "+value)
			}
		}
	}
	return strings.Join(parts, "\n")
}

func listItemText(item Node) (string, string) {
	var key, value string
	for _, c := range item.children {
		switch c.kind {
		case KindListKey:
			key = c.text
		case KindListValue:
			value = c.text
		}
	}
	return key, value
}

func tableTerminal(n Node) string {
	t := newTableWriter(n, nil)
	if t == nil {
		return ""
	}
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	return t.Render()
}

// newTableWriter loads a table node into a go-pretty writer, passing every
// cell through clean when it is set. It returns nil for a table without columns.
func newTableWriter(n Node, clean func(string) string) table.Writer {
	head, rows := tableCells(n)
	if len(head) == 0 {
		return nil
	}
	if clean == nil {
		clean = func(s string) string { return s }
	}
	t := table.NewWriter()
	header := make(table.Row, len(head))
	for i, h := range head {
		header[i] = clean(h)
	}
	t.AppendHeader(header)
	for _, r := range rows {
		row := make(table.Row, len(r))
		for i, v := range r {
			row[i] = clean(v)
		}
		t.AppendRow(row)
	}
	return t
}

// tableCells flattens a table node into its header and body text.
func tableCells(n Node) ([]string, [][]string) {
	var head []string
	var rows [][]string
	for _, part := range n.children {
		switch part.kind {
		case KindTableHead:
			for _, r := range part.children {
				for _, c := range r.children {
					head = append(head, c.text)
				}
			}
		case KindTableBody:
			for _, r := range part.children {
				cells := make([]string, 0, len(r.children))
				for _, c := range r.children {
					cells = append(cells, c.text)
				}
				rows = append(rows, cells)
			}
		}
	}
	return head, rows
}
