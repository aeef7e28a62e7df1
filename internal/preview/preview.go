// Package preview turns the dataset preview HTML returned by an upload into
// terminal text with a short and a full view.
package preview

import (
	"bytes"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	classShort = "preview-short"
	classFull  = "preview-full"
)

// View is one rendering of the preview: a table when the fragment holds one,
// otherwise the fragment converted to Markdown.
type View struct {
	Header []string
	Rows   [][]string
	Text   string
}

// IsTable reports whether the view was extracted from an HTML table.
func (v View) IsTable() bool { return len(v.Header) > 0 }

// Preview holds the collapsed and expanded views of an uploaded dataset.
type Preview struct {
	Short View
	Full  View
}

// Parse extracts the short and full preview fragments. A document without the
// two fragments is used for both views.
func Parse(raw string) (Preview, error) {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return Preview{}, fmt.Errorf("parse preview: %w", err)
	}

	short := findByClass(doc, classShort)
	full := findByClass(doc, classFull)
	if short == nil && full == nil {
		v, err := viewOf(doc)
		if err != nil {
			return Preview{}, err
		}
		return Preview{Short: v, Full: v}, nil
	}
	if short == nil {
		short = full
	}
	if full == nil {
		full = short
	}

	var p Preview
	if p.Short, err = viewOf(short); err != nil {
		return Preview{}, err
	}
	if p.Full, err = viewOf(full); err != nil {
		return Preview{}, err
	}
	return p, nil
}

// Render formats the short or full view for the terminal.
func (p Preview) Render(expanded bool) string {
	if expanded {
		return p.Full.Render()
	}
	return p.Short.Render()
}

// Render formats the view for the terminal.
func (v View) Render() string {
	if !v.IsTable() {
		return strings.TrimSpace(v.Text)
	}
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault

	header := make(table.Row, len(v.Header))
	for i, h := range v.Header {
		header[i] = h
	}
	t.AppendHeader(header)
	for _, row := range v.Rows {
		r := make(table.Row, len(row))
		for i, c := range row {
			r[i] = c
		}
		t.AppendRow(r)
	}
	return t.Render()
}

func viewOf(n *html.Node) (View, error) {
	if tbl := findElement(n, atom.Table); tbl != nil {
		if v, ok := tableView(tbl); ok {
			return v, nil
		}
	}
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return View{}, fmt.Errorf("render preview fragment: %w", err)
		}
	}
	md, err := htmltomarkdown.ConvertString(buf.String())
	if err != nil {
		return View{}, fmt.Errorf("convert preview: %w", err)
	}
	return View{Text: md}, nil
}

func tableView(tbl *html.Node) (View, bool) {
	var v View
	walk(tbl, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.DataAtom != atom.Tr {
			return true
		}
		var cells []string
		header := true
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Th:
				cells = append(cells, textContent(c))
			case atom.Td:
				header = false
				cells = append(cells, textContent(c))
			}
		}
		if header && v.Header == nil && len(v.Rows) == 0 {
			v.Header = cells
		} else if len(cells) > 0 {
			v.Rows = append(v.Rows, cells)
		}
		return false
	})
	return v, len(v.Header) > 0
}

func findByClass(n *html.Node, class string) *html.Node {
	var found *html.Node
	walk(n, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode && hasClass(n, class) {
			found = n
			return false
		}
		return true
	})
	return found
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	var found *html.Node
	walk(n, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode && n.DataAtom == a {
			found = n
			return false
		}
		return true
	})
	return found
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

// walk visits n and its descendants depth first; fn returning false skips the children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func textContent(n *html.Node) string {
	var b strings.Builder
	walk(n, func(n *html.Node) bool {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		return true
	})
	return strings.Join(strings.Fields(b.String()), " ")
}
