package render

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTML mounts a tree as an HTML fragment. All text goes through text nodes,
// so markup inside result values is escaped rather than interpreted.
func HTML(n Node) (string, error) {
	root := &html.Node{Type: html.ElementNode, DataAtom: atom.Div, Data: "div"}
	root.Attr = []html.Attribute{{Key: "class", Val: "analysis-output"}}
	root.AppendChild(htmlNode(n))

	var b strings.Builder
	if err := html.Render(&b, root); err != nil {
		return "", err
	}
	return b.String(), nil
}

func htmlElement(a atom.Atom, class string) *html.Node {
	el := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	if class != "" {
		el.Attr = []html.Attribute{{Key: "class", Val: class}}
	}
	return el
}

func htmlText(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func withText(el *html.Node, s string) *html.Node {
	el.AppendChild(htmlText(s))
	return el
}

func htmlNode(n Node) *html.Node {
	var el *html.Node
	switch n.kind {
	case KindPlaceholder:
		return withText(htmlElement(atom.Div, "no-result"), n.text)
	case KindContainer:
		el = htmlElement(atom.Div, "")
	case KindSection:
		el = htmlElement(atom.Div, "mb-4")
	case KindHeading:
		return withText(htmlElement(atom.H5, "mb-3"), n.text)
	case KindStatGrid:
		el = htmlElement(atom.Div, "stats-grid mb-3")
	case KindStatBox:
		el = htmlElement(atom.Div, "stat-box")
	case KindStatLabel:
		return withText(htmlElement(atom.Div, "stat-label"), n.text)
	case KindStatValue:
		return withText(htmlElement(atom.Div, "stat-value"), n.text)
	case KindStatList:
		wrapper := htmlElement(atom.Div, "stat-value-list")
		list := htmlElement(atom.Ul, "list-unstyled mb-0")
		for _, c := range n.children {
			list.AppendChild(htmlNode(c))
		}
		wrapper.AppendChild(list)
		return wrapper
	case KindListItem:
		el = htmlElement(atom.Li, "")
		key, value := listItemText(n)
		el.AppendChild(withText(htmlElement(atom.Span, "fw-bold"), key))
		el.AppendChild(htmlText(": " + value))
		return el
	case KindParagraph:
		return withText(htmlElement(atom.Div, "mb-3"), n.text)
	case KindTableContainer:
		el = htmlElement(atom.Div, "table-responsive mb-3")
	case KindDescription:
		return withText(htmlElement(atom.Div, "mb-2"), n.text)
	case KindTable:
		el = htmlElement(atom.Table, "table table-sm table-bordered table-hover")
	case KindTableHead:
		el = htmlElement(atom.Thead, "")
	case KindTableBody:
		el = htmlElement(atom.Tbody, "")
	case KindRow:
		el = htmlElement(atom.Tr, "")
	case KindHeaderCell:
		return withText(htmlElement(atom.Th, ""), n.text)
	case KindCell:
		return withText(htmlElement(atom.Td, ""), n.text)
	default:
		el = htmlElement(atom.Div, "")
	}
	for _, c := range n.children {
		el.AppendChild(htmlNode(c))
	}
	return el
}
