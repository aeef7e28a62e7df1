// Package render turns analysis results into an immutable UI tree and mounts
// that tree onto concrete outputs (terminal text, HTML, Markdown).
package render

// Kind identifies the role of a node in the rendered tree.
type Kind int

const (
	KindContainer Kind = iota
	KindPlaceholder
	KindSection
	KindHeading
	KindStatGrid
	KindStatBox
	KindStatLabel
	KindStatValue
	KindStatList
	KindListItem
	KindListKey
	KindListValue
	KindParagraph
	KindTableContainer
	KindDescription
	KindTable
	KindTableHead
	KindTableBody
	KindRow
	KindHeaderCell
	KindCell
)

var kindNames = [...]string{
	KindContainer:      "container",
	KindPlaceholder:    "placeholder",
	KindSection:        "section",
	KindHeading:        "heading",
	KindStatGrid:       "stat-grid",
	KindStatBox:        "stat-box",
	KindStatLabel:      "stat-label",
	KindStatValue:      "stat-value",
	KindStatList:       "stat-list",
	KindListItem:       "list-item",
	KindListKey:        "list-key",
	KindListValue:      "list-value",
	KindParagraph:      "paragraph",
	KindTableContainer: "table-container",
	KindDescription:    "description",
	KindTable:          "table",
	KindTableHead:      "thead",
	KindTableBody:      "tbody",
	KindRow:            "row",
	KindHeaderCell:     "th",
	KindCell:           "td",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Node is one element of the rendered tree. Nodes are values: once built they
// are never mutated, and accessors hand out copies.
type Node struct {
	kind     Kind
	text     string
	children []Node
}

func element(kind Kind, children ...Node) Node {
	return Node{kind: kind, children: children}
}

func leaf(kind Kind, text string) Node {
	return Node{kind: kind, text: text}
}

// Kind returns the node's role.
func (n Node) Kind() Kind { return n.kind }

// Text returns the literal text carried by a leaf node.
func (n Node) Text() string { return n.text }

// Children returns a copy of the node's children.
func (n Node) Children() []Node {
	if len(n.children) == 0 {
		return nil
	}
	out := make([]Node, len(n.children))
	copy(out, n.children)
	return out
}

// IsZero reports whether the node was never built.
func (n Node) IsZero() bool {
	return n.kind == KindContainer && n.text == "" && len(n.children) == 0
}

// Find returns every descendant (including n) of the given kind in document order.
func (n Node) Find(kind Kind) []Node {
	var out []Node
	n.walk(func(c Node) {
		if c.kind == kind {
			out = append(out, c)
		}
	})
	return out
}

// Equal reports whether two trees are structurally identical.
func (n Node) Equal(other Node) bool {
	if n.kind != other.kind || n.text != other.text || len(n.children) != len(other.children) {
		return false
	}
	for i := range n.children {
		if !n.children[i].Equal(other.children[i]) {
			return false
		}
	}
	return true
}

func (n Node) walk(fn func(Node)) {
	fn(n)
	for _, c := range n.children {
		c.walk(fn)
	}
}
