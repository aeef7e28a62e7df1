package render

import (
	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/analysis"
)

// NoResultText is shown when an attempt carries no sections.
const NoResultText = "No analysis result"

// Placeholder returns the fixed "no result" tree.
func Placeholder() Node {
	return leaf(KindPlaceholder, NoResultText)
}

// Result maps an analysis result onto a fresh tree. It never reuses nodes from
// a previous call, so rendering the same input twice yields equal trees.
func Result(result *analysis.Result) Node {
	if result == nil || len(result.Sections) == 0 {
		return Placeholder()
	}
	sections := make([]Node, 0, len(result.Sections))
	for _, s := range result.Sections {
		sections = append(sections, section(s))
	}
	return element(KindContainer, sections...)
}

func section(s analysis.Section) Node {
	children := []Node{leaf(KindHeading, s.Title.String())}
	if len(s.Data) > 0 {
		children = append(children, statGrid(s.Data))
	}
	b := &blockBuilder{}
	for _, block := range s.Content {
		block.Accept(b)
	}
	children = append(children, b.nodes...)
	return element(KindSection, children...)
}

func statGrid(stats analysis.Stats) Node {
	boxes := make([]Node, 0, len(stats))
	for _, stat := range stats {
		label := leaf(KindStatLabel, stat.Key)
		if !stat.Value.IsNested() {
			boxes = append(boxes, element(KindStatBox, label, leaf(KindStatValue, stat.Value.Scalar)))
			continue
		}
		items := make([]Node, 0, len(stat.Value.Fields))
		for _, f := range stat.Value.Fields {
			items = append(items, element(KindListItem, leaf(KindListKey, f.Key), leaf(KindListValue, f.Value)))
		}
		boxes = append(boxes, element(KindStatBox, label, element(KindStatList, items...)))
	}
	return element(KindStatGrid, boxes...)
}

// blockBuilder collects the nodes for a section's content blocks.
type blockBuilder struct {
	nodes []Node
}

func (b *blockBuilder) VisitText(t analysis.TextBlock) {
	b.nodes = append(b.nodes, leaf(KindParagraph, t.Text.String()))
}

func (b *blockBuilder) VisitTable(t analysis.TableBlock) {
	var children []Node
	if t.Description != "" {
		children = append(children, leaf(KindDescription, t.Description.String()))
	}
	var parts []Node
	if header := t.Header(); len(header) > 0 {
		headCells := make([]Node, len(header))
		for i, key := range header {
			headCells[i] = leaf(KindHeaderCell, key)
		}
		rows := make([]Node, 0, len(t.Data))
		for _, r := range t.Data {
			cells := make([]Node, len(header))
			for i, key := range header {
				v, _ := r.Lookup(key)
				cells[i] = leaf(KindCell, v)
			}
			rows = append(rows, element(KindRow, cells...))
		}
		parts = append(parts,
			element(KindTableHead, element(KindRow, headCells...)),
			element(KindTableBody, rows...),
		)
	}
	children = append(children, element(KindTable, parts...))
	b.nodes = append(b.nodes, element(KindTableContainer, children...))
}

// VisitUnknown renders nothing for block types this client does not know.
func (b *blockBuilder) VisitUnknown(analysis.UnknownBlock) {}
