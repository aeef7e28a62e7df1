package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiomehsh/datasheet-ai-analyzer/internal/analysis"
)

func decodeResult(t *testing.T, raw string) *analysis.Result {
	t.Helper()
	var r analysis.Result
	require.NoError(t, json.Unmarshal([]byte(raw), &r))
	return &r
}

func TestResultPlaceholder(t *testing.T) {
	for name, r := range map[string]*analysis.Result{
		"nil":   nil,
		"empty": {},
		"zero":  decodeResult(t, `{"sections": []}`),
	} {
		t.Run(name, func(t *testing.T) {
			tree := Result(r)
			assert.Equal(t, KindPlaceholder, tree.Kind())
			assert.Equal(t, NoResultText, tree.Text())
			assert.Empty(t, tree.Find(KindStatGrid))
			assert.Empty(t, tree.Find(KindParagraph))
			assert.Empty(t, tree.Find(KindTable))
		})
	}
}

func TestResultStatGrid(t *testing.T) {
	r := decodeResult(t, `{"sections": [{"title": "Model", "data": {"accuracy": 0.9, "breakdown": {"a": 1, "b": 2}}, "content": []}]}`)
	tree := Result(r)

	sections := tree.Find(KindSection)
	require.Len(t, sections, 1)
	children := sections[0].Children()
	require.Len(t, children, 2)
	assert.Equal(t, KindHeading, children[0].Kind())
	assert.Equal(t, "Model", children[0].Text())

	boxes := tree.Find(KindStatBox)
	require.Len(t, boxes, 2)

	first := boxes[0].Children()
	require.Len(t, first, 2)
	assert.Equal(t, "accuracy", first[0].Text())
	assert.Equal(t, KindStatValue, first[1].Kind())
	assert.Equal(t, "0.9", first[1].Text())

	second := boxes[1].Children()
	require.Len(t, second, 2)
	assert.Equal(t, "breakdown", second[0].Text())
	assert.Equal(t, KindStatList, second[1].Kind())
	items := second[1].Find(KindListItem)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].Children()[0].Text())
	assert.Equal(t, "1", items[0].Children()[1].Text())
	assert.Equal(t, "b", items[1].Children()[0].Text())
}

func TestResultSkipsEmptyStatGrid(t *testing.T) {
	r := decodeResult(t, `{"sections": [{"title": "Notes", "data": {}, "content": [{"type": "text", "text": "hello"}]}]}`)
	tree := Result(r)
	assert.Empty(t, tree.Find(KindStatGrid))
	paragraphs := tree.Find(KindParagraph)
	require.Len(t, paragraphs, 1)
	assert.Equal(t, "hello", paragraphs[0].Text())
}

func TestResultTableHeaderOrder(t *testing.T) {
	r := decodeResult(t, `{"sections": [{"title": "T", "data": {}, "content": [
		{"type": "table", "description": "points", "data": [{"x": 1, "y": 2}, {"x": 3, "y": 4}, {"x": 5, "y": 6}]}
	]}]}`)
	tree := Result(r)

	descriptions := tree.Find(KindDescription)
	require.Len(t, descriptions, 1)
	assert.Equal(t, "points", descriptions[0].Text())

	headers := tree.Find(KindHeaderCell)
	require.Len(t, headers, 2)
	assert.Equal(t, "x", headers[0].Text())
	assert.Equal(t, "y", headers[1].Text())

	body := tree.Find(KindTableBody)
	require.Len(t, body, 1)
	rows := body[0].Children()
	require.Len(t, rows, 3)
	for i, row := range rows {
		cells := row.Children()
		require.Len(t, cells, 2, "row %d", i)
	}
	assert.Equal(t, "5", rows[2].Children()[0].Text())
	assert.Equal(t, "6", rows[2].Children()[1].Text())
}

func TestResultTableWithoutRows(t *testing.T) {
	r := decodeResult(t, `{"sections": [{"title": "T", "data": {}, "content": [{"type": "table", "data": []}]}]}`)
	tree := Result(r)
	tables := tree.Find(KindTable)
	require.Len(t, tables, 1)
	assert.Empty(t, tables[0].Children())
	assert.Empty(t, tree.Find(KindDescription))
}

func TestResultIgnoresUnknownBlocks(t *testing.T) {
	r := decodeResult(t, `{"sections": [{"title": "T", "data": {}, "content": [{"type": "chart"}, {"type": "text", "text": "after"}]}]}`)
	tree := Result(r)
	section := tree.Find(KindSection)[0]
	require.Len(t, section.Children(), 2)
	assert.Equal(t, "after", section.Children()[1].Text())
}

func TestResultIsIdempotent(t *testing.T) {
	r := decodeResult(t, `{"sections": [{"title": "A", "data": {"n": 3}, "content": [{"type": "text", "text": "x"}]}]}`)
	first := Result(r)
	second := Result(r)
	assert.True(t, first.Equal(second))
	assert.Equal(t, Terminal(first, 80), Terminal(second, 80))

	htmlFirst, err := HTML(first)
	require.NoError(t, err)
	htmlSecond, err := HTML(second)
	require.NoError(t, err)
	assert.Equal(t, htmlFirst, htmlSecond)
}

func TestChildrenAreCopies(t *testing.T) {
	tree := Result(decodeResult(t, `{"sections": [{"title": "A", "data": {}, "content": []}]}`))
	children := tree.Children()
	children[0] = Placeholder()
	assert.Equal(t, KindSection, tree.Children()[0].Kind())
}

func TestHTMLEscapesText(t *testing.T) {
	r := decodeResult(t, `{"sections": [{"title": "<script>alert(1)</script>", "data": {"<k>": "<v>"}, "content": [
		{"type": "text", "text": "<img src=x onerror=alert(1)>"},
		{"type": "table", "data": [{"<h>": "<td>"}]}
	]}]}`)
	out, err := HTML(Result(r))
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "<img")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "&lt;img src=x onerror=alert(1)&gt;")
	assert.Contains(t, out, `class="stat-box"`)
}

func TestTerminalAndMarkdownMounts(t *testing.T) {
	r := decodeResult(t, `{"sections": [{"title": "Summary", "data": {"rows": 10, "types": {"int": 2}}, "content": [
		{"type": "text", "text": "All good"},
		{"type": "table", "data": [{"x": "a|b", "y": 2}]}
	]}]}`)
	tree := Result(r)

	term := Terminal(tree, 60)
	for _, want := range []string{"Summary", "rows", "10", "int", "All good", "x", "y"} {
		assert.Contains(t, term, want)
	}

	md := Markdown(tree)
	assert.True(t, strings.HasPrefix(md, "## Summary"))
	assert.Contains(t, md, "- **rows**: 10")
	assert.Contains(t, md, "  - **int**: 2")
	assert.Contains(t, md, "| x | y |\n| --- | --- |\n| a\\|b | 2 |\n")

	assert.Equal(t, "_No analysis result_\n", Markdown(Placeholder()))
}
