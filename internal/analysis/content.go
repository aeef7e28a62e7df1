package analysis

import (
	"encoding/json"
	"fmt"

	"github.com/buger/jsonparser"
)

// BlockVisitor handles every kind of content block. Adding a block kind adds
// a method here, so every visitor has to be updated before the tree compiles.
type BlockVisitor interface {
	VisitText(TextBlock)
	VisitTable(TableBlock)
	VisitUnknown(UnknownBlock)
}

// ContentBlock is a typed piece of section content.
type ContentBlock interface {
	Accept(BlockVisitor)
	Kind() string
}

// TextBlock is a literal paragraph.
type TextBlock struct {
	Text Text `json:"text"`
}

// Accept implements ContentBlock.
func (b TextBlock) Accept(v BlockVisitor) { v.VisitText(b) }

// Kind implements ContentBlock.
func (TextBlock) Kind() string { return "text" }

// TableBlock is a table with an optional description. Its header comes from
// the keys of the first row.
type TableBlock struct {
	Description Text  `json:"description,omitempty"`
	Data        []Row `json:"data"`
}

// Accept implements ContentBlock.
func (b TableBlock) Accept(v BlockVisitor) { v.VisitTable(b) }

// Kind implements ContentBlock.
func (TableBlock) Kind() string { return "table" }

// Header returns the column keys taken from the first row.
func (b TableBlock) Header() []string {
	if len(b.Data) == 0 {
		return nil
	}
	return b.Data[0].Keys()
}

// UnknownBlock keeps a block whose type tag is not recognized.
type UnknownBlock struct {
	Type string
	Raw  json.RawMessage
}

// Accept implements ContentBlock.
func (b UnknownBlock) Accept(v BlockVisitor) { v.VisitUnknown(b) }

// Kind implements ContentBlock.
func (b UnknownBlock) Kind() string { return b.Type }

// Content is a section's ordered list of blocks.
type Content []ContentBlock

// UnmarshalJSON dispatches each element on its "type" tag.
func (c *Content) UnmarshalJSON(data []byte) error {
	*c = nil
	if isNull(data) {
		return nil
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return fmt.Errorf("decode content: %w", err)
	}
	out := make(Content, 0, len(raws))
	for i, raw := range raws {
		block, err := decodeBlock(raw)
		if err != nil {
			return fmt.Errorf("content[%d]: %w", i, err)
		}
		out = append(out, block)
	}
	*c = out
	return nil
}

// MarshalJSON writes blocks back with their type tags.
func (c Content) MarshalJSON() ([]byte, error) {
	out := make([]any, 0, len(c))
	for _, block := range c {
		switch b := block.(type) {
		case TextBlock:
			out = append(out, map[string]any{"type": "text", "text": b.Text})
		case TableBlock:
			rows := make([]json.RawMessage, 0, len(b.Data))
			for _, r := range b.Data {
				raw, err := r.MarshalJSON()
				if err != nil {
					return nil, err
				}
				rows = append(rows, raw)
			}
			entry := map[string]any{"type": "table", "data": rows}
			if b.Description != "" {
				entry["description"] = b.Description
			}
			out = append(out, entry)
		case UnknownBlock:
			out = append(out, b.Raw)
		}
	}
	return json.Marshal(out)
}

func decodeBlock(raw json.RawMessage) (ContentBlock, error) {
	kind, err := jsonparser.GetString(raw, "type")
	if err != nil {
		kind = ""
	}
	switch kind {
	case "text":
		var b TextBlock
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		return b, nil
	case "table":
		var b TableBlock
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		return b, nil
	default:
		return UnknownBlock{Type: kind, Raw: append(json.RawMessage(nil), raw...)}, nil
	}
}
