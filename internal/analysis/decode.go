package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
)

// Text is a string that accepts any JSON value. Strings decode verbatim, null
// decodes to the empty string, and anything else keeps its compact JSON form.
type Text string

// String returns the text as a plain string.
func (t Text) String() string { return string(t) }

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	*t = Text(compact(data))
	return nil
}

// Field is a key/value pair inside a nested statistic.
type Field struct {
	Key   string
	Value string
}

// StatValue is either a scalar or a one-level mapping of fields.
type StatValue struct {
	Scalar string
	Fields []Field
	nested bool
}

// ScalarValue builds a scalar statistic value.
func ScalarValue(s string) StatValue { return StatValue{Scalar: s} }

// NestedValue builds a statistic value holding an ordered mapping.
func NestedValue(fields ...Field) StatValue {
	return StatValue{Fields: fields, nested: true}
}

// IsNested reports whether the value is a mapping rather than a scalar.
func (v StatValue) IsNested() bool { return v.nested }

// Stat is one entry of a section's data mapping.
type Stat struct {
	Key   string
	Value StatValue
}

// Stats is a section's data mapping in document order.
type Stats []Stat

// UnmarshalJSON decodes an object while keeping its key order.
func (s *Stats) UnmarshalJSON(data []byte) error {
	*s = nil
	if isNull(data) {
		return nil
	}
	var out Stats
	err := jsonparser.ObjectEach(data, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
		name, err := decodeKey(key)
		if err != nil {
			return err
		}
		if dataType != jsonparser.Object {
			out = append(out, Stat{Key: name, Value: ScalarValue(scalarText(value, dataType))})
			return nil
		}
		var fields []Field
		err = jsonparser.ObjectEach(value, func(k, v []byte, dt jsonparser.ValueType, _ int) error {
			fieldName, err := decodeKey(k)
			if err != nil {
				return err
			}
			fields = append(fields, Field{Key: fieldName, Value: scalarText(v, dt)})
			return nil
		})
		if err != nil {
			return fmt.Errorf("stat %q: %w", name, err)
		}
		out = append(out, Stat{Key: name, Value: NestedValue(fields...)})
		return nil
	})
	if err != nil {
		return fmt.Errorf("decode stats: %w", err)
	}
	*s = out
	return nil
}

// Cell is one key/value pair of a table row.
type Cell struct {
	Key   string
	Value string
}

// Row is a table row in document key order.
type Row []Cell

// Keys returns the row's keys in order.
func (r Row) Keys() []string {
	keys := make([]string, len(r))
	for i, c := range r {
		keys[i] = c.Key
	}
	return keys
}

// Lookup returns the value stored under key.
func (r Row) Lookup(key string) (string, bool) {
	for _, c := range r {
		if c.Key == key {
			return c.Value, true
		}
	}
	return "", false
}

// UnmarshalJSON decodes a row object while keeping its key order.
func (r *Row) UnmarshalJSON(data []byte) error {
	*r = nil
	if isNull(data) {
		return nil
	}
	var out Row
	err := jsonparser.ObjectEach(data, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
		name, err := decodeKey(key)
		if err != nil {
			return err
		}
		cell := Cell{Key: name}
		if dataType != jsonparser.Null {
			cell.Value = scalarText(value, dataType)
		}
		out = append(out, cell)
		return nil
	})
	if err != nil {
		return fmt.Errorf("decode row: %w", err)
	}
	*r = out
	return nil
}

func decodeKey(raw []byte) (string, error) {
	if bytes.IndexByte(raw, '\\') < 0 {
		return string(raw), nil
	}
	return jsonparser.ParseString(raw)
}

// scalarText renders a JSON value the way it is shown to the user.
func scalarText(value []byte, dataType jsonparser.ValueType) string {
	switch dataType {
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return string(value)
		}
		return s
	case jsonparser.Null:
		return "null"
	case jsonparser.Number:
		return numberText(value)
	case jsonparser.Array:
		return arrayText(value)
	case jsonparser.Object:
		return compact(value)
	default:
		return string(value)
	}
}

// numberText prints a JSON number in its shortest form, so 1.0 reads as 1.
// Very large and very small magnitudes use an exponent without padding.
func numberText(raw []byte) string {
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return string(raw)
	}
	if f == 0 {
		return "0"
	}
	if abs := math.Abs(f); abs >= 1e21 || abs < 1e-6 {
		mantissa, exp, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
		return mantissa + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// arrayText joins the elements with commas. Null elements print as empty
// and nested arrays are flattened the same way.
func arrayText(raw []byte) string {
	var parts []string
	_, err := jsonparser.ArrayEach(raw, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		if dataType == jsonparser.Null {
			parts = append(parts, "")
			return
		}
		parts = append(parts, scalarText(value, dataType))
	})
	if err != nil {
		return compact(raw)
	}
	return strings.Join(parts, ",")
}

func compact(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func isNull(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) == 0 || bytes.Equal(data, []byte("null"))
}
