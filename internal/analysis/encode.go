package analysis

import (
	"bytes"
	"encoding/json"
)

// MarshalJSON writes the stats as an object in their stored order.
func (s Stats) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, stat := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, stat.Key); err != nil {
			return nil, err
		}
		if !stat.Value.IsNested() {
			if err := writeValue(&buf, stat.Value.Scalar); err != nil {
				return nil, err
			}
			continue
		}
		buf.WriteByte('{')
		for j, f := range stat.Value.Fields {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeKey(&buf, f.Key); err != nil {
				return nil, err
			}
			if err := writeValue(&buf, f.Value); err != nil {
				return nil, err
			}
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON writes the row as an object in its stored order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, c.Key); err != nil {
			return nil, err
		}
		if err := writeValue(&buf, c.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeKey(buf *bytes.Buffer, key string) error {
	raw, err := json.Marshal(key)
	if err != nil {
		return err
	}
	buf.Write(raw)
	buf.WriteByte(':')
	return nil
}

// writeValue emits displayed text as a JSON string.
func writeValue(buf *bytes.Buffer, value string) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.Write(raw)
	return nil
}
