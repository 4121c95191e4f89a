package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// document is the top-level output shape.
type document struct {
	Tags []TagRecord `json:"tags"`
}

// Serialize renders records as {"tags": [...]} with two-space indentation.
// Key order inside each tag is fixed (name, tagType, valueSource, then
// properties and alarms sorted by key, then permissions), so serializing the
// same records twice yields identical bytes.
func Serialize(records []TagRecord) ([]byte, error) {
	if records == nil {
		records = []TagRecord{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(document{Tags: records}); err != nil {
		return nil, fmt.Errorf("serialize tags: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalJSON writes the tag as a flat object with its properties hoisted
// next to name, tagType and valueSource.
func (t TagRecord) MarshalJSON() ([]byte, error) {
	var obj objectWriter
	obj.field(propName, t.Name)
	obj.field(propTagType, t.TagType)
	obj.field(propValueSource, t.ValueSource)

	for _, key := range sortedKeys(t.Properties) {
		if key == propAlarms && len(t.Alarms) > 0 {
			continue
		}
		if _, shadowed := t.Permissions[key]; shadowed {
			continue
		}
		obj.field(key, t.Properties[key])
	}

	if len(t.Alarms) > 0 {
		obj.field(propAlarms, t.Alarms)
	}
	for _, base := range sortedKeys(t.Permissions) {
		obj.field(base, t.Permissions[base])
	}

	return obj.bytes()
}

// MarshalJSON writes the alarm's properties as an object.
func (a AlarmRecord) MarshalJSON() ([]byte, error) {
	var obj objectWriter
	for _, key := range sortedKeys(a.Properties) {
		obj.field(key, a.Properties[key])
	}
	return obj.bytes()
}

// MarshalJSON writes {"securityLevels": [...], "type": "..."}; type is
// omitted until set.
func (p PermissionBlock) MarshalJSON() ([]byte, error) {
	levels := p.SecurityLevels
	if levels == nil {
		levels = []Value{}
	}

	var obj objectWriter
	obj.field("securityLevels", levels)
	if p.Type != "" {
		obj.field(permissionPropType, p.Type)
	}
	return obj.bytes()
}

// objectWriter builds a JSON object with keys in insertion order.
// The first encoding error is kept and reported by bytes.
type objectWriter struct {
	buf bytes.Buffer
	n   int
	err error
}

func (w *objectWriter) field(key string, v any) {
	if w.err != nil {
		return
	}
	k, err := marshalNoEscape(key)
	if err != nil {
		w.err = err
		return
	}
	val, err := marshalNoEscape(v)
	if err != nil {
		w.err = fmt.Errorf("field %s: %w", key, err)
		return
	}

	if w.n == 0 {
		w.buf.WriteByte('{')
	} else {
		w.buf.WriteByte(',')
	}
	w.buf.Write(k)
	w.buf.WriteByte(':')
	w.buf.Write(val)
	w.n++
}

func (w *objectWriter) bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	if w.n == 0 {
		return []byte("{}"), nil
	}
	w.buf.WriteByte('}')
	return w.buf.Bytes(), nil
}
