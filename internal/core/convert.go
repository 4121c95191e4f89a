package core

// convert.go provides value coercion for raw cell and element text.
//
// Tag exports carry every value as text. Coercion turns that text into the
// most specific Value it can represent:
//   - "TRUE" / "FALSE" literals exported by spreadsheet tools
//   - anything that parses as JSON (numbers, objects, arrays, null, quoted strings)
//   - the original text when nothing else fits
//
// Coercion is total. A value that cannot be interpreted is kept as a string;
// there is no error path.

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// ValueKind identifies which variant a Value holds.
type ValueKind int

const (
	KindString ValueKind = iota
	KindBool
	KindNumber
	KindStructured
)

// String returns the variant name, used in test failures and logs.
func (k ValueKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindStructured:
		return "structured"
	default:
		return "string"
	}
}

// Value is a decoded property value: a boolean, a JSON number, a structured
// JSON value (object, array or null) or a plain string.
// The zero Value is the empty string.
type Value struct {
	kind       ValueKind
	text       string // KindString text or KindNumber literal
	boolean    bool
	structured any // decoded with json.Number for numbers
}

// StringValue returns a string Value.
func StringValue(s string) Value {
	return Value{kind: KindString, text: s}
}

// BoolValue returns a boolean Value.
func BoolValue(b bool) Value {
	return Value{kind: KindBool, boolean: b}
}

// NumberValue returns a numeric Value holding the JSON number literal n.
func NumberValue(n json.Number) Value {
	return Value{kind: KindNumber, text: n.String()}
}

// StructuredValue returns a Value holding an already decoded JSON object,
// array or null. Booleans, numbers and strings are routed to their own variants.
func StructuredValue(v any) Value {
	switch x := v.(type) {
	case bool:
		return BoolValue(x)
	case json.Number:
		return NumberValue(x)
	case string:
		return StringValue(x)
	case float64:
		return NumberValue(json.Number(strconv.FormatFloat(x, 'f', -1, 64)))
	case int:
		return NumberValue(json.Number(strconv.Itoa(x)))
	}
	return Value{kind: KindStructured, structured: v}
}

// Kind reports the variant held by v.
func (v Value) Kind() ValueKind {
	return v.kind
}

// Str returns the text of a string Value.
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.text, true
}

// Bool returns the payload of a boolean Value.
func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.boolean, true
}

// Number returns the literal of a numeric Value.
func (v Value) Number() (json.Number, bool) {
	if v.kind != KindNumber {
		return "", false
	}
	return json.Number(v.text), true
}

// Structured returns the decoded payload of a structured Value.
func (v Value) Structured() (any, bool) {
	if v.kind != KindStructured {
		return nil, false
	}
	return v.structured, true
}

// IsEmpty reports whether v is the empty string or JSON null.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindString:
		return v.text == ""
	case KindStructured:
		return v.structured == nil
	}
	return false
}

// Text renders v as plain text: strings unquoted, numbers as their literal,
// booleans as true/false, structured values as compact JSON and null as "".
func (v Value) Text() string {
	switch v.kind {
	case KindString, KindNumber:
		return v.text
	case KindBool:
		return strconv.FormatBool(v.boolean)
	}
	if v.structured == nil {
		return ""
	}
	b, err := marshalNoEscape(v.structured)
	if err != nil {
		return ""
	}
	return string(b)
}

// Equal reports structural equality. Numbers compare by numeric value so
// 3 and 3.0 are equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.text == o.text
	case KindBool:
		return v.boolean == o.boolean
	case KindNumber:
		if v.text == o.text {
			return true
		}
		a, errA := strconv.ParseFloat(v.text, 64)
		b, errB := strconv.ParseFloat(o.text, 64)
		return errA == nil && errB == nil && a == b
	}
	return reflect.DeepEqual(v.structured, o.structured)
}

// equalsNumber reports whether v is a number equal to n.
func (v Value) equalsNumber(n float64) bool {
	if v.kind != KindNumber {
		return false
	}
	f, err := strconv.ParseFloat(v.text, 64)
	return err == nil && !math.IsNaN(f) && f == n
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return []byte(strconv.FormatBool(v.boolean)), nil
	case KindNumber:
		return []byte(v.text), nil
	case KindStructured:
		return marshalNoEscape(v.structured)
	}
	return marshalNoEscape(v.text)
}

// UnmarshalJSON implements json.Unmarshaler so documents can be read back.
func (v *Value) UnmarshalJSON(data []byte) error {
	decoded, err := decodeJSON(data)
	if err != nil {
		return err
	}
	*v = StructuredValue(decoded)
	return nil
}

// Coerce converts a raw CSV cell into a Value. Precedence, first match wins:
//  1. "TRUE"  -> true
//  2. "FALSE" -> false
//  3. valid JSON -> the decoded value
//  4. anything else -> the string unchanged
func Coerce(raw string) Value {
	switch raw {
	case "TRUE":
		return BoolValue(true)
	case "FALSE":
		return BoolValue(false)
	}
	return CoerceJSON(raw)
}

// CoerceJSON converts raw element text into a Value: the decoded JSON value
// when raw is valid JSON, otherwise the text unchanged. This is the policy
// used for XML property content, which has no TRUE/FALSE pass.
func CoerceJSON(raw string) Value {
	if !json.Valid([]byte(raw)) {
		return StringValue(raw)
	}
	decoded, err := decodeJSON([]byte(raw))
	if err != nil {
		return StringValue(raw)
	}
	return StructuredValue(decoded)
}

// decodeJSON decodes data keeping numbers as json.Number literals.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// marshalNoEscape encodes v without HTML escaping, matching what a browser's
// JSON.stringify produces for the same value.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// trimCell trims surrounding whitespace, including the \r left behind by
// CRLF line endings.
func trimCell(s string) string {
	return strings.TrimSpace(s)
}
