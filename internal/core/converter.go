package core

import (
	"bytes"
	"errors"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// jsonIndent matches the layout of Serialize output. Width 0 keeps every
// array element on its own line.
var jsonIndent = &pretty.Options{Width: 0, Prefix: "", Indent: "  ", SortKeys: false}

func init() {
	Register(FormatDefinition{
		Format:      FormatCSV,
		Label:       "CSV table",
		Extensions:  []string{"csv"},
		ContentType: "text/csv",
		Convert:     convertCSV,
	})
	Register(FormatDefinition{
		Format:      FormatXML,
		Label:       "XML tag export",
		Extensions:  []string{"xml"},
		ContentType: "application/xml",
		Convert:     convertXML,
	})
	Register(FormatDefinition{
		Format:      FormatJSON,
		Label:       "JSON tag document",
		Extensions:  []string{"json"},
		ContentType: "application/json",
		Convert:     passthroughJSON,
	})
}

// Convert runs input through the adapter registered for format and returns
// the JSON document. Errors are always *ConvertError.
func Convert(format Format, input []byte) ([]byte, error) {
	def, ok := Lookup(format)
	if !ok {
		return nil, unsupportedFormat(string(format))
	}

	out, err := def.Convert(input)
	if err != nil {
		var ce *ConvertError
		if errors.As(err, &ce) {
			return nil, ce
		}
		return nil, &ConvertError{Kind: ErrMalformedDocument, Message: "conversion failed", Cause: err}
	}
	return out, nil
}

func convertCSV(input []byte) ([]byte, error) {
	return Serialize(ParseCSV(string(input)))
}

func convertXML(input []byte) ([]byte, error) {
	records, err := ParseXML(bytes.NewReader(input))
	if err != nil {
		return nil, err
	}
	return Serialize(records)
}

// passthroughJSON checks that input is JSON and re-indents it. The document
// is not checked against the tag schema.
func passthroughJSON(input []byte) ([]byte, error) {
	if !gjson.ValidBytes(input) {
		return nil, malformed(FormatJSON, errors.New("input is not valid JSON"))
	}
	out := pretty.PrettyOptions(input, jsonIndent)
	return bytes.TrimRight(out, "\n"), nil
}

// CountTags returns the length of the "tags" array in a converted document,
// or 0 when the document has none.
func CountTags(doc []byte) int {
	return int(gjson.GetBytes(doc, "tags.#").Int())
}
