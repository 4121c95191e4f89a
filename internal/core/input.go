package core

// input.go prepares uploaded bytes for the adapters.
//
// Spreadsheet exports on Windows start with a UTF-8 byte order mark and now
// and then carry stray Latin-1 bytes. The adapters expect clean UTF-8, so:
//   - the BOM is removed from every format
//   - CSV and JSON input has invalid UTF-8 replaced with U+FFFD
//   - XML is left to its own charset declaration

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadInput reads a whole document, refusing anything larger than maxSize
// bytes. A maxSize of zero or less means no ceiling.
func ReadInput(r io.Reader, maxSize int64) ([]byte, error) {
	if maxSize > 0 {
		r = io.LimitReader(r, maxSize+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, &ConvertError{
			Kind:    ErrInputTooLarge,
			Message: fmt.Sprintf("input too large: exceeds %d bytes", maxSize),
		}
	}
	return data, nil
}

// PrepareInput strips the BOM and, for text formats, sanitizes UTF-8.
func PrepareInput(format Format, data []byte) ([]byte, error) {
	if NormalizeFormat(format) == FormatXML {
		return bytes.TrimPrefix(data, utf8BOM), nil
	}

	out, _, err := transform.Bytes(unicode.UTF8BOM.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("encoding error: %w", err)
	}
	return out, nil
}

// IsBlank reports whether data holds nothing but whitespace and a BOM.
func IsBlank(data []byte) bool {
	return len(bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))) == 0
}
