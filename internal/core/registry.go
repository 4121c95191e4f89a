package core

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Format names an input format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXML  Format = "xml"
	FormatJSON Format = "json"
)

// ConvertFunc turns a whole input document into the output document.
type ConvertFunc func(input []byte) ([]byte, error)

// FormatDefinition describes one input adapter.
type FormatDefinition struct {
	Format      Format   // Registry key: "csv"
	Label       string   // Display name: "CSV table"
	Extensions  []string // File extensions without the dot, lowercase
	ContentType string   // Preferred MIME type of the input
	Convert     ConvertFunc
}

var (
	registry   = make(map[Format]FormatDefinition)
	registryMu sync.RWMutex
)

// Register adds a format definition to the registry.
// Panics if the format is already registered.
func Register(def FormatDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Format]; exists {
		panic(fmt.Sprintf("format already registered: %s", def.Format))
	}

	// Default the extension list to the format name
	if len(def.Extensions) == 0 {
		def.Extensions = []string{string(def.Format)}
	}

	registry[def.Format] = def
}

// Lookup returns a format definition by name.
// The name is matched case-insensitively.
func Lookup(format Format) (FormatDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[NormalizeFormat(format)]
	return def, ok
}

// All returns all registered formats sorted by name.
func All() []FormatDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]FormatDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Format < result[j].Format
	})

	return result
}

// Extensions returns every registered file extension, sorted.
func Extensions() []string {
	var exts []string
	for _, def := range All() {
		exts = append(exts, def.Extensions...)
	}
	sort.Strings(exts)
	return exts
}

// FormatCount returns the number of registered formats.
func FormatCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// NormalizeFormat lowercases and trims a format name and drops a leading dot,
// so ".CSV", "csv " and "csv" are the same format.
func NormalizeFormat(format Format) Format {
	s := strings.ToLower(strings.TrimSpace(string(format)))
	return Format(strings.TrimPrefix(s, "."))
}

// FormatFromFilename picks the format from a file's extension.
func FormatFromFilename(name string) (Format, error) {
	ext := NormalizeFormat(Format(filepath.Ext(name)))
	if ext == "" {
		return "", unsupportedFormat(name)
	}

	for _, def := range All() {
		for _, e := range def.Extensions {
			if Format(e) == ext {
				return def.Format, nil
			}
		}
	}
	return "", unsupportedFormat(string(ext))
}

// OutputFilename returns the download name for a converted file: the input
// name with its extension replaced by .json, or "tags.json" without a name.
func OutputFilename(inputName string) string {
	base := filepath.Base(strings.ReplaceAll(inputName, `\`, "/"))
	if base == "." || base == "/" {
		base = ""
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" {
		base = "tags"
	}
	return base + ".json"
}
