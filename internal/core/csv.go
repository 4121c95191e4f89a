package core

// csv.go decodes flat tag tables exported from spreadsheets.
//
// Header names are slash-delimited paths into the tag structure:
//
//	name,tagType,opcItemPath,alarms/0/priority,readPermissions/type
//
// An optional leading "tags/" segment is ignored. Only alarm index 0 is
// addressable, so a row carries at most one alarm.
//
// Rows are split on bare commas. Quoted fields are not recognised: a value
// containing a comma shifts every column after it.

import "strings"

const (
	headerTagsPrefix  = "tags/"
	headerAlarmPrefix = "alarms/0/"
)

// headerKind says where a column's value goes.
type headerKind int

const (
	headerProperty headerKind = iota
	headerAlarm
	headerPermission
	headerSkip
)

// headerPath is a decoded column header.
type headerPath struct {
	kind headerKind
	key  string // property or alarm property name, or permission base
	sub  string // nested permission field
}

// decodeHeader maps a trimmed header name to its destination.
func decodeHeader(header string) headerPath {
	clean := strings.TrimPrefix(header, headerTagsPrefix)

	if rest, ok := strings.CutPrefix(clean, headerAlarmPrefix); ok {
		if rest == "" {
			return headerPath{kind: headerSkip}
		}
		return headerPath{kind: headerAlarm, key: rest}
	}

	if strings.HasPrefix(clean, PermissionRead+"/") || strings.HasPrefix(clean, PermissionWrite+"/") {
		parts := strings.SplitN(clean, "/", 3)
		return headerPath{kind: headerPermission, key: parts[0], sub: parts[1]}
	}

	if clean == "" {
		return headerPath{kind: headerSkip}
	}
	return headerPath{kind: headerProperty, key: clean}
}

// ParseCSV converts a tag table into normalized tag records.
// Blank lines are ignored; the first remaining line is the header.
// Rows without a name are dropped.
func ParseCSV(text string) []TagRecord {
	lines := nonBlankLines(text)
	if len(lines) == 0 {
		return []TagRecord{}
	}

	headerCells := strings.Split(lines[0], ",")
	headers := make([]headerPath, len(headerCells))
	for i, h := range headerCells {
		headers[i] = decodeHeader(trimCell(h))
	}

	records := make([]TagRecord, 0, len(lines)-1)
	for _, line := range lines[1:] {
		b := buildCSVRow(headers, strings.Split(line, ","))
		if rec, ok := Normalize(b); ok {
			records = append(records, rec)
		}
	}
	return records
}

// buildCSVRow fills a builder from one data row. Cells beyond the header
// are ignored; missing cells count as empty.
func buildCSVRow(headers []headerPath, cells []string) *TagBuilder {
	b := NewTagBuilder()

	for i, h := range headers {
		if i >= len(cells) {
			break
		}
		value := trimCell(cells[i])
		if value == "" {
			continue
		}

		switch h.kind {
		case headerAlarm:
			b.FirstAlarm()[h.key] = Coerce(value)
		case headerPermission:
			p := b.Permission(h.key)
			if h.sub == permissionPropType {
				p.Type = value
			}
		case headerProperty:
			b.Set(h.key, Coerce(value))
		}
	}

	return b
}

// nonBlankLines splits text on newlines and drops lines that are empty
// after trimming.
func nonBlankLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := raw[:0]
	for _, line := range raw {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
