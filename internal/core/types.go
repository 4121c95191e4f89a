package core

import "sort"

// Defaults applied by Normalize.
const (
	DefaultTagType          = "AtomicTag"
	ValueSourceOPC          = "opc"
	ValueSourceMemory       = "memory"
	HighPriority            = "High"
	PermissionRead          = "readPermissions"
	PermissionWrite         = "writePermissions"
	propName                = "name"
	propTagType             = "tagType"
	propValueSource         = "valueSource"
	propOPCItemPath         = "opcItemPath"
	propAlarms              = "alarms"
	alarmPropDisplayPath    = "displayPath"
	alarmPropPriority       = "priority"
	permissionPropType      = "type"
	legacyHighPriorityValue = 3
)

// TagRecord is one normalized tag. Properties holds every decoded field other
// than the name, type and value source; the serializer hoists them to
// top-level keys of the tag object.
type TagRecord struct {
	Name        string
	TagType     string
	ValueSource string
	Properties  map[string]Value
	Alarms      []AlarmRecord
	Permissions map[string]PermissionBlock
}

// Property returns the named property and whether it was set.
func (t TagRecord) Property(key string) (Value, bool) {
	v, ok := t.Properties[key]
	return v, ok
}

// AlarmRecord is one alarm attached to a tag.
type AlarmRecord struct {
	Properties map[string]Value
}

// Property returns the named alarm property and whether it was set.
func (a AlarmRecord) Property(key string) (Value, bool) {
	v, ok := a.Properties[key]
	return v, ok
}

// PermissionBlock is a read or write permission rule.
// SecurityLevels is always emitted, even when empty.
type PermissionBlock struct {
	SecurityLevels []Value
	Type           string
}

// TagBuilder accumulates the fields of one row or element before
// normalization. Both adapters fill a builder and hand it to Normalize;
// neither applies defaults on its own.
type TagBuilder struct {
	props       map[string]Value
	alarms      []map[string]Value
	permissions map[string]*PermissionBlock
}

// NewTagBuilder returns an empty builder.
func NewTagBuilder() *TagBuilder {
	return &TagBuilder{props: make(map[string]Value)}
}

// Set stores a tag-level field. Later writes to the same key win.
func (b *TagBuilder) Set(key string, v Value) {
	b.props[key] = v
}

// AddAlarm appends a new, empty alarm and returns its property map.
func (b *TagBuilder) AddAlarm() map[string]Value {
	alarm := make(map[string]Value)
	b.alarms = append(b.alarms, alarm)
	return alarm
}

// FirstAlarm returns the first alarm, creating it when none exists yet.
func (b *TagBuilder) FirstAlarm() map[string]Value {
	if len(b.alarms) == 0 {
		return b.AddAlarm()
	}
	return b.alarms[0]
}

// Permission returns the permission block for base, creating it on first use.
func (b *TagBuilder) Permission(base string) *PermissionBlock {
	if b.permissions == nil {
		b.permissions = make(map[string]*PermissionBlock)
	}
	p, ok := b.permissions[base]
	if !ok {
		p = &PermissionBlock{SecurityLevels: []Value{}}
		b.permissions[base] = p
	}
	return p
}

// sortedKeys returns the keys of m in lexical order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
