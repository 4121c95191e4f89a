package core

// normalize.go holds the only copy of the tag default rules. The CSV and XML
// adapters both end in Normalize, so the two paths cannot drift apart.

// Normalize turns an accumulated builder into a TagRecord.
//
// It returns false when the tag has no usable name; such rows are dropped
// silently. A name that coerced to false, 0, null or "" counts as missing.
// Otherwise it applies, in order:
//   - tagType defaults to "AtomicTag"
//   - valueSource defaults to "opc" when opcItemPath is set, else "memory"
//   - every alarm gets displayPath "" when unset
//   - an alarm priority of 3 or "3" becomes "High"
func Normalize(b *TagBuilder) (TagRecord, bool) {
	props := make(map[string]Value, len(b.props))
	for k, v := range b.props {
		props[k] = v
	}

	nameVal, ok := props[propName]
	delete(props, propName)
	if !ok || isFalsy(nameVal) {
		return TagRecord{}, false
	}

	rec := TagRecord{
		Name:        nameVal.Text(),
		TagType:     takeText(props, propTagType),
		ValueSource: takeText(props, propValueSource),
		Properties:  props,
	}

	if rec.TagType == "" {
		rec.TagType = DefaultTagType
	}
	if rec.ValueSource == "" {
		rec.ValueSource = ValueSourceMemory
		if opc, ok := props[propOPCItemPath]; ok && !opc.IsEmpty() {
			rec.ValueSource = ValueSourceOPC
		}
	}

	if len(b.alarms) > 0 {
		rec.Alarms = make([]AlarmRecord, 0, len(b.alarms))
		for _, alarm := range b.alarms {
			rec.Alarms = append(rec.Alarms, normalizeAlarm(alarm))
		}
	}

	if len(b.permissions) > 0 {
		rec.Permissions = make(map[string]PermissionBlock, len(b.permissions))
		for base, p := range b.permissions {
			levels := make([]Value, len(p.SecurityLevels))
			copy(levels, p.SecurityLevels)
			rec.Permissions[base] = PermissionBlock{SecurityLevels: levels, Type: p.Type}
		}
	}

	return rec, true
}

// normalizeAlarm copies an alarm's properties and applies the alarm defaults.
func normalizeAlarm(src map[string]Value) AlarmRecord {
	props := make(map[string]Value, len(src)+1)
	for k, v := range src {
		props[k] = v
	}

	if dp, ok := props[alarmPropDisplayPath]; !ok || dp.IsEmpty() {
		props[alarmPropDisplayPath] = StringValue("")
	}
	if p, ok := props[alarmPropPriority]; ok && isLegacyHighPriority(p) {
		props[alarmPropPriority] = StringValue(HighPriority)
	}

	return AlarmRecord{Properties: props}
}

// isLegacyHighPriority reports whether p is the numeric priority 3, either as
// a number or as the string "3".
func isLegacyHighPriority(p Value) bool {
	if s, ok := p.Str(); ok {
		return s == "3"
	}
	return p.equalsNumber(legacyHighPriorityValue)
}

// isFalsy reports whether v is false, zero, null or an empty string.
func isFalsy(v Value) bool {
	if v.IsEmpty() || v.equalsNumber(0) {
		return true
	}
	if b, ok := v.Bool(); ok {
		return !b
	}
	return false
}

// takeText removes key from props and returns its text form.
func takeText(props map[string]Value, key string) string {
	v, ok := props[key]
	if !ok {
		return ""
	}
	delete(props, key)
	return v.Text()
}
