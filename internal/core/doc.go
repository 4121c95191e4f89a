// Package core provides the tag conversion engine.
//
// It turns tag exports from an industrial automation gateway into one JSON
// import document of the form {"tags": [...]}. The package has no knowledge
// of HTTP or the command line; the web server and the tagconv CLI both go
// through [Service].
//
// # Formats
//
// Each input format registers a [FormatDefinition] at init time:
//
//   - csv: one tag per row. Header cells name properties; "tags/" is
//     stripped, "alarms/0/<prop>" fills the tag's single alarm and
//     "readPermissions/..." or "writePermissions/..." fill permission blocks.
//   - xml: every <Tag name=".." type=".."> element with <Property> children
//     and an optional <CompoundProperty name="alarms"> of <PropertySet>s.
//   - json: validated and re-indented, not checked against the tag schema.
//
// # Pipeline
//
// Both tabular adapters fill a [TagBuilder] and hand it to [Normalize], which
// applies the shared defaults:
//
//  1. rows without a name are dropped
//  2. tagType defaults to AtomicTag
//  3. valueSource is opc when opcItemPath is set, otherwise memory
//  4. every alarm gets a displayPath, and priority 3 becomes "High"
//
// [Serialize] then writes the records with a fixed key order so that the
// same input always produces the same bytes.
//
// # Coercion
//
// Cell text is coerced with [Coerce]: TRUE and FALSE become booleans, valid
// JSON becomes the decoded value, and anything else stays a string. XML
// property text skips the TRUE/FALSE rule ([CoerceJSON]).
//
// # Service
//
// [Service.Convert] wraps the engine with an input size ceiling, a
// [ConvertLimiter], an LRU [ResultCache] and optional PostgreSQL history
// through [HistoryStore]. Errors map to user messages with [MapError].
package core
