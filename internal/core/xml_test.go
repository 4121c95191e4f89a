package core

import (
	"errors"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<Tags>
  <Tag name="Tank1" type="AtomicTag">
    <Property name="opcItemPath">ns=1;s=Tank1</Property>
    <Property name="enabled">true</Property>
    <Property name="deadband">0.5</Property>
    <Property name="documentation">TRUE</Property>
    <CompoundProperty name="alarms">
      <PropertySet>
        <Property name="name">HighLevel</Property>
        <Property name="priority">3</Property>
      </PropertySet>
      <PropertySet>
        <Property name="name">LowLevel</Property>
        <Property name="priority">1</Property>
        <Property name="displayPath">Tanks/Tank1</Property>
      </PropertySet>
    </CompoundProperty>
  </Tag>
  <Tag name="Pump1">
    <Property name="value">{"speed": 10}</Property>
  </Tag>
</Tags>`

func TestParseXML(t *testing.T) {
	got, err := ParseXML(strings.NewReader(sampleXML))
	if err != nil {
		t.Fatalf("ParseXML() error = %v", err)
	}

	want := []TagRecord{
		{
			Name:        "Tank1",
			TagType:     "AtomicTag",
			ValueSource: ValueSourceOPC,
			Properties: map[string]Value{
				"opcItemPath": StringValue("ns=1;s=Tank1"),
				"enabled":     BoolValue(true),
				"deadband":    NumberValue("0.5"),
				// No TRUE/FALSE pass for element text.
				"documentation": StringValue("TRUE"),
			},
			Alarms: []AlarmRecord{
				{Properties: map[string]Value{
					"name":        StringValue("HighLevel"),
					"priority":    StringValue(HighPriority),
					"displayPath": StringValue(""),
				}},
				{Properties: map[string]Value{
					"name":        StringValue("LowLevel"),
					"priority":    NumberValue("1"),
					"displayPath": StringValue("Tanks/Tank1"),
				}},
			},
		},
		{
			Name:        "Pump1",
			TagType:     DefaultTagType,
			ValueSource: ValueSourceMemory,
			Properties: map[string]Value{
				"value": Coerce(`{"speed":10}`),
			},
		},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseXML() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseXML_TagsAtAnyDepth(t *testing.T) {
	doc := `<Project>
  <Folder name="Area1">
    <Tag name="A"/>
    <Folder name="Sub">
      <Tag name="B"/>
    </Folder>
  </Folder>
  <Tag name="C"/>
</Project>`

	got, err := ParseXML(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseXML() error = %v", err)
	}

	var names []string
	for _, rec := range got {
		names = append(names, rec.Name)
	}
	if diff := cmp.Diff([]string{"A", "B", "C"}, names); diff != "" {
		t.Errorf("document order mismatch (-want +got):\n%s", diff)
	}
}

func TestParseXML_OnlyDirectChildrenAreProperties(t *testing.T) {
	doc := `<Tags>
  <Tag name="Parent">
    <Property name="own">1</Property>
    <Tag name="Child">
      <Property name="nested">2</Property>
    </Tag>
  </Tag>
</Tags>`

	got, err := ParseXML(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseXML() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d tags, want 2", len(got))
	}

	if _, ok := got[0].Property("nested"); ok {
		t.Error("Parent picked up a property of its nested tag")
	}
	if v, ok := got[1].Property("nested"); !ok || !v.Equal(NumberValue("2")) {
		t.Errorf("Child nested = %v, %v; want 2", v.Text(), ok)
	}
}

func TestParseXML_SkipsUnnamed(t *testing.T) {
	doc := `<Tags>
  <Tag type="AtomicTag"><Property name="opcItemPath">x</Property></Tag>
  <Tag name=""/>
  <Tag name="Kept">
    <Property>no name attribute</Property>
    <CompoundProperty name="other"><PropertySet><Property name="x">1</Property></PropertySet></CompoundProperty>
  </Tag>
</Tags>`

	got, err := ParseXML(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseXML() error = %v", err)
	}

	want := []TagRecord{{
		Name:        "Kept",
		TagType:     DefaultTagType,
		ValueSource: ValueSourceMemory,
		Properties:  map[string]Value{},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseXML() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseXML_NoTags(t *testing.T) {
	got, err := ParseXML(strings.NewReader(`<Tags></Tags>`))
	if err != nil {
		t.Fatalf("ParseXML() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("ParseXML() = %v, want empty non-nil slice", got)
	}
}

func TestParseXML_Malformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unterminated element", `<Tags><Tag name="a">`},
		{"mismatched end tag", `<Tags><Tag name="a"></Tags>`},
		{"junk after root", `<Tags/><Tags/>`},
		{"plain text", `not xml at all`},
		{"empty", ``},
		{"bad attribute", `<Tags><Tag name=a/></Tags>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseXML(strings.NewReader(tt.doc))
			if err == nil {
				t.Fatalf("ParseXML() = %v, want error", got)
			}
			if !errors.Is(err, ErrMalformedDocument) {
				t.Errorf("error = %v, want ErrMalformedDocument", err)
			}

			var ce *ConvertError
			if !errors.As(err, &ce) || ce.Cause == nil {
				t.Errorf("error %v should carry the parser cause", err)
			}
		})
	}
}

func TestParseXML_CharsetDeclaration(t *testing.T) {
	doc := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n" +
		"<Tags><Tag name=\"Caf\xe9\"><Property name=\"documentation\">Temp \xb0C</Property></Tag></Tags>"

	got, err := ParseXML(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseXML() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d tags, want 1", len(got))
	}
	if got[0].Name != "Café" {
		t.Errorf("Name = %q, want Café", got[0].Name)
	}
	if v, _ := got[0].Property("documentation"); !v.Equal(StringValue("Temp °C")) {
		t.Errorf("documentation = %q, want %q", v.Text(), "Temp °C")
	}
}

func TestParseXML_PropertyTextIncludesDescendants(t *testing.T) {
	doc := `<Tags>
  <Tag name="T">
    <Property name="note">Level <b>high</b> at <i>90</i>%</Property>
    <Property name="outer">[1, <Property name="inner">2</Property>]</Property>
  </Tag>
</Tags>`

	got, err := ParseXML(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseXML() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d tags, want 1", len(got))
	}

	if v, _ := got[0].Property("note"); !v.Equal(StringValue("Level high at 90%")) {
		t.Errorf("note = %q, want %q", v.Text(), "Level high at 90%")
	}
	if v, _ := got[0].Property("outer"); v.Text() != "[1,2]" {
		t.Errorf("outer = %q, want the array [1,2]", v.Text())
	}
	if _, ok := got[0].Property("inner"); ok {
		t.Error("a Property nested in a Property is not a tag property")
	}
}

func TestParseXML_DeepNestingStaysLinear(t *testing.T) {
	const depth = 2000

	var sb strings.Builder
	sb.WriteString("<Tags>")
	sb.WriteString(strings.Repeat("<a>", depth))
	sb.WriteString(strings.Repeat("x", 64<<10))
	sb.WriteString(strings.Repeat("</a>", depth))
	sb.WriteString(`<Tag name="T"><Property name="note">ok</Property></Tag>`)
	sb.WriteString("</Tags>")
	input := sb.String()

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)

	got, err := ParseXML(strings.NewReader(input))

	runtime.ReadMemStats(&after)
	if err != nil {
		t.Fatalf("ParseXML() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d tags, want 1", len(got))
	}

	allocated := after.TotalAlloc - before.TotalAlloc
	if limit := uint64(64 * len(input)); allocated > limit {
		t.Errorf("allocated %d bytes for %d bytes of input, want at most %d", allocated, len(input), limit)
	}
}
