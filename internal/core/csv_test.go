package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeHeader(t *testing.T) {
	tests := []struct {
		header string
		want   headerPath
	}{
		{"name", headerPath{kind: headerProperty, key: "name"}},
		{"tags/opcItemPath", headerPath{kind: headerProperty, key: "opcItemPath"}},
		{"alarms/0/priority", headerPath{kind: headerAlarm, key: "priority"}},
		{"tags/alarms/0/displayPath", headerPath{kind: headerAlarm, key: "displayPath"}},
		{"alarms/0/", headerPath{kind: headerSkip}},
		{"alarms/1/priority", headerPath{kind: headerProperty, key: "alarms/1/priority"}},
		{"readPermissions/type", headerPath{kind: headerPermission, key: "readPermissions", sub: "type"}},
		{"writePermissions/securityLevels/0", headerPath{kind: headerPermission, key: "writePermissions", sub: "securityLevels"}},
		{"readPermissions", headerPath{kind: headerProperty, key: "readPermissions"}},
		{"", headerPath{kind: headerSkip}},
		{"tags/", headerPath{kind: headerSkip}},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got := decodeHeader(tt.header)
			if got != tt.want {
				t.Errorf("decodeHeader(%q) = %+v, want %+v", tt.header, got, tt.want)
			}
		})
	}
}

func TestParseCSV_PropertiesAndDefaults(t *testing.T) {
	text := "name,tagType,opcItemPath,enabled,deadband,documentation\n" +
		"Tank1,UdtInstance,ns=1;s=Tank1,TRUE,0.5,Level sensor\n" +
		"Pump1,,,FALSE,,\n"

	got := ParseCSV(text)

	want := []TagRecord{
		{
			Name:        "Tank1",
			TagType:     "UdtInstance",
			ValueSource: ValueSourceOPC,
			Properties: map[string]Value{
				"opcItemPath":   StringValue("ns=1;s=Tank1"),
				"enabled":       BoolValue(true),
				"deadband":      NumberValue("0.5"),
				"documentation": StringValue("Level sensor"),
			},
		},
		{
			Name:        "Pump1",
			TagType:     DefaultTagType,
			ValueSource: ValueSourceMemory,
			Properties: map[string]Value{
				"enabled": BoolValue(false),
			},
		},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseCSV() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCSV_AlarmPriorityRewrite(t *testing.T) {
	tests := []struct {
		name         string
		priority     string
		wantPriority Value
	}{
		{"numeric 3", "3", StringValue(HighPriority)},
		{"decimal 3.0", "3.0", StringValue(HighPriority)},
		{"quoted 3", `"3"`, StringValue(HighPriority)},
		{"other number kept", "2", NumberValue("2")},
		{"named priority kept", "Critical", StringValue("Critical")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := ParseCSV("name,alarms/0/priority\nTank1," + tt.priority + "\n")
			if len(records) != 1 || len(records[0].Alarms) != 1 {
				t.Fatalf("want one tag with one alarm, got %+v", records)
			}

			got, _ := records[0].Alarms[0].Property("priority")
			if diff := cmp.Diff(tt.wantPriority, got); diff != "" {
				t.Errorf("priority mismatch (-want +got):\n%s", diff)
			}
			if dp, ok := records[0].Alarms[0].Property("displayPath"); !ok || !dp.Equal(StringValue("")) {
				t.Errorf("displayPath = %v, %v; want empty string default", dp.Text(), ok)
			}
		})
	}
}

func TestParseCSV_SingleAlarmPerRow(t *testing.T) {
	text := "name,alarms/0/name,alarms/0/setpointA,tags/alarms/0/displayPath\n" +
		"Tank1,HighLevel,90,Tanks/Tank1\n" +
		"Tank2,,,\n"

	got := ParseCSV(text)
	if len(got) != 2 {
		t.Fatalf("got %d tags, want 2", len(got))
	}

	want := []AlarmRecord{{Properties: map[string]Value{
		"name":        StringValue("HighLevel"),
		"setpointA":   NumberValue("90"),
		"displayPath": StringValue("Tanks/Tank1"),
	}}}
	if diff := cmp.Diff(want, got[0].Alarms); diff != "" {
		t.Errorf("Tank1 alarms mismatch (-want +got):\n%s", diff)
	}
	if got[1].Alarms != nil {
		t.Errorf("Tank2 alarms = %+v, want none when every alarm cell is empty", got[1].Alarms)
	}
}

func TestParseCSV_Permissions(t *testing.T) {
	text := "name,readPermissions/type,writePermissions/securityLevels,writePermissions/type\n" +
		"Tank1,AllOf,Operator,AnyOf\n" +
		"Tank2,,Admin,\n" +
		"Tank3,,,\n"

	got := ParseCSV(text)
	if len(got) != 3 {
		t.Fatalf("got %d tags, want 3", len(got))
	}

	tests := []struct {
		tag  int
		want map[string]PermissionBlock
	}{
		{0, map[string]PermissionBlock{
			PermissionRead:  {SecurityLevels: []Value{}, Type: "AllOf"},
			PermissionWrite: {SecurityLevels: []Value{}, Type: "AnyOf"},
		}},
		// A nested field other than type still creates the block.
		{1, map[string]PermissionBlock{
			PermissionWrite: {SecurityLevels: []Value{}},
		}},
		{2, nil},
	}

	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, got[tt.tag].Permissions); diff != "" {
			t.Errorf("%s permissions mismatch (-want +got):\n%s", got[tt.tag].Name, diff)
		}
	}
}

func TestParseCSV_PermissionTypeIsNotCoerced(t *testing.T) {
	got := ParseCSV("name,readPermissions/type\nTank1,TRUE\n")
	if got[0].Permissions[PermissionRead].Type != "TRUE" {
		t.Errorf("type = %q, want raw TRUE", got[0].Permissions[PermissionRead].Type)
	}
}

func TestParseCSV_NameFilter(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantNames []string
	}{
		{
			name:      "rows without a name are dropped",
			text:      "name,opcItemPath\nTank1,a\n,b\nTank3,c\n   ,d\n",
			wantNames: []string{"Tank1", "Tank3"},
		},
		{
			name:      "no name column drops everything",
			text:      "opcItemPath,tagType\na,AtomicTag\nb,AtomicTag\n",
			wantNames: []string{},
		},
		{
			name:      "short rows keep the cells they have",
			text:      "name,tagType,opcItemPath\nTank1\n",
			wantNames: []string{"Tank1"},
		},
		{
			name:      "extra cells beyond the header are ignored",
			text:      "name\nTank1,extra,cells\n",
			wantNames: []string{"Tank1"},
		},
		{
			name:      "blank lines and CRLF",
			text:      "\r\nname,tagType\r\n\r\nTank1,AtomicTag\r\n  \nTank2,AtomicTag\r\n",
			wantNames: []string{"Tank1", "Tank2"},
		},
		{
			name:      "names that coerce to false or zero are dropped",
			text:      "name,tagType\nFALSE,a\n0,b\nfalse,c\n0.0,d\nnull,e\n\"\",f\nTRUE,g\n00,h\nTank0,i\n",
			wantNames: []string{"true", "00", "Tank0"},
		},
		{
			name:      "header only",
			text:      "name,tagType\n",
			wantNames: []string{},
		},
		{
			name:      "empty input",
			text:      "",
			wantNames: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCSV(tt.text)
			if got == nil {
				t.Fatal("ParseCSV() returned nil, want empty slice")
			}
			names := make([]string, len(got))
			for i, rec := range got {
				names[i] = rec.Name
			}
			if diff := cmp.Diff(tt.wantNames, names); diff != "" {
				t.Errorf("names mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseCSV_CommaInValueShiftsColumns(t *testing.T) {
	// Quoted fields are not recognised; the comma splits the value.
	got := ParseCSV("name,documentation,tagType\nTank1,\"Level, high\",AtomicTag\n")
	if len(got) != 1 {
		t.Fatalf("got %d tags, want 1", len(got))
	}
	if got[0].TagType != `high"` {
		t.Errorf("TagType = %q, want the shifted cell %q", got[0].TagType, `high"`)
	}
}

func TestParseCSV_ValueSourceDefault(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"no opcItemPath", "name\nTank1\n", ValueSourceMemory},
		{"empty opcItemPath", "name,opcItemPath\nTank1,\n", ValueSourceMemory},
		{"json null opcItemPath", "name,opcItemPath\nTank1,null\n", ValueSourceMemory},
		{"opcItemPath set", "name,opcItemPath\nTank1,ns=1;s=T1\n", ValueSourceOPC},
		{"explicit valueSource wins", "name,opcItemPath,valueSource\nTank1,ns=1;s=T1,expr\n", "expr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCSV(tt.text)
			if len(got) != 1 {
				t.Fatalf("got %d tags, want 1", len(got))
			}
			if got[0].ValueSource != tt.want {
				t.Errorf("ValueSource = %q, want %q", got[0].ValueSource, tt.want)
			}
		})
	}
}
