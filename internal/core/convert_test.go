package core

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKind ValueKind
		want     Value
	}{
		// Spreadsheet boolean literals
		{"upper TRUE", "TRUE", KindBool, BoolValue(true)},
		{"upper FALSE", "FALSE", KindBool, BoolValue(false)},

		// JSON grammar
		{"json true", "true", KindBool, BoolValue(true)},
		{"json false", "false", KindBool, BoolValue(false)},
		{"integer", "42", KindNumber, NumberValue("42")},
		{"negative decimal", "-1.5", KindNumber, NumberValue("-1.5")},
		{"exponent", "1e3", KindNumber, NumberValue("1e3")},
		{"quoted string", `"hello"`, KindString, StringValue("hello")},
		{"object", `{"a":1}`, KindStructured, StructuredValue(map[string]any{"a": json.Number("1")})},
		{"array", `[1,"x"]`, KindStructured, StructuredValue([]any{json.Number("1"), "x"})},
		{"null", "null", KindStructured, StructuredValue(nil)},

		// Fallback to the raw string, never an error
		{"plain word", "hello", KindString, StringValue("hello")},
		{"mixed case True", "True", KindString, StringValue("True")},
		{"thousands separator", "1,000", KindString, StringValue("1,000")},
		{"leading zero", "007", KindString, StringValue("007")},
		{"opc path", "ns=1;s=[default]Tank1/Level", KindString, StringValue("ns=1;s=[default]Tank1/Level")},
		{"broken object", `{"a":`, KindString, StringValue(`{"a":`)},
		{"trailing garbage", "1 2", KindString, StringValue("1 2")},
		{"empty", "", KindString, StringValue("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Coerce(tt.input)
			if got.Kind() != tt.wantKind {
				t.Errorf("Coerce(%q).Kind() = %v, want %v", tt.input, got.Kind(), tt.wantKind)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Coerce(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestCoerceJSON_NoBooleanLiteralPass(t *testing.T) {
	tests := []struct {
		input string
		want  Value
	}{
		{"TRUE", StringValue("TRUE")},
		{"FALSE", StringValue("FALSE")},
		{"true", BoolValue(true)},
		{"3", NumberValue("3")},
		{"Tank 1", StringValue("Tank 1")},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, CoerceJSON(tt.input)); diff != "" {
				t.Errorf("CoerceJSON(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestValue_Text(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"string", StringValue("Tank1"), "Tank1"},
		{"number keeps literal", NumberValue("3.50"), "3.50"},
		{"bool", BoolValue(true), "true"},
		{"null", StructuredValue(nil), ""},
		{"object compact", Coerce(`{"b": [1, 2]}`), `{"b":[1,2]}`},
		{"no html escaping", Coerce(`{"op":"<>&"}`), `{"op":"<>&"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValue_Equal(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"same string", StringValue("a"), StringValue("a"), true},
		{"different string", StringValue("a"), StringValue("b"), false},
		{"numeric equality", NumberValue("3"), NumberValue("3.0"), true},
		{"number vs string", NumberValue("3"), StringValue("3"), false},
		{"bool", BoolValue(true), BoolValue(true), true},
		{"objects", Coerce(`{"a":1}`), Coerce(`{ "a" : 1 }`), true},
		{"arrays differ", Coerce(`[1]`), Coerce(`[2]`), false},
		{"zero value is empty string", Value{}, StringValue(""), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValue_IsEmpty(t *testing.T) {
	tests := []struct {
		value Value
		want  bool
	}{
		{StringValue(""), true},
		{StructuredValue(nil), true},
		{StringValue(" "), false},
		{NumberValue("0"), false},
		{BoolValue(false), false},
		{Coerce("[]"), false},
	}

	for _, tt := range tests {
		if got := tt.value.IsEmpty(); got != tt.want {
			t.Errorf("%v IsEmpty() = %v, want %v", tt.value.Text(), got, tt.want)
		}
	}
}

func TestValue_JSON(t *testing.T) {
	values := []Value{
		StringValue("a&b"),
		BoolValue(false),
		NumberValue("12.25"),
		Coerce(`{"levels":["Operator","Admin"]}`),
	}

	for _, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("Marshal(%s) error = %v", v.Text(), err)
		}

		var back Value
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", data, err)
		}
		if !back.Equal(v) {
			t.Errorf("JSON round trip of %s gave %s", v.Text(), back.Text())
		}
	}
}

func TestValue_Accessors(t *testing.T) {
	v := Coerce("TRUE")
	if b, ok := v.Bool(); !ok || !b {
		t.Errorf("Bool() = %v, %v; want true, true", b, ok)
	}
	if _, ok := v.Str(); ok {
		t.Error("Str() on a bool should report false")
	}

	n := Coerce("7")
	if lit, ok := n.Number(); !ok || lit != "7" {
		t.Errorf("Number() = %q, %v; want 7, true", lit, ok)
	}

	obj := Coerce(`{"k":"v"}`)
	got, ok := obj.Structured()
	if !ok {
		t.Fatal("Structured() should report true for an object")
	}
	if diff := cmp.Diff(map[string]any{"k": "v"}, got); diff != "" {
		t.Errorf("Structured() mismatch (-want +got):\n%s", diff)
	}
}
