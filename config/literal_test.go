package config

import (
	"reflect"
	"testing"
)

func TestParseLiteral(t *testing.T) {
	cases := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"False", false},
		{"TRUE", true},
		{"None", nil},
		{"42", 42},
		{"3.14", 3.14},
		{`"hello"`, "hello"},
		{"plain", "plain"},
	}
	for _, c := range cases {
		got := ParseLiteral(c.in)
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("ParseLiteral(%q) = %#v, want %#v", c.in, got, c.want)
		}
	}
}

func TestParseLiteralList(t *testing.T) {
	got := ParseLiteral("[a, b, 1]")
	want := []any{"a", "b", 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestParseLiteralMapping(t *testing.T) {
	got := ParseLiteral("{info: [a, b], warn: [c]}")
	m, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("expected map[string]any, got %T", got)
	}
	if !reflect.DeepEqual(m["info"], []any{"a", "b"}) {
		t.Errorf("info = %#v", m["info"])
	}
	if !reflect.DeepEqual(m["warn"], []any{"c"}) {
		t.Errorf("warn = %#v", m["warn"])
	}
}
