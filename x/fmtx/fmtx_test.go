package fmtx

import (
	"bytes"
	"errors"
	"testing"
)

func TestSprintfVerbs(t *testing.T) {
	for _, c := range []struct {
		fmt  string
		args []any
		want string
	}{
		{"port %s", []any{"LEUART0"}, "port LEUART0"},
		{"base 0x%X ecode 0x%x", []any{uint32(0x4004A000), uint32(0x2003)}, "base 0x4004A000 ecode 0x2003"},
		{"baud %d", []any{uint32(115200)}, "baud 115200"},
		{"rx %d", []any{byte(0x41)}, "rx 65"},
		{"bound %t %t", []any{true, false}, "bound true false"},
		{"literal %%", nil, "literal %"},
		{"q=%q", []any{"a\"b\\c"}, `q="a\"b\\c"`},
		{"v=%v", []any{-9}, "v=-9"},
		{"trim: %.3s", []any{"abcdef"}, "trim: abc"},
	} {
		if got := Sprintf(c.fmt, c.args...); got != c.want {
			t.Fatalf("Sprintf(%q, ...) = %q, want %q", c.fmt, got, c.want)
		}
	}
}

func TestPrintUsesDefaultOutput(t *testing.T) {
	var buf bytes.Buffer
	old := DefaultOutput
	DefaultOutput = &buf
	defer func() { DefaultOutput = old }()

	if got, want := Sprint("a", 1, true), "a 1 true"; got != want {
		t.Fatalf("Sprint = %q, want %q", got, want)
	}

	if _, err := Print("x"); err != nil {
		t.Fatalf("Print error: %v", err)
	}
	if _, err := Printf(" v=%d", 7); err != nil {
		t.Fatalf("Printf error: %v", err)
	}
	if got, want := buf.String(), "x v=7"; got != want {
		t.Fatalf("output %q, want %q", got, want)
	}
}

func TestFprintfAndErrorf(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Fprintf(&buf, "hi %s", "there"); err != nil {
		t.Fatalf("Fprintf error: %v", err)
	}
	if got, want := buf.String(), "hi there"; got != want {
		t.Fatalf("Fprintf wrote %q, want %q", got, want)
	}

	err := Errorf("bad %s: %d", "thing", 3)
	if err == nil || err.Error() != "bad thing: 3" {
		t.Fatalf("Errorf = %v", err)
	}
	if !errors.Is(err, err) {
		t.Fatal("errors.Is should be true on itself")
	}
}
