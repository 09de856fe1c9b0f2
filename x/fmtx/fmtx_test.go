package fmtx

import (
	"bytes"
	"testing"
)

func TestSprintfVerbs(t *testing.T) {
	type C struct {
		fmt  string
		args []any
		want string
	}
	for _, c := range []C{
		{"hello %s", []any{"world"}, "hello world"},
		{"num %d hex %x HEX %X", []any{255, 255, uint32(255)}, "num 255 hex ff HEX FF"},
		{"neg %d", []any{-42}, "neg -42"},
		{"literal %%", nil, "literal %"},
		{"v=%v", []any{uint16(123)}, "v=123"},
		{"Press %c to enter", []any{byte('C')}, "Press C to enter"},
		{"[%5s]", []any{"ab"}, "[   ab]"},
		{"[%4d]", []any{7}, "[   7]"},
	} {
		got := Sprintf(c.fmt, c.args...)
		if got != c.want {
			t.Fatalf("Sprintf(%q, ...) = %q, want %q", c.fmt, got, c.want)
		}
	}
}

func TestFprintf_SingleWrite(t *testing.T) {
	var w countingWriter
	n, err := Fprintf(&w, "timeout %d window %d\r\n", uint32(1000000), uint32(250000))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := w.buf.String(), "timeout 1000000 window 250000\r\n"; got != want || n != len(want) {
		t.Fatalf("Fprintf wrote %q (%d)", got, n)
	}
	if w.calls != 1 {
		t.Fatalf("writes = %d", w.calls)
	}
}

type countingWriter struct {
	buf   bytes.Buffer
	calls int
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.calls++
	return w.buf.Write(p)
}
