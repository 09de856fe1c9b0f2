// Package selector presents the power-mode menu and reads the operator's
// choice from the console.
package selector

import (
	"context"
	"io"

	"powerswitch-go/types"
	"powerswitch-go/x/fmtx"
)

// KeyReader is a blocking single-character console read.
type KeyReader interface {
	ReadKey(ctx context.Context) (byte, error)
}

type Selector struct {
	in  KeyReader
	out io.Writer

	rejected int
}

func New(in KeyReader, out io.Writer) *Selector {
	if out == nil {
		out = io.Discard
	}
	return &Selector{in: in, out: out}
}

// Select prompts until a valid mode key is read. Letters are case-folded;
// anything outside the mode range is rejected and the menu repeats. Only
// ctx or a read error ends the wait.
func (s *Selector) Select(ctx context.Context) (types.PowerMode, error) {
	for {
		s.menu()

		ch, err := s.in.ReadKey(ctx)
		if err != nil {
			return 0, err
		}
		mode, ok := types.ModeFromKey(ch)
		if !ok {
			s.rejected++
			fmtx.Fprintf(s.out, "Wrong Input!")
			continue
		}

		info, _ := mode.Info()
		fmtx.Fprintf(s.out, "\t%s\r\n", info.Desc)
		return mode, nil
	}
}

// Rejected counts invalid keys since construction.
func (s *Selector) Rejected() int { return s.rejected }

func (s *Selector) menu() {
	fmtx.Fprintf(s.out, "\r\nSelect the desired operation \n\r\n")
	for _, m := range types.Modes {
		fmtx.Fprintf(s.out, "\tPress %c to enter: %s mode\r\n", byte(m.Mode), m.Name)
	}
	fmtx.Fprintf(s.out, "\r\nWaiting for power mode select...\r\n\r\n")
}
