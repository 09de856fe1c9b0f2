//go:build !tinygo

// Package fmtx is the console formatter: fmt on the host, a small
// allocation-light subset on MCU builds.
package fmtx

import (
	"fmt"
	"io"
)

func Sprintf(format string, a ...any) string                    { return fmt.Sprintf(format, a...) }
func Fprintf(w io.Writer, format string, a ...any) (int, error) { return fmt.Fprintf(w, format, a...) }
