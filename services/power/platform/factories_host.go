// services/power/platform/factories_host.go
//go:build !(tinygo && mcxn947)

package platform

import (
	"context"
	"io"
	"os"
	"time"

	"powerswitch-go/services/power/internal/console"
	"powerswitch-go/services/power/internal/hw/simhw"
	"powerswitch-go/x/timex"
)

// Simulated watchdog clock advance period.
const simPeriod = 10 * time.Millisecond

// Default opens the simulated board on stdin/stdout.
func Default() Board {
	b, _ := Simulated(os.Stdin, os.Stdout, 0)
	return b
}

// Simulated builds a board around a host chip model whose watchdog runs in
// real time from a wdtClockHz input clock (0 for 1 MHz). Line endings are
// dropped from in so a terminal key press reads as a single byte.
func Simulated(in io.Reader, out io.Writer, wdtClockHz uint32) (Board, *simhw.Chip) {
	hz := wdtClockHz
	if hz == 0 {
		hz = 1_000_000
	}
	chip := simhw.New(simhw.Options{WDTClockHz: hz})
	// The watchdog counts at a quarter of its input clock.
	ticks := timex.Ticks(hz/4, simPeriod)
	return Board{
		Name:      "host-sim",
		Chip:      chip.Handles(),
		Transport: console.NewStream(KeyFilter(in), out),
		Resets:    chip.Resets(),
		Clock:     func(ctx context.Context) { chip.Run(ctx, simPeriod, ticks) },
	}, chip
}

// KeyFilter drops CR and LF from r.
func KeyFilter(r io.Reader) io.Reader { return keyFilter{r} }

type keyFilter struct{ r io.Reader }

func (f keyFilter) Read(p []byte) (int, error) {
	for {
		n, err := f.r.Read(p)
		k := 0
		for _, c := range p[:n] {
			if c != '\r' && c != '\n' {
				p[k] = c
				k++
			}
		}
		if k > 0 || err != nil {
			return k, err
		}
	}
}
