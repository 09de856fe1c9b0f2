// services/power/platform/platform.go
package platform

import (
	"context"

	"powerswitch-go/services/power/internal/console"
	"powerswitch-go/services/power/internal/hw"
)

// Board is the hardware one power service runs on.
type Board struct {
	Name      string
	Chip      hw.Chip
	Transport console.Transport

	// Resets fires once per chip reset when the board can observe its own
	// resets (simulation). Nil on hardware, where a reset restarts main.
	Resets <-chan struct{}

	// Clock drives board time until ctx ends. Nil when time is real.
	Clock func(ctx context.Context)
}

// Console opens the board console.
func (b Board) Console() (*console.Console, error) { return console.New(b.Transport) }
