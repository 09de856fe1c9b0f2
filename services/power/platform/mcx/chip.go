// services/power/platform/mcx/chip.go
//go:build tinygo && mcxn947

package mcx

import "powerswitch-go/services/power/internal/hw"

// Handles returns the on-chip controllers. Each handle has one owner; see hw.
func Handles() hw.Chip {
	return hw.Chip{
		WDT:    wdt{},
		CMC:    cmc{},
		SPC:    spc{},
		VBAT:   vbat{},
		Cache:  cache{},
		Clocks: clocks{},
	}
}
