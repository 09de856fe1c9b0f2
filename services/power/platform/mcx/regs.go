// services/power/platform/mcx/regs.go
//go:build tinygo && mcxn947

// Package mcx drives the MCXN947 power, mode, watchdog and backup
// controllers through their registers.
package mcx

import (
	"runtime/volatile"
	"unsafe"
)

// Peripheral base addresses (non-secure alias).
const (
	syscon = 0x4000_0000
	wwdt0  = 0x4000_C000
	spc0   = 0x4001_6000
	cmc0   = 0x4004_8000
	vbat0  = 0x4005_9000
)

func reg(addr uintptr) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(addr))
}

// field replaces the bits under mask (shifted by pos) with v.
func field(r *volatile.Register32, pos, mask, v uint32) {
	r.Set(r.Get()&^(mask<<pos) | (v&mask)<<pos)
}

// bit sets or clears one bit.
func bit(r *volatile.Register32, b uint32, on bool) {
	if on {
		r.SetBits(b)
	} else {
		r.ClearBits(b)
	}
}
