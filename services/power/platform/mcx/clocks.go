// services/power/platform/mcx/clocks.go
//go:build tinygo && mcxn947

package mcx

import "powerswitch-go/services/power/internal/hw"

const (
	sysAHBCLKCTRLSET0 = syscon + 0x220
	sysMAINCLKSELA    = syscon + 0x280
	sysMAINCLKSELB    = syscon + 0x284
	sysAHBCLKDIV      = syscon + 0x380
	sysWDT0CLKDIV     = syscon + 0x388
	sysLPCACCTRL      = syscon + 0x824
	sysCLOCKCTRL      = syscon + 0xA18

	clkWWDT0      = 1 << 22 // AHBCLKCTRL0
	divRESET      = 1 << 29
	divHALT       = 1 << 30
	divUNSTAB     = 1 << 31
	fro1MHzEnable = 1 << 6 // CLOCK_CTRL
	lpcacCLR      = 1 << 1

	fro1MHz = 1_000_000
)

type clocks struct{}

var _ hw.Clocks = clocks{}

// EnableWatchdogClock gates WWDT0 on, runs FRO 1 MHz and sets the divider to 1.
func (clocks) EnableWatchdogClock() {
	reg(sysCLOCKCTRL).SetBits(fro1MHzEnable)
	reg(sysAHBCLKCTRLSET0).Set(clkWWDT0)
	d := reg(sysWDT0CLKDIV)
	d.Set(divHALT)
	d.Set(divRESET) // DIV field 0 divides by 1
	d.Set(0)
	for d.HasBits(divUNSTAB) {
	}
}

func (clocks) WatchdogClockHz() uint32 {
	if !reg(sysCLOCKCTRL).HasBits(fro1MHzEnable) || reg(sysWDT0CLKDIV).HasBits(divHALT) {
		return 0
	}
	return fro1MHz / (reg(sysWDT0CLKDIV).Get()&0xFF + 1)
}

// BootDefault selects FRO_HF 48 MHz as the main clock with no AHB divider.
// Console pins are muxed again by the console transport on Reinit.
func (clocks) BootDefault() {
	reg(sysMAINCLKSELA).Set(0)
	reg(sysMAINCLKSELB).Set(0)
	reg(sysAHBCLKDIV).Set(0)
}

type cache struct{}

var _ hw.CodeCache = cache{}

func (cache) InvalidateCodeCache() {
	reg(sysLPCACCTRL).SetBits(lpcacCLR)
	reg(sysLPCACCTRL).ClearBits(lpcacCLR)
}
