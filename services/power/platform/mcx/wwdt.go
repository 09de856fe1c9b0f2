// services/power/platform/mcx/wwdt.go
//go:build tinygo && mcxn947

package mcx

import (
	"device/arm"
	"runtime/interrupt"

	"powerswitch-go/services/power/internal/hw"
)

const (
	wdtMOD     = wwdt0 + 0x00
	wdtTC      = wwdt0 + 0x04
	wdtFEED    = wwdt0 + 0x08
	wdtTV      = wwdt0 + 0x0C
	wdtWARNINT = wwdt0 + 0x14
	wdtWINDOW  = wwdt0 + 0x18

	modWDEN    = 1 << 0
	modWDRESET = 1 << 1
	modWDTOF   = 1 << 2 // cleared by writing 0
	modWDINT   = 1 << 3 // cleared by writing 1

	irqWWDT0 = 25
)

// The interrupt trampoline must be a top-level function.
var wdtHandler func()

func wwdtISR(interrupt.Interrupt) {
	if h := wdtHandler; h != nil {
		h()
	}
}

type wdt struct{}

var _ hw.Watchdog = wdt{}

func (wdt) Init(cfg hw.WatchdogConfig) {
	reg(wdtTC).Set(cfg.TimeoutTicks & 0xFF_FFFF)
	reg(wdtWARNINT).Set(cfg.WarningTicks & 0x3FF)
	reg(wdtWINDOW).Set(cfg.WindowTicks & 0xFF_FFFF)
	mod := uint32(modWDEN)
	if cfg.ResetEnable {
		mod |= modWDRESET
	}
	// Keep WDTOF, do not clear a pending WDINT.
	reg(wdtMOD).Set(reg(wdtMOD).Get()&modWDTOF | mod)
	// The first feed starts the countdown.
	feed()
}

func (wdt) Flags() hw.WatchdogFlags {
	m := reg(wdtMOD).Get()
	var f hw.WatchdogFlags
	if m&modWDTOF != 0 {
		f |= hw.FlagTimeout
	}
	if m&modWDINT != 0 {
		f |= hw.FlagWarning
	}
	return f
}

func (wdt) ClearFlags(f hw.WatchdogFlags) {
	m := reg(wdtMOD).Get() &^ modWDINT
	if f&hw.FlagTimeout != 0 {
		m &^= modWDTOF
	}
	if f&hw.FlagWarning != 0 {
		m |= modWDINT
	}
	reg(wdtMOD).Set(m)
}

func (wdt) Counter() uint32 { return reg(wdtTV).Get() }
func (wdt) Window() uint32  { return reg(wdtWINDOW).Get() }
func (wdt) Feed()           { feed() }

func (wdt) SetHandler(fn func()) { wdtHandler = fn }

func (wdt) EnableIRQ() {
	intr := interrupt.New(irqWWDT0, wwdtISR)
	intr.Enable()
}

// feed writes the two-word sequence with interrupts masked.
func feed() {
	mask := arm.DisableInterrupts()
	reg(wdtFEED).Set(0xAA)
	reg(wdtFEED).Set(0x55)
	arm.EnableInterrupts(mask)
}
