// services/power/platform/mcx/vbat.go
//go:build tinygo && mcxn947

package mcx

import (
	"runtime/interrupt"

	"powerswitch-go/services/power/internal/hw"
)

// VBAT registers come in A/B pairs; B must hold the inverse of A.
const (
	vbatSTATUSA  = vbat0 + 0x10
	vbatIRQENA   = vbat0 + 0x18
	vbatFROCTLA  = vbat0 + 0x200
	vbatFROCLKE  = vbat0 + 0x220
	vbatLDOCTLA  = vbat0 + 0x300
	vbatLDOTIMER = vbat0 + 0x310

	statusWakeup  = 1 << 1 // w1c
	froEN         = 1 << 0
	froCLKEVddSys = 1 << 0
	ldoREFOPEN    = 1 << 1
	ldoTimerEN    = 1 << 31

	irqVBAT0 = 143
)

var wakeHandler func()

func vbatISR(interrupt.Interrupt) {
	if h := wakeHandler; h != nil {
		h()
	}
}

func setPair(a uintptr, v uint32) {
	reg(a).Set(v)
	reg(a + 4).Set(^v)
}

type vbat struct{}

var _ hw.BackupDomain = vbat{}

func (vbat) FRO16kEnabled() bool { return reg(vbatFROCTLA).HasBits(froEN) }

func (vbat) EnableFRO16k(on bool) {
	v := reg(vbatFROCTLA).Get() &^ froEN
	if on {
		v |= froEN
	}
	setPair(vbatFROCTLA, v)
}

func (vbat) UngateFRO16kToVddSys() { reg(vbatFROCLKE).SetBits(froCLKEVddSys) }

func (vbat) BandgapEnabled() bool { return reg(vbatLDOCTLA).HasBits(ldoREFOPEN) }

func (vbat) EnableBandgapRefresh(on bool) { bit(reg(vbatLDOTIMER), ldoTimerEN, on) }

func (vbat) EnableBandgap(on bool) {
	v := reg(vbatLDOCTLA).Get() &^ ldoREFOPEN
	if on {
		v |= ldoREFOPEN
	}
	setPair(vbatLDOCTLA, v)
}

func (vbat) WakeupPinFlag() bool { return reg(vbatSTATUSA).HasBits(statusWakeup) }

func (vbat) ClearWakeupPinFlag() { setPair(vbatSTATUSA, statusWakeup) }

func (vbat) SetWakeupHandler(fn func()) { wakeHandler = fn }

func (vbat) EnableWakeupIRQ() {
	setPair(vbatIRQENA, reg(vbatIRQENA).Get()|statusWakeup)
	intr := interrupt.New(irqVBAT0, vbatISR)
	intr.Enable()
}
