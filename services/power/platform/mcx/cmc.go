// services/power/platform/mcx/cmc.go
//go:build tinygo && mcxn947

package mcx

import (
	"device/arm"

	"powerswitch-go/errcode"
	"powerswitch-go/services/power/internal/hw"
	"powerswitch-go/types"
)

const (
	cmcCKCTRL   = cmc0 + 0x10
	cmcPMPROT   = cmc0 + 0x18
	cmcPMCTRL0  = cmc0 + 0x20 // main domain; wake domain follows
	cmcSRS      = cmc0 + 0x80
	cmcSRAMRET0 = cmc0 + 0xD0
	cmcFLASHCR  = cmc0 + 0xE0
	cmcDBGCTL   = cmc0 + 0x1C0

	dbgSOD = 1 << 0

	flashDIS  = 1 << 0
	flashDOZE = 1 << 1
	flashWAKE = 1 << 2

	scrSleepDeep = 1 << 2
)

var ckMode = [...]uint32{
	hw.ClockNoGate:        0b0000,
	hw.ClockGateCore:      0b0001,
	hw.ClockGateAllSystem: 0b1111,
}

var lpMode = [...]uint32{
	hw.DomainActiveOrSleep: 0b0000,
	hw.DomainDeepSleep:     0b0001,
	hw.DomainPowerDown:     0b0011,
}

type cmc struct{}

var _ hw.ModeController = cmc{}

func (cmc) ResetCause() types.ResetBits { return types.ResetBits(reg(cmcSRS).Get()) }

func (cmc) EnableDebugOperation(on bool) { bit(reg(cmcDBGCTL), dbgSOD, !on) }

func (cmc) SetPowerModeProtection(allowed hw.ModeProtection) {
	reg(cmcPMPROT).Set(uint32(allowed))
}

func (cmc) ConfigFlashMode(wake, doze, disable bool) {
	r := reg(cmcFLASHCR)
	bit(r, flashWAKE, wake)
	bit(r, flashDOZE, doze)
	bit(r, flashDIS, disable)
}

// PowerOffSRAMLowPowerOnly drops retention for the masked arrays.
func (cmc) PowerOffSRAMLowPowerOnly(mask uint32) { reg(cmcSRAMRET0).ClearBits(mask) }

func (cmc) EnterLowPowerMode(cfg hw.PowerDomainConfig) error {
	if int(cfg.Clock) >= len(ckMode) || int(cfg.Main) >= len(lpMode) || int(cfg.Wake) >= len(lpMode) {
		return errcode.InvalidParams
	}
	prot := hw.ModeProtection(reg(cmcPMPROT).Get())
	if cfg.Main == hw.DomainPowerDown && prot&hw.AllowPowerDown == 0 ||
		cfg.Main == hw.DomainDeepSleep && prot&hw.AllowDeepSleep == 0 {
		return errcode.Unsupported
	}

	reg(cmcPMCTRL0).Set(lpMode[cfg.Main])
	reg(cmcPMCTRL0 + 4).Set(lpMode[cfg.Wake])
	reg(cmcCKCTRL).Set(ckMode[cfg.Clock])

	if cfg.Clock == hw.ClockGateAllSystem {
		arm.SCB.SCR.SetBits(scrSleepDeep)
	} else {
		arm.SCB.SCR.ClearBits(scrSleepDeep)
	}
	arm.Asm("dsb")
	arm.Asm("wfi")
	arm.Asm("isb")
	arm.SCB.SCR.ClearBits(scrSleepDeep)

	reg(cmcCKCTRL).Set(0)
	return nil
}
