// services/power/internal/regulator/regulator.go
package regulator

import (
	"io"
	"sync/atomic"

	"powerswitch-go/errcode"
	"powerswitch-go/services/power/internal/hw"
	"powerswitch-go/x/fmtx"
)

// DefaultWakeUpDelay bounds the low-power wake-up delay.
const DefaultWakeUpDelay uint16 = 0xFF

// ActiveSettings are the nominal active-mode regulator levels.
var ActiveSettings = hw.ActiveRegulators{
	Bandgap:      hw.BandgapEnabledBufferDisabled,
	LPBuff:       false,
	DCDCVoltage:  hw.LevelNormal, // 1.1 V
	DCDCDrive:    hw.DriveNormal,
	SysLDOVolt:   hw.LevelNormal,
	SysLDODrive:  hw.DriveLow,
	CoreLDOVolt:  hw.LevelNormal,
	CoreLDODrive: hw.DriveNormal,
}

// LowPowerSettings are the reduced levels used in Deep Sleep and Power Down.
var LowPowerSettings = hw.LowPowerRegulators{
	LPIREF:       false,
	Bandgap:      hw.BandgapDisabled,
	LPBuff:       false,
	CoreIVS:      true,
	DCDCVoltage:  hw.LevelMid, // 1.0 V
	DCDCDrive:    hw.DriveLow,
	SysLDODrive:  hw.DriveLow,
	CoreLDOVolt:  hw.LevelMid,
	CoreLDODrive: hw.DriveLow,
}

// LowPowerRequestOutput makes low-power entry/exit observable on the LP request pin.
var LowPowerRequestOutput = hw.LowPowerRequest{
	Enable:   true,
	Override: hw.LPReqNotForced,
	Polarity: hw.LowTrue,
}

// Configurator applies the steady-state power, backup and mode-controller
// settings. All methods are idempotent.
type Configurator struct {
	spc  hw.PowerController
	vbat hw.BackupDomain
	cmc  hw.ModeController
	out  io.Writer

	wakeUpDelay uint16
	wakePins    atomic.Uint32
}

func New(spc hw.PowerController, vbat hw.BackupDomain, cmc hw.ModeController, out io.Writer) *Configurator {
	if out == nil {
		out = io.Discard
	}
	return &Configurator{spc: spc, vbat: vbat, cmc: cmc, out: out, wakeUpDelay: DefaultWakeUpDelay}
}

// SetWakeUpDelay overrides DefaultWakeUpDelay for subsequent Apply calls.
func (c *Configurator) SetWakeUpDelay(d uint16) { c.wakeUpDelay = d }

// Apply runs the power controller sequence: active-mode settings, then
// low-power settings, then core LDO off and the LP request output. A failed
// regulator write abandons the remaining steps; the partial configuration
// stays in place and the error is reported, not retried.
func (c *Configurator) Apply() error {
	if err := c.applyActive(); err != nil {
		return c.fail("regulator.active", "Fail to set regulators in Active mode.", err)
	}
	if err := c.applyLowPower(); err != nil {
		return c.fail("regulator.low_power", "Fail to set regulators in Low Power Mode.", err)
	}

	// The core LDO is bypassed.
	c.spc.EnableCoreLDORegulator(false)
	c.spc.SetLowPowerRequestConfig(LowPowerRequestOutput)
	return nil
}

func (c *Configurator) applyActive() error {
	c.spc.DisableActiveModeAnalogModules(hw.AllAnalogModules)
	for _, d := range hw.Detectors {
		c.spc.EnableActiveModeDetector(d, false)
	}

	err := c.spc.SetActiveModeRegulators(ActiveSettings)
	c.spc.DisableActiveModeVddCoreGlitchDetect(true)
	if err != nil {
		return err
	}
	c.waitIdle()
	return nil
}

func (c *Configurator) applyLowPower() error {
	c.spc.DisableLowPowerModeAnalogModules(hw.AllAnalogModules)
	c.spc.SetLowPowerWakeUpDelay(c.wakeUpDelay)

	err := c.spc.SetLowPowerModeRegulators(LowPowerSettings)
	c.spc.DisableLowPowerModeVddCoreGlitchDetect(true)
	if err != nil {
		return err
	}
	c.waitIdle()
	return nil
}

// waitIdle spins until the last regulator write has taken effect.
func (c *Configurator) waitIdle() {
	for c.spc.Busy() {
	}
}

func (c *Configurator) fail(op, msg string, err error) error {
	fmtx.Fprintf(c.out, "%s\r\n", msg)
	println("[regulator]", op, "failed:", err.Error())
	return &errcode.E{C: errcode.ConfigFailed, Op: op, Msg: msg, Err: err}
}

// ApplyBackup keeps the 16 kHz FRO running and routed to VDD_SYS and turns
// off the backup-domain bandgap.
func (c *Configurator) ApplyBackup() {
	if !c.vbat.FRO16kEnabled() {
		c.vbat.EnableFRO16k(true)
	}
	c.vbat.UngateFRO16kToVddSys()

	if c.vbat.BandgapEnabled() {
		c.vbat.EnableBandgapRefresh(false)
		c.vbat.EnableBandgap(false)
	}
}

// ArmWakeupPin routes the backup-domain wake-up pin interrupt to
// OnWakeupPin.
func (c *Configurator) ArmWakeupPin() {
	c.vbat.SetWakeupHandler(c.OnWakeupPin)
	c.vbat.EnableWakeupIRQ()
}

// OnWakeupPin runs in interrupt context. It acknowledges a pending wake-up
// pin flag so the next low-power entry is not aborted by it.
func (c *Configurator) OnWakeupPin() {
	if !c.vbat.WakeupPinFlag() {
		return
	}
	c.vbat.ClearWakeupPinFlag()
	c.wakePins.Add(1)
}

// WakeupPinEvents counts wake-up pin interrupts handled since New.
func (c *Configurator) WakeupPinEvents() uint32 { return c.wakePins.Load() }

// ApplyCoreMode disables low-power debug, allows every low-power mode and
// puts flash in low-power state while the core clock is gated.
func (c *Configurator) ApplyCoreMode() {
	c.cmc.EnableDebugOperation(false)
	c.cmc.SetPowerModeProtection(hw.AllowAllLowPowerModes)
	c.cmc.ConfigFlashMode(true, true, false)
}
