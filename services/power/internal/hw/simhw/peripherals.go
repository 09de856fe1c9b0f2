package simhw

import (
	"powerswitch-go/errcode"
	"powerswitch-go/services/power/internal/hw"
	"powerswitch-go/types"
)

// Compile-time checks.
var (
	_ hw.Watchdog        = wdt{}
	_ hw.ModeController  = cmc{}
	_ hw.PowerController = spc{}
	_ hw.BackupDomain    = vbat{}
	_ hw.CodeCache       = cache{}
	_ hw.Clocks          = clocks{}
)

// ---- WWDT ----

type wdt struct{ c *Chip }

func (w wdt) Init(cfg hw.WatchdogConfig) {
	c := w.c
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("wdt.init")
	c.wdtCfg = cfg
	c.wdtEnabled = true
	c.wdtFlags = 0
	c.tv = cfg.TimeoutTicks
}

func (w wdt) Flags() hw.WatchdogFlags {
	w.c.mu.Lock()
	defer w.c.mu.Unlock()
	return w.c.wdtFlags
}

func (w wdt) ClearFlags(f hw.WatchdogFlags) {
	w.c.mu.Lock()
	defer w.c.mu.Unlock()
	w.c.record("wdt.clear")
	w.c.wdtFlags &^= f
}

func (w wdt) Counter() uint32 {
	if n := w.c.opts.TicksPerRead; n > 0 {
		w.c.Advance(n)
	}
	w.c.mu.Lock()
	defer w.c.mu.Unlock()
	return w.c.tv
}

func (w wdt) Window() uint32 {
	w.c.mu.Lock()
	defer w.c.mu.Unlock()
	return w.c.wdtCfg.WindowTicks
}

// Feed reloads the counter. Feeding while the counter is still above the
// window is a fault, handled like a timeout.
func (w wdt) Feed() {
	c := w.c
	c.mu.Lock()
	if !c.wdtEnabled {
		c.mu.Unlock()
		return
	}
	c.record("wdt.feed")
	var irq, reset bool
	if c.tv > c.wdtCfg.WindowTicks {
		c.wdtFlags |= hw.FlagTimeout
		if c.wdtCfg.ResetEnable {
			reset = true
		} else {
			irq = c.irqEnabled
		}
	} else {
		c.tv = c.wdtCfg.TimeoutTicks
		c.feeds++
	}
	h := c.handler
	c.mu.Unlock()
	c.dispatch(irq, reset, h)
}

func (w wdt) SetHandler(fn func()) {
	w.c.mu.Lock()
	w.c.handler = fn
	w.c.mu.Unlock()
}

func (w wdt) EnableIRQ() {
	w.c.mu.Lock()
	w.c.record("wdt.irq_enable")
	w.c.irqEnabled = true
	w.c.mu.Unlock()
}

// ---- CMC ----

type cmc struct{ c *Chip }

func (m cmc) ResetCause() types.ResetBits {
	m.c.mu.Lock()
	defer m.c.mu.Unlock()
	return m.c.srs
}

func (m cmc) EnableDebugOperation(on bool) {
	m.c.mu.Lock()
	m.c.record("cmc.debug")
	m.c.debug = on
	m.c.mu.Unlock()
}

func (m cmc) SetPowerModeProtection(allowed hw.ModeProtection) {
	m.c.mu.Lock()
	m.c.record("cmc.protection")
	m.c.protection = allowed
	m.c.mu.Unlock()
}

func (m cmc) ConfigFlashMode(wake, doze, disable bool) {
	m.c.mu.Lock()
	m.c.record("cmc.flash")
	m.c.flash = [3]bool{wake, doze, disable}
	m.c.mu.Unlock()
}

func (m cmc) PowerOffSRAMLowPowerOnly(mask uint32) {
	m.c.mu.Lock()
	m.c.record("cmc.sram_off")
	m.c.sramOff = mask
	m.c.mu.Unlock()
}

// EnterLowPowerMode blocks until a wake event unless AutoWake is set. A chip
// reset while halted returns errcode.Reset.
func (m cmc) EnterLowPowerMode(cfg hw.PowerDomainConfig) error {
	c := m.c
	c.mu.Lock()
	c.record("cmc.enter")
	c.entries = append(c.entries, cfg)
	if cfg.Main != hw.DomainActiveOrSleep {
		c.lpReqFlags[hw.MainDomain] = true
		c.lpRequest = true
	}
	if cfg.Wake != hw.DomainActiveOrSleep {
		c.lpReqFlags[hw.WakeDomain] = true
	}
	if cfg.Main == hw.DomainPowerDown {
		c.iso = true
	}
	if c.opts.AutoWake {
		c.resumedLocked(cfg)
		c.mu.Unlock()
		return nil
	}
	select {
	case <-c.wakeCh:
	default:
	}
	c.asleep = true
	c.mu.Unlock()

	if r := <-c.wakeCh; r == wakeReset {
		return errcode.Reset
	}

	c.mu.Lock()
	c.resumedLocked(cfg)
	c.mu.Unlock()
	return nil
}

// resumedLocked models the status left behind by a wake. Power Down wakes
// report through the wake-up reset bit with the pads still isolated.
func (c *Chip) resumedLocked(cfg hw.PowerDomainConfig) {
	c.record("cmc.resume")
	if cfg.Main == hw.DomainPowerDown {
		c.srs |= types.ResetWakeUp
	}
}

// ---- SPC ----

type spc struct{ c *Chip }

func (p spc) Busy() bool {
	p.c.mu.Lock()
	defer p.c.mu.Unlock()
	if p.c.busy > 0 {
		p.c.busy--
		p.c.busyPolls++
		return true
	}
	return false
}

func (p spc) DisableActiveModeAnalogModules(m hw.AnalogModules) {
	p.c.mu.Lock()
	p.c.record("spc.active_analog_off")
	p.c.activeAnalogOff |= m
	p.c.mu.Unlock()
}

func (p spc) EnableActiveModeDetector(d hw.Detector, on bool) {
	p.c.mu.Lock()
	p.c.record("spc.detector")
	if int(d) < len(p.c.detectors) {
		p.c.detectors[d] = on
	}
	p.c.mu.Unlock()
}

func (p spc) SetActiveModeRegulators(cfg hw.ActiveRegulators) error {
	c := p.c
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("spc.active_regulators")
	if c.busy > 0 {
		return errcode.Busy
	}
	if c.failActive != nil {
		return c.failActive
	}
	if cfg.CoreLDOVolt > cfg.DCDCVoltage {
		return errcode.VoltageInvalid
	}
	c.active = cfg
	c.activeSet = true
	c.busy = c.opts.BusyPolls
	return nil
}

func (p spc) DisableActiveModeVddCoreGlitchDetect(disable bool) {
	p.c.mu.Lock()
	p.c.record("spc.active_glitch_off")
	p.c.glitchActiveOff = disable
	p.c.mu.Unlock()
}

func (p spc) DisableLowPowerModeAnalogModules(m hw.AnalogModules) {
	p.c.mu.Lock()
	p.c.record("spc.lp_analog_off")
	p.c.lpAnalogOff |= m
	p.c.mu.Unlock()
}

func (p spc) SetLowPowerWakeUpDelay(delay uint16) {
	p.c.mu.Lock()
	p.c.record("spc.wakeup_delay")
	p.c.wakeDelay = delay
	p.c.mu.Unlock()
}

func (p spc) SetLowPowerModeRegulators(cfg hw.LowPowerRegulators) error {
	c := p.c
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("spc.lp_regulators")
	if c.busy > 0 {
		return errcode.Busy
	}
	if c.failLowPower != nil {
		return c.failLowPower
	}
	if cfg.CoreLDOVolt > cfg.DCDCVoltage {
		return errcode.VoltageInvalid
	}
	c.lowPower = cfg
	c.lowPowerSet = true
	c.busy = c.opts.BusyPolls
	return nil
}

func (p spc) DisableLowPowerModeVddCoreGlitchDetect(disable bool) {
	p.c.mu.Lock()
	p.c.record("spc.lp_glitch_off")
	p.c.glitchLPOff = disable
	p.c.mu.Unlock()
}

func (p spc) EnableLowPowerModeCoreIVS(on bool) {
	p.c.mu.Lock()
	p.c.record("spc.core_ivs")
	p.c.coreIVS = on
	p.c.mu.Unlock()
}

func (p spc) EnableCoreLDORegulator(on bool) {
	p.c.mu.Lock()
	p.c.record("spc.core_ldo")
	p.c.coreLDO = on
	p.c.mu.Unlock()
}

func (p spc) SetLowPowerRequestConfig(cfg hw.LowPowerRequest) {
	p.c.mu.Lock()
	p.c.record("spc.lp_request")
	p.c.lpReq = cfg
	p.c.mu.Unlock()
}

func (p spc) ClearPeriphIOIsolationFlag() {
	p.c.mu.Lock()
	p.c.record("spc.iso_clear")
	p.c.iso = false
	p.c.mu.Unlock()
}

func (p spc) ClearDomainLowPowerRequestFlag(d hw.Domain) {
	p.c.mu.Lock()
	p.c.record("spc.lp_flag_clear")
	if int(d) < len(p.c.lpReqFlags) {
		p.c.lpReqFlags[d] = false
	}
	p.c.mu.Unlock()
}

func (p spc) ClearLowPowerRequest() {
	p.c.mu.Lock()
	p.c.record("spc.lp_request_clear")
	p.c.lpRequest = false
	p.c.mu.Unlock()
}

// ---- VBAT ----

type vbat struct{ c *Chip }

func (v vbat) FRO16kEnabled() bool {
	v.c.mu.Lock()
	defer v.c.mu.Unlock()
	return v.c.fro16k
}

func (v vbat) EnableFRO16k(on bool) {
	v.c.mu.Lock()
	v.c.record("vbat.fro16k")
	v.c.fro16k = on
	v.c.mu.Unlock()
}

func (v vbat) UngateFRO16kToVddSys() {
	v.c.mu.Lock()
	v.c.record("vbat.ungate")
	v.c.fro16kUngated = true
	v.c.mu.Unlock()
}

func (v vbat) BandgapEnabled() bool {
	v.c.mu.Lock()
	defer v.c.mu.Unlock()
	return v.c.bandgap
}

func (v vbat) EnableBandgapRefresh(on bool) {
	v.c.mu.Lock()
	v.c.record("vbat.bandgap_refresh")
	v.c.bandgapRefr = on
	v.c.mu.Unlock()
}

func (v vbat) EnableBandgap(on bool) {
	v.c.mu.Lock()
	v.c.record("vbat.bandgap")
	v.c.bandgap = on
	v.c.mu.Unlock()
}

func (v vbat) WakeupPinFlag() bool {
	v.c.mu.Lock()
	defer v.c.mu.Unlock()
	return v.c.wakePinFlag
}

func (v vbat) ClearWakeupPinFlag() {
	v.c.mu.Lock()
	v.c.record("vbat.wake_clear")
	v.c.wakePinFlag = false
	v.c.mu.Unlock()
}

func (v vbat) SetWakeupHandler(fn func()) {
	v.c.mu.Lock()
	v.c.wakeHandler = fn
	v.c.mu.Unlock()
}

func (v vbat) EnableWakeupIRQ() {
	v.c.mu.Lock()
	v.c.record("vbat.wake_irq_enable")
	v.c.wakeIRQ = true
	v.c.mu.Unlock()
}

// ---- Cache ----

type cache struct{ c *Chip }

func (k cache) InvalidateCodeCache() {
	k.c.mu.Lock()
	k.c.record("cache.invalidate")
	k.c.mu.Unlock()
}

// ---- Clocks ----

type clocks struct{ c *Chip }

func (k clocks) EnableWatchdogClock() {
	k.c.mu.Lock()
	k.c.record("clk.wdt_enable")
	k.c.wdtClockOn = true
	k.c.mu.Unlock()
}

func (k clocks) WatchdogClockHz() uint32 {
	k.c.mu.Lock()
	defer k.c.mu.Unlock()
	if !k.c.wdtClockOn {
		return 0
	}
	return k.c.opts.WDTClockHz
}

func (k clocks) BootDefault() {
	k.c.mu.Lock()
	k.c.record("clk.boot")
	k.c.boots++
	k.c.mu.Unlock()
}
