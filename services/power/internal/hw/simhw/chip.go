// Package simhw is a host model of the power, mode, watchdog and backup
// controllers. It keeps register-level state, records every hardware
// operation in order, and simulates the watchdog countdown, wake events and
// chip resets.
package simhw

import (
	"context"
	"sync"
	"time"

	"powerswitch-go/services/power/internal/hw"
	"powerswitch-go/types"
)

type Options struct {
	WDTClockHz uint32 // watchdog input clock once enabled (default 1 MHz)
	BusyPolls  int    // Busy() reads true this many times after a regulator write
	AutoWake   bool   // EnterLowPowerMode returns immediately
	// TicksPerRead advances the watchdog on every Counter() read, so a
	// spinning reader observes time passing without a ticker.
	TicksPerRead uint32
	ResetCause   types.ResetBits // reset status at power-on (default POR)
}

type wakeReason uint8

const (
	wakeIRQ wakeReason = iota
	wakePin
	wakeReset
)

// Chip is one simulated device. Use Handles to obtain the peripheral views.
type Chip struct {
	opts Options

	mu    sync.Mutex
	trace []string

	// CMC
	srs        types.ResetBits
	debug      bool
	protection hw.ModeProtection
	flash      [3]bool
	sramOff    uint32
	entries    []hw.PowerDomainConfig
	asleep     bool
	wakeCh     chan wakeReason

	// SPC
	busy            int
	busyPolls       int
	activeAnalogOff hw.AnalogModules
	lpAnalogOff     hw.AnalogModules
	detectors       [len(hw.Detectors)]bool
	active          hw.ActiveRegulators
	activeSet       bool
	lowPower        hw.LowPowerRegulators
	lowPowerSet     bool
	wakeDelay       uint16
	glitchActiveOff bool
	glitchLPOff     bool
	coreIVS         bool
	coreLDO         bool
	lpReq           hw.LowPowerRequest
	iso             bool
	lpReqFlags      [2]bool
	lpRequest       bool
	failActive      error
	failLowPower    error

	// WWDT
	wdtEnabled bool
	wdtCfg     hw.WatchdogConfig
	tv         uint32
	wdtFlags   hw.WatchdogFlags
	irqEnabled bool
	handler    func()
	feeds      int

	// VBAT
	fro16k        bool
	fro16kUngated bool
	bandgap       bool
	bandgapRefr   bool
	wakePinFlag   bool
	wakeIRQ       bool
	wakeHandler   func()

	// Clocks
	wdtClockOn bool
	boots      int

	resetCh chan struct{}
	resets  int
}

func New(opts Options) *Chip {
	if opts.WDTClockHz == 0 {
		opts.WDTClockHz = 1_000_000
	}
	if opts.ResetCause == 0 {
		opts.ResetCause = types.ResetPOR
	}
	c := &Chip{
		opts:    opts,
		wakeCh:  make(chan wakeReason, 1),
		resetCh: make(chan struct{}, 1),
	}
	c.powerOnDefaults()
	c.srs = opts.ResetCause
	return c
}

// powerOnDefaults restores reset values. Caller holds c.mu (or owns c).
func (c *Chip) powerOnDefaults() {
	c.debug = true
	c.protection = 0
	c.flash = [3]bool{}
	c.sramOff = 0
	c.asleep = false

	c.busy = 0
	c.activeAnalogOff, c.lpAnalogOff = 0, 0
	for i := range c.detectors {
		c.detectors[i] = true
	}
	c.activeSet, c.lowPowerSet = false, false
	c.glitchActiveOff, c.glitchLPOff = false, false
	c.coreIVS = false
	c.coreLDO = true
	c.lpReq = hw.LowPowerRequest{}
	c.lpRequest = false

	c.wdtEnabled = false
	c.wdtCfg = hw.WatchdogConfig{}
	c.tv = 0
	c.wdtFlags = 0
	c.irqEnabled = false
	c.handler = nil

	c.fro16k, c.fro16kUngated = false, false
	c.bandgap, c.bandgapRefr = true, true
	c.wakeIRQ = false
	c.wakeHandler = nil

	c.wdtClockOn = false
}

func (c *Chip) record(op string) { c.trace = append(c.trace, op) }

// Handles returns the peripheral views of this chip.
func (c *Chip) Handles() hw.Chip {
	return hw.Chip{
		WDT:    wdt{c},
		CMC:    cmc{c},
		SPC:    spc{c},
		VBAT:   vbat{c},
		Cache:  cache{c},
		Clocks: clocks{c},
	}
}

// Trace returns a copy of the recorded operations.
func (c *Chip) Trace() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.trace))
	copy(out, c.trace)
	return out
}

func (c *Chip) ClearTrace() {
	c.mu.Lock()
	c.trace = nil
	c.mu.Unlock()
}

// FailActiveRegulators makes the next active-mode regulator writes fail with err
// (nil clears the fault).
func (c *Chip) FailActiveRegulators(err error) {
	c.mu.Lock()
	c.failActive = err
	c.mu.Unlock()
}

func (c *Chip) FailLowPowerRegulators(err error) {
	c.mu.Lock()
	c.failLowPower = err
	c.mu.Unlock()
}

// -----------------------------------------------------------------------------
// Time, wake and reset
// -----------------------------------------------------------------------------

// Advance moves the watchdog countdown by ticks, raising the warning and
// timeout conditions it crosses.
func (c *Chip) Advance(ticks uint32) {
	c.mu.Lock()
	irq, reset := c.advanceLocked(ticks)
	h := c.handler
	c.mu.Unlock()
	c.dispatch(irq, reset, h)
}

func (c *Chip) advanceLocked(ticks uint32) (irq, reset bool) {
	if !c.wdtEnabled || ticks == 0 {
		return false, false
	}
	prev := c.tv
	if ticks >= c.tv {
		c.tv = 0
	} else {
		c.tv -= ticks
	}
	if prev > c.wdtCfg.WarningTicks && c.tv <= c.wdtCfg.WarningTicks {
		c.wdtFlags |= hw.FlagWarning
		irq = c.irqEnabled
	}
	if c.tv == 0 {
		c.wdtFlags |= hw.FlagTimeout
		if c.wdtCfg.ResetEnable {
			return false, true
		}
		irq = c.irqEnabled
		c.tv = c.wdtCfg.TimeoutTicks
	}
	return irq, false
}

// dispatch runs the interrupt handler outside the lock, as hardware would
// preempt the foreground.
func (c *Chip) dispatch(irq, reset bool, h func()) {
	if reset {
		c.reset(types.ResetWWDT0)
		return
	}
	if irq {
		if h != nil {
			h()
		}
		c.wake(wakeIRQ)
	}
}

func (c *Chip) wake(r wakeReason) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.asleep {
		return
	}
	c.asleep = false
	select {
	case c.wakeCh <- r:
	default:
	}
}

func (c *Chip) reset(cause types.ResetBits) {
	c.mu.Lock()
	asleep := c.asleep
	c.powerOnDefaults()
	c.srs = cause
	c.resets++
	c.record("chip.reset")
	c.mu.Unlock()

	if asleep {
		select {
		case c.wakeCh <- wakeReset:
		default:
		}
	}
	select {
	case c.resetCh <- struct{}{}:
	default:
	}
}

// WakePin asserts the backup-domain wake-up pin. With the wake-up interrupt
// unmasked the handler runs before the core resumes.
func (c *Chip) WakePin() {
	c.mu.Lock()
	c.wakePinFlag = true
	var h func()
	if c.wakeIRQ {
		h = c.wakeHandler
	}
	c.mu.Unlock()
	if h != nil {
		h()
	}
	c.wake(wakePin)
}

// Resets signals once per chip reset (coalesced).
func (c *Chip) Resets() <-chan struct{} { return c.resetCh }

// Asleep reports whether the core is halted in a low-power mode.
func (c *Chip) Asleep() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.asleep
}

// WaitAsleep polls until the core halts or d elapses.
func (c *Chip) WaitAsleep(d time.Duration) bool {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if c.Asleep() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return c.Asleep()
}

// Run advances the watchdog by ticks every period until ctx ends.
func (c *Chip) Run(ctx context.Context, period time.Duration, ticks uint32) {
	tk := time.NewTicker(period)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			c.Advance(ticks)
		}
	}
}

// -----------------------------------------------------------------------------
// Snapshot
// -----------------------------------------------------------------------------

// State is a copy of the observable register state.
type State struct {
	ResetCause      types.ResetBits
	DebugEnabled    bool
	Protection      hw.ModeProtection
	FlashWake       bool
	FlashDoze       bool
	FlashDisable    bool
	SRAMOff         uint32
	Entries         []hw.PowerDomainConfig
	BusyPolls       int
	ActiveAnalogOff hw.AnalogModules
	LPAnalogOff     hw.AnalogModules
	DetectorsOn     int
	Active          hw.ActiveRegulators
	ActiveSet       bool
	LowPower        hw.LowPowerRegulators
	LowPowerSet     bool
	WakeUpDelay     uint16
	GlitchActiveOff bool
	GlitchLPOff     bool
	CoreIVS         bool
	CoreLDO         bool
	LPRequest       hw.LowPowerRequest
	IOIsolation     bool
	DomainLPFlags   [2]bool
	WDTEnabled      bool
	WDTConfig       hw.WatchdogConfig
	WDTCounter      uint32
	WDTFlags        hw.WatchdogFlags
	WDTIRQEnabled   bool
	WDTFeeds        int
	FRO16k          bool
	FRO16kUngated   bool
	Bandgap         bool
	BandgapRefresh  bool
	WakePinFlag     bool
	WDTClockOn      bool
	Boots           int
	Resets          int
}

func (c *Chip) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	on := 0
	for _, d := range c.detectors {
		if d {
			on++
		}
	}
	entries := make([]hw.PowerDomainConfig, len(c.entries))
	copy(entries, c.entries)
	return State{
		ResetCause:      c.srs,
		DebugEnabled:    c.debug,
		Protection:      c.protection,
		FlashWake:       c.flash[0],
		FlashDoze:       c.flash[1],
		FlashDisable:    c.flash[2],
		SRAMOff:         c.sramOff,
		Entries:         entries,
		BusyPolls:       c.busyPolls,
		ActiveAnalogOff: c.activeAnalogOff,
		LPAnalogOff:     c.lpAnalogOff,
		DetectorsOn:     on,
		Active:          c.active,
		ActiveSet:       c.activeSet,
		LowPower:        c.lowPower,
		LowPowerSet:     c.lowPowerSet,
		WakeUpDelay:     c.wakeDelay,
		GlitchActiveOff: c.glitchActiveOff,
		GlitchLPOff:     c.glitchLPOff,
		CoreIVS:         c.coreIVS,
		CoreLDO:         c.coreLDO,
		LPRequest:       c.lpReq,
		IOIsolation:     c.iso,
		DomainLPFlags:   c.lpReqFlags,
		WDTEnabled:      c.wdtEnabled,
		WDTConfig:       c.wdtCfg,
		WDTCounter:      c.tv,
		WDTFlags:        c.wdtFlags,
		WDTIRQEnabled:   c.irqEnabled,
		WDTFeeds:        c.feeds,
		FRO16k:          c.fro16k,
		FRO16kUngated:   c.fro16kUngated,
		Bandgap:         c.bandgap,
		BandgapRefresh:  c.bandgapRefr,
		WakePinFlag:     c.wakePinFlag,
		WDTClockOn:      c.wdtClockOn,
		Boots:           c.boots,
		Resets:          c.resets,
	}
}
