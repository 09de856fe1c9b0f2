// services/power/internal/watchdog/supervisor.go
package watchdog

import (
	"io"
	"sync/atomic"

	"powerswitch-go/errcode"
	"powerswitch-go/services/power/internal/hw"
	"powerswitch-go/types"
	"powerswitch-go/x/fmtx"
	"powerswitch-go/x/mathx"
)

const (
	// The WWDT divides its input clock by 4.
	preDivider = 4

	timeoutSeconds = 4
	windowSeconds  = 1

	// WarningTicks is the warning interrupt point before timeout.
	WarningTicks = 512

	// Peripheral limits: 24-bit TC/WINDOW, TC minimum 0xFF, 10-bit WARNINT.
	maxCounter = 0xFF_FFFF
	minTimeout = 0xFF
	maxWarning = 0x3FF
)

// ResetSource reads the latched system reset status.
type ResetSource interface {
	ResetCause() types.ResetBits
}

// Supervisor owns the watchdog handle. Arm and Refresh run in the
// foreground; OnInterrupt runs in interrupt context and only clears flags.
type Supervisor struct {
	wdt   hw.Watchdog
	reset ResetSource
	out   io.Writer

	// UrgentSave, if set, runs from the interrupt handler when the warning
	// fires. It must not block. Set it before the first Arm.
	UrgentSave func()

	cfg       hw.WatchdogConfig
	armed     bool
	refreshes uint32

	warnings atomic.Uint32
	timeouts atomic.Uint32
}

func New(w hw.Watchdog, rs ResetSource, out io.Writer) *Supervisor {
	if out == nil {
		out = io.Discard
	}
	return &Supervisor{wdt: w, reset: rs, out: out}
}

// Config derives the watchdog configuration for a peripheral clock. It has
// no side effects. adjusted reports that a value had to be clamped to keep
// the peripheral limits or warning < window.
func Config(peripheralHz uint32, resetEnable bool) (cfg hw.WatchdogConfig, adjusted bool) {
	tick := uint64(peripheralHz / preDivider)

	timeout := mathx.Clamp(tick*timeoutSeconds, minTimeout, maxCounter)
	window := mathx.Min(tick*windowSeconds, timeout)
	warning := uint64(WarningTicks)

	adjusted = timeout != tick*timeoutSeconds || window != tick*windowSeconds
	if warning >= window {
		// The warning could never fire inside the window.
		if window > 0 {
			warning = window - 1
		} else {
			warning = 0
		}
		adjusted = true
	}
	warning = mathx.Min(warning, maxWarning)

	return hw.WatchdogConfig{
		TimeoutTicks: uint32(timeout),
		WarningTicks: uint32(warning),
		WindowTicks:  uint32(window),
		ClockHz:      peripheralHz,
		ResetEnable:  resetEnable,
	}, adjusted
}

// Arm (re)initialises the watchdog for a low-power entry. The counter starts
// on return. After a watchdog-caused reset the watchdog is still started,
// but with reset-on-timeout disabled.
func (s *Supervisor) Arm(peripheralHz uint32) (hw.WatchdogConfig, error) {
	if peripheralHz == 0 {
		return hw.WatchdogConfig{}, &errcode.E{C: errcode.InvalidParams, Op: "watchdog.arm", Msg: "watchdog clock not running"}
	}

	resetEnable := true
	if s.DetectPriorTimeoutReset() {
		fmtx.Fprintf(s.out, "Watchdog reset occurred\r\n")
		resetEnable = false
	}
	mode := "Time out reset"
	if !resetEnable {
		mode = "Window mode refresh"
	}
	fmtx.Fprintf(s.out, "\r\n--- %s test start ---\r\n", mode)

	cfg, adjusted := Config(peripheralHz, resetEnable)
	if adjusted {
		fmtx.Fprintf(s.out, "Watchdog clamped: timeout %d window %d warning %d\r\n",
			cfg.TimeoutTicks, cfg.WindowTicks, cfg.WarningTicks)
	}

	s.wdt.SetHandler(s.OnInterrupt)
	s.wdt.Init(cfg)
	s.wdt.EnableIRQ()

	s.cfg = cfg
	s.armed = true
	return cfg, nil
}

// OnInterrupt is the watchdog interrupt handler. Every observed flag is
// cleared or the interrupt re-fires.
func (s *Supervisor) OnInterrupt() {
	st := s.wdt.Flags()

	// The chip resets before this is seen when reset is enabled.
	if st&hw.FlagTimeout != 0 {
		s.wdt.ClearFlags(hw.FlagTimeout)
		s.timeouts.Add(1)
	}

	// A feed did not happen before the warning point.
	if st&hw.FlagWarning != 0 {
		s.wdt.ClearFlags(hw.FlagWarning)
		s.warnings.Add(1)
		if s.UrgentSave != nil {
			s.UrgentSave()
		}
	}
}

// WaitForWindowOpen spins until the counter has dropped to the window
// threshold, after which a feed is accepted. There is no timeout.
func (s *Supervisor) WaitForWindowOpen() {
	for s.wdt.Counter() > s.wdt.Window() {
	}
}

// Refresh feeds the watchdog inside its window.
func (s *Supervisor) Refresh() {
	s.WaitForWindowOpen()
	s.wdt.Feed()
	s.refreshes++
}

// DetectPriorTimeoutReset reports whether the last reset was a watchdog timeout.
func (s *Supervisor) DetectPriorTimeoutReset() bool {
	return s.reset.ResetCause().Has(types.ResetWWDT0)
}

// Armed returns the last armed configuration.
func (s *Supervisor) Armed() (hw.WatchdogConfig, bool) { return s.cfg, s.armed }

func (s *Supervisor) Stats() types.WatchdogStatus {
	return types.WatchdogStatus{
		Armed:        s.armed,
		ResetEnabled: s.cfg.ResetEnable,
		ClockHz:      s.cfg.ClockHz,
		TimeoutTicks: s.cfg.TimeoutTicks,
		WarningTicks: s.cfg.WarningTicks,
		WindowTicks:  s.cfg.WindowTicks,
		Warnings:     s.warnings.Load(),
		Timeouts:     s.timeouts.Load(),
		Refreshes:    s.refreshes,
	}
}
