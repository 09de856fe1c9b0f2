// Package modes is the power-mode state machine. The core always resumes in
// Active: Enter returns only after a wake event.
package modes

import (
	"powerswitch-go/errcode"
	"powerswitch-go/services/power/internal/hw"
	"powerswitch-go/types"
)

// Guard is armed immediately before every low-power entry.
type Guard interface {
	Arm(peripheralHz uint32) (hw.WatchdogConfig, error)
}

// ClockSource reports the guard's input clock.
type ClockSource interface {
	WatchdogClockHz() uint32
}

// Plan is everything a transition does besides arming the guard.
type Plan struct {
	LowPower        bool // false: no hardware entry (Active)
	Domain          hw.PowerDomainConfig
	RAMOff          uint32 // SRAM arrays powered off for the entry; 0 for none
	InvalidateCache bool
	CoreIVS         bool
}

// Plans builds the transition table. It is total over types.Modes.
func Plans(cfg types.PowerConfig) [types.ModeCount]Plan {
	cfg = cfg.WithDefaults()
	var p [types.ModeCount]Plan

	p[types.ModeActive.Index()] = Plan{
		Domain: hw.PowerDomainConfig{Clock: hw.ClockNoGate, Main: hw.DomainActiveOrSleep, Wake: hw.DomainActiveOrSleep},
	}
	p[types.ModeSleep.Index()] = Plan{
		LowPower: true,
		Domain:   hw.PowerDomainConfig{Clock: hw.ClockGateCore, Main: hw.DomainActiveOrSleep, Wake: hw.DomainActiveOrSleep},
	}
	p[types.ModeDeepSleep.Index()] = Plan{
		LowPower: true,
		Domain:   hw.PowerDomainConfig{Clock: hw.ClockGateAllSystem, Main: hw.DomainDeepSleep, Wake: hw.DomainActiveOrSleep},
		RAMOff:   cfg.RAMArraysDeepSleep,
	}
	// Cache contents do not survive Power Down retention; core IVS is only
	// valid at this depth.
	p[types.ModePowerDown.Index()] = Plan{
		LowPower:        true,
		Domain:          hw.PowerDomainConfig{Clock: hw.ClockGateAllSystem, Main: hw.DomainPowerDown, Wake: hw.DomainActiveOrSleep},
		RAMOff:          cfg.RAMArraysPowerDown,
		InvalidateCache: true,
		CoreIVS:         true,
	}
	return p
}

var defaultPlans = Plans(types.DefaultPowerConfig())

// DomainConfigFor returns the domain configuration entered for mode.
func DomainConfigFor(mode types.PowerMode) (hw.PowerDomainConfig, error) {
	if !mode.Valid() {
		return hw.PowerDomainConfig{}, errcode.InvalidMode
	}
	return defaultPlans[mode.Index()].Domain, nil
}

type Machine struct {
	cmc   hw.ModeController
	spc   hw.PowerController
	cache hw.CodeCache
	clk   ClockSource
	guard Guard
	plans [types.ModeCount]Plan

	// BeforeEntry, if set, runs after the guard is armed and before any
	// entry action.
	BeforeEntry func(mode types.PowerMode)

	entries [types.ModeCount]uint32
}

func New(h hw.Chip, guard Guard, cfg types.PowerConfig) *Machine {
	return &Machine{
		cmc:   h.CMC,
		spc:   h.SPC,
		cache: h.Cache,
		clk:   h.Clocks,
		guard: guard,
		plans: Plans(cfg),
	}
}

// PlanFor returns the plan Enter will run for mode.
func (m *Machine) PlanFor(mode types.PowerMode) (Plan, error) {
	if !mode.Valid() {
		return Plan{}, &errcode.E{C: errcode.InvalidMode, Op: "modes.plan", Msg: string(rune(mode))}
	}
	return m.plans[mode.Index()], nil
}

// Enter drives the chip into mode and returns after it wakes. Active is a
// no-op. Every other mode arms the guard first, on every entry.
func (m *Machine) Enter(mode types.PowerMode) error {
	p, err := m.PlanFor(mode)
	if err != nil {
		return err
	}
	if !p.LowPower {
		return nil
	}

	if _, err := m.guard.Arm(m.clk.WatchdogClockHz()); err != nil {
		return errcode.Wrap("modes.arm", err)
	}
	if m.BeforeEntry != nil {
		m.BeforeEntry(mode)
	}
	if p.RAMOff != 0 {
		m.cmc.PowerOffSRAMLowPowerOnly(p.RAMOff)
	}
	if p.InvalidateCache {
		m.cache.InvalidateCodeCache()
	}
	if p.CoreIVS {
		m.spc.EnableLowPowerModeCoreIVS(true)
	}

	m.entries[mode.Index()]++
	if err := m.cmc.EnterLowPowerMode(p.Domain); err != nil {
		return errcode.Wrap("modes.enter", err)
	}
	return nil
}

// Entries reports how many times mode has been entered.
func (m *Machine) Entries(mode types.PowerMode) uint32 {
	if !mode.Valid() {
		return 0
	}
	return m.entries[mode.Index()]
}
