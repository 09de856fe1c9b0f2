// services/power/service.go
package power

import (
	"context"
	"errors"
	"sync"
	"time"

	"powerswitch-go/bus"
	"powerswitch-go/errcode"
	"powerswitch-go/services/power/internal/console"
	"powerswitch-go/services/power/internal/hw"
	"powerswitch-go/services/power/internal/modes"
	"powerswitch-go/services/power/internal/regulator"
	"powerswitch-go/services/power/internal/selector"
	"powerswitch-go/services/power/internal/watchdog"
	"powerswitch-go/types"
	"powerswitch-go/x/timex"
)

var (
	topicConfigPower = bus.T("config", "power")

	TopicState     = bus.T("power", "state")
	TopicWatchdog  = bus.T("power", "watchdog")
	TopicReset     = bus.T("power", "reset")
	TopicConfig    = bus.T("power", "config")
	TopicStatusGet = bus.T("power", "status", "get")
)

// How long Run waits for a retained config/power before using defaults.
const configWait = 500 * time.Millisecond

type Options struct {
	Chip    hw.Chip
	Console *console.Console

	// Config overrides config/power from the bus.
	Config *types.PowerConfig

	// UrgentSave runs in interrupt context on a watchdog warning.
	UrgentSave func()
}

// Service is the power-mode driver loop.
type Service struct {
	conn *bus.Connection
	chip hw.Chip
	con  *console.Console
	opts Options
	cfg  types.PowerConfig

	sup  *watchdog.Supervisor
	reg  *regulator.Configurator
	mach *modes.Machine
	sel  *selector.Selector

	loop uint32

	mu     sync.Mutex // guards status
	status types.StatusReply
}

func New(conn *bus.Connection, opts Options) *Service {
	return &Service{conn: conn, chip: opts.Chip, con: opts.Console, opts: opts}
}

// Run boots the demo and loops until ctx ends, the console fails, or the
// chip resets under a pending low-power entry (errcode.Reset).
func (s *Service) Run(ctx context.Context) error {
	cfg, err := s.loadConfig(ctx)
	if err != nil {
		return err
	}
	s.setup(cfg)

	req := s.conn.Subscribe(TopicStatusGet)
	defer s.conn.Unsubscribe(req)
	go s.serveStatus(ctx, req)

	s.boot()
	for {
		if err := s.iterate(ctx); err != nil {
			println("[power] loop stopped:", err.Error())
			return err
		}
	}
}

func (s *Service) loadConfig(ctx context.Context) (types.PowerConfig, error) {
	if s.opts.Config != nil {
		return s.opts.Config.WithDefaults(), nil
	}
	sub := s.conn.Subscribe(topicConfigPower)
	defer s.conn.Unsubscribe(sub)

	t := time.NewTimer(configWait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return types.PowerConfig{}, ctx.Err()
	case m := <-sub.Channel():
		if pc, ok := m.Payload.(types.PowerConfig); ok {
			return pc.WithDefaults(), nil
		}
		println("[power] config/power: unexpected payload, using defaults")
	case <-t.C:
		println("[power] no config/power, using defaults")
	}
	return types.DefaultPowerConfig(), nil
}

func (s *Service) setup(cfg types.PowerConfig) {
	s.cfg = cfg
	s.sup = watchdog.New(s.chip.WDT, s.chip.CMC, s.con)
	s.sup.UrgentSave = s.opts.UrgentSave

	s.reg = regulator.New(s.chip.SPC, s.chip.VBAT, s.chip.CMC, s.con)
	s.reg.SetWakeUpDelay(cfg.WakeUpDelay)

	s.mach = modes.New(s.chip, s.sup, cfg)
	s.mach.BeforeEntry = s.beforeEntry

	s.sel = selector.New(s.con, s.con)
}

func (s *Service) boot() {
	s.chip.Clocks.EnableWatchdogClock()
	if hz := s.chip.Clocks.WatchdogClockHz(); hz != s.cfg.WDTClockHz {
		println("[power] watchdog clock", hz, "Hz, board setup says", s.cfg.WDTClockHz)
	}

	cause := s.chip.CMC.ResetCause()
	s.publishReset(cause)
	// Pads stay latched after a Power Down wake until released.
	if cause.Has(types.ResetWakeUp) {
		s.chip.SPC.ClearPeriphIOIsolationFlag()
	}

	s.reg.ApplyBackup()
	s.reg.ArmWakeupPin()
	s.applyRegulators()

	s.con.Printf("\r\nNormal Boot.\r\n")
	s.publishState(types.ModeActive, types.PhaseBoot)
}

func (s *Service) iterate(ctx context.Context) error {
	s.loop++
	if s.loop > 1 {
		s.applyRegulators()
	}

	if s.chip.CMC.ResetCause().Has(types.ResetWakeUp) {
		s.chip.SPC.ClearPeriphIOIsolationFlag()
	}
	s.chip.SPC.ClearDomainLowPowerRequestFlag(hw.MainDomain)
	s.chip.SPC.ClearDomainLowPowerRequestFlag(hw.WakeDomain)
	s.chip.SPC.ClearLowPowerRequest()

	s.reg.ApplyCoreMode()

	s.con.Printf("\r\n###########################    Power Mode Switch Demo    ###########################\r\n")
	s.con.Printf("    Power mode: Active\r\n")
	s.publishState(types.ModeActive, types.PhaseActive)

	mode, err := s.sel.Select(ctx)
	if err != nil {
		return err
	}

	if err := s.switchMode(mode); err != nil {
		return err
	}

	s.con.Printf("\r\nNext loop.\r\n")
	return nil
}

// switchMode runs one transition and the post-switch hook. Only a chip
// reset is returned; other failures are logged and the loop continues.
func (s *Service) switchMode(mode types.PowerMode) error {
	if mode != types.ModeActive {
		s.publishState(mode, types.PhaseEntering)
	}

	err := s.mach.Enter(mode)
	if errors.Is(err, errcode.Reset) {
		return err
	}
	if err != nil {
		println("[power] enter", mode.String(), "failed:", err.Error())
	}

	s.postSwitch()

	if mode != types.ModeActive {
		// Without reset the watchdog keeps running; feed it inside the window.
		if cfg, armed := s.sup.Armed(); armed && !cfg.ResetEnable {
			s.sup.Refresh()
		}
		s.publishWatchdog()
		s.publishState(mode, types.PhaseResumed)
	}
	return nil
}

func (s *Service) beforeEntry(mode types.PowerMode) {
	s.publishWatchdog()
	if s.cfg.KeepConsoleInDeepModes {
		return
	}
	if mode == types.ModeDeepSleep || mode == types.ModePowerDown {
		if err := s.con.Deinit(); err != nil {
			println("[power] console deinit:", err.Error())
		}
	}
}

// postSwitch restores the run clock, pins and debug console, which may have
// lost state in the deeper modes.
func (s *Service) postSwitch() {
	s.chip.Clocks.BootDefault()
	if err := s.con.Reinit(); err != nil {
		println("[power] console reinit:", err.Error())
	}
}

func (s *Service) applyRegulators() {
	st := types.ConfigStatus{OK: true}
	if err := s.reg.Apply(); err != nil {
		// Partial configuration is left in place.
		st = types.ConfigStatus{OK: false, Stage: opOf(err), Error: string(errcode.Of(err))}
	}
	s.mu.Lock()
	s.status.Config = st
	s.mu.Unlock()
	s.publish(TopicConfig, st)
}

func opOf(err error) string {
	var e *errcode.E
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// ---- status ----

func (s *Service) publish(t bus.Topic, payload any) {
	s.conn.Publish(s.conn.NewMessage(t, payload, true))
}

func (s *Service) publishState(mode types.PowerMode, phase types.Phase) {
	st := types.PowerState{Mode: mode.String(), Phase: phase, Loop: s.loop, TSms: timex.NowMs(), WakePins: s.reg.WakeupPinEvents()}
	s.mu.Lock()
	s.status.State = st
	s.mu.Unlock()
	s.publish(TopicState, st)
}

func (s *Service) publishWatchdog() {
	st := s.sup.Stats()
	s.mu.Lock()
	s.status.Watchdog = st
	s.mu.Unlock()
	s.publish(TopicWatchdog, st)
}

func (s *Service) publishReset(cause types.ResetBits) {
	ri := types.ResetInfo{
		Raw:      uint32(cause),
		WakeUp:   cause.Has(types.ResetWakeUp),
		Watchdog: cause.Has(types.ResetWWDT0),
	}
	s.mu.Lock()
	s.status.Reset = ri
	s.mu.Unlock()
	s.publish(TopicReset, ri)
}

// Status returns the last published values.
func (s *Service) Status() types.StatusReply {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Service) serveStatus(ctx context.Context, sub *bus.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-sub.Channel():
			if !ok {
				return
			}
			s.conn.Reply(m, s.Status(), false)
		}
	}
}
