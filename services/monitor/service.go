package monitor

import (
	"context"
	"time"

	"powerswitch-go/bus"
	"powerswitch-go/types"
	"powerswitch-go/x/conv"
)

var (
	topicConfigMonitor = bus.T("config", "monitor")
	topicPower         = bus.T("power", "#")
)

// Service logs power status changes from the bus, and an optional heartbeat.
type Service struct {
	// Log receives one line per event. Defaults to println.
	Log func(line string)

	cfg   types.MonitorConfig
	state types.PowerState
}

func (s *Service) log(line string) {
	if s.Log != nil {
		s.Log(line)
		return
	}
	println("[monitor]", line)
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigMonitor)
	defer conn.Unsubscribe(cfgSub)
	powSub := conn.Subscribe(topicPower)
	defer conn.Unsubscribe(powSub)

	tick := time.NewTicker(time.Hour)
	tick.Stop()
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log("stopping")
			return
		case <-tick.C:
			s.log("alive mode=" + s.state.Mode + " loop=" + string(conv.Utoa(make([]byte, 20), uint64(s.state.Loop))))
		case msg := <-cfgSub.Channel():
			if c, ok := msg.Payload.(types.MonitorConfig); ok {
				s.cfg = c
				if c.HeartbeatS > 0 {
					tick.Reset(time.Duration(c.HeartbeatS) * time.Second)
				} else {
					tick.Stop()
				}
			}
		case msg := <-powSub.Channel():
			if st, ok := msg.Payload.(types.PowerState); ok {
				s.state = st
			}
			if line, ok := s.describe(msg.Payload); ok {
				s.log(line)
			}
		}
	}
}

// describe renders one status payload; ok is false for payloads not logged.
func (s *Service) describe(p any) (string, bool) {
	var num [20]byte
	switch v := p.(type) {
	case types.PowerState:
		return "state mode=" + v.Mode + " phase=" + string(v.Phase) +
			" loop=" + string(conv.Utoa(num[:], uint64(v.Loop))), true

	case types.ResetInfo:
		var hex [8]byte
		line := "reset 0x" + string(conv.U32Hex(hex[:], v.Raw))
		it := types.NewBitIter(types.ResetBits(v.Raw), types.ResetCauseTable[:])
		for name, ok := it.Next(); ok; name, ok = it.Next() {
			line += " " + name
		}
		return line, true

	case types.ConfigStatus:
		if v.OK {
			return "config ok", true
		}
		return "config failed stage=" + v.Stage + " err=" + v.Error, true

	case types.WatchdogStatus:
		if !s.cfg.Verbose {
			return "", false
		}
		line := "watchdog reset=" + flag(v.ResetEnabled) +
			" timeout=" + string(conv.Utoa(num[:], uint64(v.TimeoutTicks)))
		line += " warnings=" + string(conv.Utoa(num[:], uint64(v.Warnings)))
		line += " timeouts=" + string(conv.Utoa(num[:], uint64(v.Timeouts)))
		line += " refreshes=" + string(conv.Utoa(num[:], uint64(v.Refreshes)))
		return line, true
	}
	return "", false
}

func flag(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// Start the monitor service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
