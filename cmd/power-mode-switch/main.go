//go:build !windows

// Command power-mode-switch runs the power mode switch demo against the
// simulated chip on a workstation. Keys typed on stdin select the mode; the
// watchdog counts in real time, and a chip reset restarts the demo with the
// reset cause latched, as a power-on would on hardware.
//
//	go run ./cmd/power-mode-switch
//
// SIGUSR1 asserts the wake-up pin.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"powerswitch-go/bus"
	"powerswitch-go/errcode"
	"powerswitch-go/services/config"
	"powerswitch-go/services/config/setups"
	"powerswitch-go/services/monitor"
	"powerswitch-go/services/power"
	"powerswitch-go/services/power/platform"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	setup := setups.HostSim
	board, chip := platform.Simulated(os.Stdin, os.Stdout, setup.Power.WDTClockHz)

	b := bus.NewBus(16)
	cfgCtx := context.WithValue(ctx, config.CtxDeviceKey, setup.Device)
	config.NewConfigService().Start(cfgCtx, b.NewConnection("config"))
	(&monitor.Service{}).Start(ctx, b.NewConnection("monitor"))

	go board.Clock(ctx)

	wake := make(chan os.Signal, 1)
	signal.Notify(wake, syscall.SIGUSR1)
	go func() {
		for range wake {
			chip.WakePin()
		}
	}()

	con, err := board.Console()
	if err != nil {
		println("[main] console:", err.Error())
		os.Exit(1)
	}
	conn := b.NewConnection("power")

	for {
		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- power.New(conn, power.Options{Chip: board.Chip, Console: con}).Run(runCtx) }()

		var err error
		select {
		case err = <-done:
		case <-board.Resets:
			// Reset while the loop was running; stop it and start over.
			cancel()
			err = <-done
			if err == nil || errors.Is(err, context.Canceled) {
				err = errcode.Reset
			}
		}
		cancel()

		switch {
		case errors.Is(err, errcode.Reset):
			println("[main] chip reset, rebooting")
			drain(board.Resets)
			if !con.Ready() {
				if err := con.Reinit(); err != nil {
					println("[main] console:", err.Error())
					os.Exit(1)
				}
			}
		case ctx.Err() != nil:
			return
		default:
			println("[main] power service stopped:", err.Error())
			os.Exit(1)
		}
	}
}

func drain(ch <-chan struct{}) {
	select {
	case <-ch:
	default:
	}
}
