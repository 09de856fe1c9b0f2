// Firmware entry for the power mode switch demo. On hardware a chip reset
// restarts main, so the driver loop runs once per boot.
package main

import (
	"context"
	"time"

	"powerswitch-go/bus"
	"powerswitch-go/services/config"
	"powerswitch-go/services/monitor"
	"powerswitch-go/services/power"
	"powerswitch-go/services/power/platform"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	board := platform.Default()
	println("boot", board.Name)

	ctx := context.Background()
	if board.Clock != nil {
		go board.Clock(ctx)
	}

	b := bus.NewBus(16)
	config.NewConfigService().Start(ctx, b.NewConnection("config"))
	(&monitor.Service{}).Start(ctx, b.NewConnection("monitor"))

	con, err := board.Console()
	if err != nil {
		println("[main] console:", err.Error())
		return
	}
	err = power.New(b.NewConnection("power"), power.Options{Chip: board.Chip, Console: con}).Run(ctx)
	println("[main] power service stopped:", err.Error())
}
