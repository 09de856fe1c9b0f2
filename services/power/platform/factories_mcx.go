// services/power/platform/factories_mcx.go
//go:build tinygo && mcxn947

package platform

import (
	"machine"

	"powerswitch-go/services/power/platform/mcx"
)

// Default returns the FRDM-MCXN947 board: on-chip controllers and the debug
// UART on machine.Serial.
func Default() Board {
	return Board{
		Name:      "frdm-mcxn947",
		Chip:      mcx.Handles(),
		Transport: &serialTransport{s: machineSerial{machine.Serial}, release: releaseConsolePins},
	}
}

type machineSerial struct{ machine.Serialer }

func (m machineSerial) Configure(baud uint32) error {
	return m.Serialer.Configure(machine.UARTConfig{BaudRate: baud})
}

// releaseConsolePins disconnects the debug UART pads; Open remuxes them.
func releaseConsolePins() {
	for _, p := range []machine.Pin{machine.UART_TX_PIN, machine.UART_RX_PIN} {
		p.Configure(machine.PinConfig{Mode: machine.PinInputAnalog})
	}
}
