// Package setups holds the typed board setups published by the config
// service.
package setups

import "powerswitch-go/types"

// FRDMMCXN947 is the FRDM-MCXN947 board: FRO 1 MHz watchdog clock and the
// debug console released in the deep modes.
var FRDMMCXN947 = types.BoardSetup{
	Device: "frdm-mcxn947",
	Power:  types.DefaultPowerConfig(),
}

// HostSim drives the simulated chip on a workstation.
var HostSim = types.BoardSetup{
	Device: "host-sim",
	Power: types.PowerConfig{
		WDTClockHz:         1_000_000,
		RAMArraysDeepSleep: 0x3F0077FE,
		RAMArraysPowerDown: 0x3F0077FE,
		WakeUpDelay:        0xFF,
	},
	Monitor: types.MonitorConfig{Verbose: true},
}

var ByDevice = map[string]types.BoardSetup{
	FRDMMCXN947.Device: FRDMMCXN947,
	HostSim.Device:     HostSim,
}
