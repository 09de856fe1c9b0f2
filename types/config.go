package types

// Power demo configuration supplied on topic "config/power".
// Zero numeric fields take the defaults in DefaultPowerConfig; the zero
// value of every flag is the default behaviour.
type PowerConfig struct {
	// Watchdog input clock; the peripheral divides it by 4.
	WDTClockHz uint32 `json:"wdt_clock_hz"`
	// SRAM arrays powered off in Deep Sleep / Power Down.
	RAMArraysDeepSleep uint32 `json:"ram_arrays_deep_sleep"`
	RAMArraysPowerDown uint32 `json:"ram_arrays_power_down"`
	// Low-power wake-up delay written to the power controller.
	WakeUpDelay uint16 `json:"wakeup_delay"`
	// Keep the debug console pins muxed through Deep Sleep / Power Down.
	KeepConsoleInDeepModes bool `json:"keep_console_in_deep_modes"`
}

// Monitor configuration supplied on topic "config/monitor".
type MonitorConfig struct {
	Verbose bool `json:"verbose"` // also log watchdog counters
	// Heartbeat period in seconds; 0 disables it.
	HeartbeatS int `json:"heartbeat_s"`
}

// DefaultPowerConfig matches the FRDM board bring-up: FRO 1 MHz watchdog
// clock, SRAM mask 0x3F0077FE for both deep modes.
func DefaultPowerConfig() PowerConfig {
	return PowerConfig{
		WDTClockHz:         1_000_000,
		RAMArraysDeepSleep: 0x3F0077FE,
		RAMArraysPowerDown: 0x3F0077FE,
		WakeUpDelay:        0xFF,
	}
}

// WithDefaults fills zero fields from DefaultPowerConfig.
func (c PowerConfig) WithDefaults() PowerConfig {
	d := DefaultPowerConfig()
	if c.WDTClockHz == 0 {
		c.WDTClockHz = d.WDTClockHz
	}
	if c.RAMArraysDeepSleep == 0 {
		c.RAMArraysDeepSleep = d.RAMArraysDeepSleep
	}
	if c.RAMArraysPowerDown == 0 {
		c.RAMArraysPowerDown = d.RAMArraysPowerDown
	}
	if c.WakeUpDelay == 0 {
		c.WakeUpDelay = d.WakeUpDelay
	}
	return c
}

// BoardSetup is everything the config service publishes for one board.
// Each field is retained on config/<key>.
type BoardSetup struct {
	Device  string
	Power   PowerConfig
	Monitor MonitorConfig
}
