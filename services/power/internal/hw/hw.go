// services/power/internal/hw/hw.go
package hw

import "powerswitch-go/types"

// Each peripheral is reached through one handle with one owner. The watchdog
// registers are written only by the supervisor's foreground path and
// read/cleared only by its interrupt handler; nothing else holds a Watchdog.

// ---------------- Core mode controller (CMC) ----------------

// ClockMode selects which clocks are gated on low-power entry.
type ClockMode uint8

const (
	ClockNoGate ClockMode = iota
	ClockGateCore
	ClockGateAllSystem
)

// DomainState is the low-power state requested for one power domain.
type DomainState uint8

const (
	DomainActiveOrSleep DomainState = iota
	DomainDeepSleep
	DomainPowerDown
)

// PowerDomainConfig is built fresh for every transition.
type PowerDomainConfig struct {
	Clock ClockMode
	Main  DomainState
	Wake  DomainState
}

// ModeProtection is the set of low-power modes the CMC will allow.
type ModeProtection uint8

const (
	AllowDeepSleep ModeProtection = 1 << iota
	AllowPowerDown
	AllowDeepPowerDown

	AllowAllLowPowerModes = AllowDeepSleep | AllowPowerDown | AllowDeepPowerDown
)

type ModeController interface {
	ResetCause() types.ResetBits
	EnableDebugOperation(on bool)
	SetPowerModeProtection(allowed ModeProtection)
	// ConfigFlashMode: wake flash on access, doze flash while core clock
	// gated, disable flash entirely.
	ConfigFlashMode(wake, doze, disable bool)
	PowerOffSRAMLowPowerOnly(mask uint32)
	// EnterLowPowerMode halts the core until a wake event; execution then
	// continues after the call.
	EnterLowPowerMode(cfg PowerDomainConfig) error
}

// ---------------- System power controller (SPC) ----------------

// AnalogModules is a mask of SPC-controlled analog blocks.
type AnalogModules uint32

const AllAnalogModules AnalogModules = 0xFFFF_FFFF

// Detector is one voltage/brownout detector.
type Detector uint8

const (
	CoreHighVoltage Detector = iota
	CoreLowVoltage
	SystemHighVoltage
	SystemLowVoltage
	IOHighVoltage
	IOLowVoltage
)

// Detectors lists every detector in register order.
var Detectors = [...]Detector{
	CoreHighVoltage, CoreLowVoltage,
	SystemHighVoltage, SystemLowVoltage,
	IOHighVoltage, IOLowVoltage,
}

type Level uint8

const (
	LevelRetention Level = iota
	LevelLow
	LevelMid
	LevelNormal
	LevelOverdrive
)

type Drive uint8

const (
	DriveLow Drive = iota
	DriveNormal
)

type BandgapMode uint8

const (
	BandgapDisabled BandgapMode = iota
	BandgapEnabledBufferDisabled
	BandgapEnabledBufferEnabled
)

type ActiveRegulators struct {
	Bandgap      BandgapMode
	LPBuff       bool
	DCDCVoltage  Level
	DCDCDrive    Drive
	SysLDOVolt   Level
	SysLDODrive  Drive
	CoreLDOVolt  Level
	CoreLDODrive Drive
}

type LowPowerRegulators struct {
	LPIREF       bool
	Bandgap      BandgapMode
	LPBuff       bool
	CoreIVS      bool
	DCDCVoltage  Level
	DCDCDrive    Drive
	SysLDODrive  Drive
	CoreLDOVolt  Level
	CoreLDODrive Drive
}

type LPReqOverride uint8

const (
	LPReqNotForced LPReqOverride = iota
	LPReqForcedLow
	LPReqForcedHigh
)

type Polarity uint8

const (
	HighTrue Polarity = iota
	LowTrue
)

// LowPowerRequest configures the observable LP request output.
type LowPowerRequest struct {
	Enable   bool
	Override LPReqOverride
	Polarity Polarity
}

// Domain is an SPC power domain.
type Domain uint8

const (
	MainDomain Domain = iota
	WakeDomain
)

type PowerController interface {
	Busy() bool

	DisableActiveModeAnalogModules(m AnalogModules)
	EnableActiveModeDetector(d Detector, on bool)
	SetActiveModeRegulators(cfg ActiveRegulators) error
	DisableActiveModeVddCoreGlitchDetect(disable bool)

	DisableLowPowerModeAnalogModules(m AnalogModules)
	SetLowPowerWakeUpDelay(delay uint16)
	SetLowPowerModeRegulators(cfg LowPowerRegulators) error
	DisableLowPowerModeVddCoreGlitchDetect(disable bool)
	EnableLowPowerModeCoreIVS(on bool)

	EnableCoreLDORegulator(on bool)
	SetLowPowerRequestConfig(cfg LowPowerRequest)

	ClearPeriphIOIsolationFlag()
	ClearDomainLowPowerRequestFlag(d Domain)
	ClearLowPowerRequest()
}

// ---------------- Windowed watchdog (WWDT) ----------------

type WatchdogFlags uint8

const (
	FlagTimeout WatchdogFlags = 1 << iota
	FlagWarning
)

// WatchdogConfig values are in watchdog-clock ticks.
type WatchdogConfig struct {
	TimeoutTicks uint32
	WarningTicks uint32
	WindowTicks  uint32
	ClockHz      uint32
	ResetEnable  bool
}

type Watchdog interface {
	// Init programs the peripheral and starts the countdown.
	Init(cfg WatchdogConfig)
	Flags() WatchdogFlags
	ClearFlags(f WatchdogFlags)
	// Counter is the current countdown value (TV).
	Counter() uint32
	// Window is the programmed window threshold.
	Window() uint32
	Feed()
	// SetHandler registers the interrupt callback; EnableIRQ unmasks it.
	SetHandler(fn func())
	EnableIRQ()
}

// ---------------- Backup domain (VBAT) ----------------

type BackupDomain interface {
	FRO16kEnabled() bool
	EnableFRO16k(on bool)
	UngateFRO16kToVddSys()
	BandgapEnabled() bool
	EnableBandgapRefresh(on bool)
	EnableBandgap(on bool)
	WakeupPinFlag() bool
	ClearWakeupPinFlag()
	// SetWakeupHandler registers the wake-up pin callback; EnableWakeupIRQ
	// unmasks it.
	SetWakeupHandler(fn func())
	EnableWakeupIRQ()
}

// ---------------- Cache and clocks ----------------

type CodeCache interface {
	InvalidateCodeCache()
}

type Clocks interface {
	// EnableWatchdogClock sets the WWDT divider to 1 and enables FRO 1 MHz.
	EnableWatchdogClock()
	WatchdogClockHz() uint32
	// BootDefault restores pin mux and the 48 MHz run clock.
	BootDefault()
}

// Chip groups the handles for one device. Each component takes only the
// handles it owns.
type Chip struct {
	WDT    Watchdog
	CMC    ModeController
	SPC    PowerController
	VBAT   BackupDomain
	Cache  CodeCache
	Clocks Clocks
}
