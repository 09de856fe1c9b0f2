package types

// ------------------------
// Power modes
// ------------------------

// PowerMode is a target power state. The value is the menu key that selects
// it; modes are ordered from least to most power saving and occupy one
// contiguous code range.
type PowerMode byte

const (
	ModeActive    PowerMode = 'A'
	ModeSleep     PowerMode = 'B'
	ModeDeepSleep PowerMode = 'C'
	ModePowerDown PowerMode = 'D'

	ModeFirst = ModeActive
	ModeLast  = ModePowerDown
)

// ModeCount is the number of power modes.
const ModeCount = int(ModeLast-ModeFirst) + 1

// ModeInfo is the display record for one mode.
type ModeInfo struct {
	Mode PowerMode
	Name string
	Desc string
}

// Modes is indexed by PowerMode.Index().
var Modes = [ModeCount]ModeInfo{
	{ModeActive, "Active", "Active: Core clock is 48MHz, power consumption is about 7.8 mA."},
	{ModeSleep, "Sleep", "Sleep: CPU0 clock is off, System and Bus clock remain ON, power consumption is about 5.85 mA."},
	{ModeDeepSleep, "DeepSleep", "Deep Sleep: Core/System/Bus clock are gated off."},
	{ModePowerDown, "PowerDown", "Power Down: Core/System/Bus clock are gated off, both CORE_MAIN and CORE_WAKE power domains are put into state retention mode."},
}

func (m PowerMode) Valid() bool { return m >= ModeFirst && m <= ModeLast }

// Index is the zero-based position of m; only meaningful when m.Valid().
func (m PowerMode) Index() int { return int(m - ModeFirst) }

// Info returns the display record for m.
func (m PowerMode) Info() (ModeInfo, bool) {
	if !m.Valid() {
		return ModeInfo{}, false
	}
	return Modes[m.Index()], true
}

func (m PowerMode) String() string {
	if info, ok := m.Info(); ok {
		return info.Name
	}
	return "unknown"
}

// ModeFromKey case-folds a console key and maps it onto a mode.
func ModeFromKey(ch byte) (PowerMode, bool) {
	if ch >= 'a' && ch <= 'z' {
		ch -= 'a' - 'A'
	}
	m := PowerMode(ch)
	return m, m.Valid()
}

// ------------------------
// Retained status payloads
// ------------------------

// Phase of the driver loop as published on power/state.
type Phase string

const (
	PhaseBoot     Phase = "boot"
	PhaseActive   Phase = "active"
	PhaseEntering Phase = "entering"
	PhaseResumed  Phase = "resumed"
)

// Retained value: power/state
type PowerState struct {
	Mode  string `json:"mode"`
	Phase Phase  `json:"phase"`
	Loop  uint32 `json:"loop"`
	TSms  int64  `json:"ts_ms"`

	// WakePins counts wake-up pin interrupts since boot.
	WakePins uint32 `json:"wake_pins,omitempty"`
}

// Retained value: power/watchdog
type WatchdogStatus struct {
	Armed        bool   `json:"armed"`
	ResetEnabled bool   `json:"reset_enabled"`
	ClockHz      uint32 `json:"clock_hz"`
	TimeoutTicks uint32 `json:"timeout_ticks"`
	WarningTicks uint32 `json:"warning_ticks"`
	WindowTicks  uint32 `json:"window_ticks"`
	Warnings     uint32 `json:"warnings"`
	Timeouts     uint32 `json:"timeouts"`
	Refreshes    uint32 `json:"refreshes"`
}

// Retained value: power/reset
type ResetInfo struct {
	Raw      uint32 `json:"raw"`
	WakeUp   bool   `json:"wakeup"`
	Watchdog bool   `json:"watchdog"`
}

// Retained value: power/config
type ConfigStatus struct {
	OK    bool   `json:"ok"`
	Stage string `json:"stage,omitempty"`
	Error string `json:"error,omitempty"`
}

// Reply to power/status/get.
type StatusReply struct {
	State    PowerState     `json:"state"`
	Watchdog WatchdogStatus `json:"watchdog"`
	Reset    ResetInfo      `json:"reset"`
	Config   ConfigStatus   `json:"config"`
}

// ------------------------
// Reset cause (system reset status register)
// ------------------------

type ResetBits uint32

const (
	ResetWakeUp   ResetBits = 1 << 0
	ResetPOR      ResetBits = 1 << 1
	ResetVD       ResetBits = 1 << 2
	ResetWarm     ResetBits = 1 << 4
	ResetFatal    ResetBits = 1 << 5
	ResetPin      ResetBits = 1 << 8
	ResetDAP      ResetBits = 1 << 9
	ResetResetAck ResetBits = 1 << 10
	ResetFreeze   ResetBits = 1 << 11
	ResetSoftware ResetBits = 1 << 24
	ResetLockup   ResetBits = 1 << 25
	ResetWWDT0    ResetBits = 1 << 26
)

func (r ResetBits) Has(b ResetBits) bool { return r&b != 0 }

// Generic pairing of a bit value with a printable name.
type BitName[T ~uint32] struct {
	Bit  T
	Name string
}

// BitIter is a zero-alloc iterator over set bits in a value, filtered by a table.
// Caller advances with Next(); no callbacks, no closures.
type BitIter[T ~uint32] struct {
	v     uint32
	i     int
	table []BitName[T]
}

// NewBitIter constructs an iterator over set bits present in v that also exist in table.
func NewBitIter[T ~uint32](v T, table []BitName[T]) BitIter[T] {
	return BitIter[T]{v: uint32(v), table: table}
}

// Next returns the next SET bit: (name, ok). ok=false when done.
func (it *BitIter[T]) Next() (string, bool) {
	for it.i < len(it.table) {
		e := it.table[it.i]
		it.i++
		if (it.v & uint32(e.Bit)) != 0 {
			return e.Name, true
		}
	}
	return "", false
}

// Reset allows reusing the iterator.
func (it *BitIter[T]) Reset() { it.i = 0 }

// ResetCauseTable names the reset status bits (ordering is cosmetic).
var ResetCauseTable = [...]BitName[ResetBits]{
	{ResetWakeUp, "wakeup"},
	{ResetPOR, "por"},
	{ResetVD, "voltage_detect"},
	{ResetWarm, "warm"},
	{ResetFatal, "fatal"},
	{ResetPin, "pin"},
	{ResetDAP, "dap"},
	{ResetResetAck, "reset_ack_timeout"},
	{ResetFreeze, "freeze"},
	{ResetSoftware, "software"},
	{ResetLockup, "lockup"},
	{ResetWWDT0, "wwdt0"},
}
