package regulator

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"powerswitch-go/errcode"
	"powerswitch-go/services/power/internal/hw"
	"powerswitch-go/services/power/internal/hw/simhw"
)

func newCfg(opts simhw.Options) (*Configurator, *simhw.Chip, *bytes.Buffer) {
	chip := simhw.New(opts)
	h := chip.Handles()
	var out bytes.Buffer
	return New(h.SPC, h.VBAT, h.CMC, &out), chip, &out
}

func TestApply_OrderAndState(t *testing.T) {
	c, chip, _ := newCfg(simhw.Options{BusyPolls: 2})
	if err := c.Apply(); err != nil {
		t.Fatal(err)
	}

	want := []string{"spc.active_analog_off"}
	for range hw.Detectors {
		want = append(want, "spc.detector")
	}
	want = append(want,
		"spc.active_regulators",
		"spc.active_glitch_off",
		"spc.lp_analog_off",
		"spc.wakeup_delay",
		"spc.lp_regulators",
		"spc.lp_glitch_off",
		"spc.core_ldo",
		"spc.lp_request",
	)
	if got := chip.Trace(); !reflect.DeepEqual(got, want) {
		t.Fatalf("trace:\n got %v\nwant %v", got, want)
	}

	st := chip.State()
	if st.DetectorsOn != 0 || st.ActiveAnalogOff != hw.AllAnalogModules || st.LPAnalogOff != hw.AllAnalogModules {
		t.Fatalf("analog/detectors not disabled: %+v", st)
	}
	if st.Active != ActiveSettings || st.LowPower != LowPowerSettings {
		t.Fatalf("regulators: %+v / %+v", st.Active, st.LowPower)
	}
	if st.WakeUpDelay != DefaultWakeUpDelay || st.CoreLDO || st.LPRequest != LowPowerRequestOutput {
		t.Fatalf("state = %+v", st)
	}
	if !st.GlitchActiveOff || !st.GlitchLPOff {
		t.Fatal("glitch detectors left enabled")
	}
}

func TestApply_WaitsForBusyBetweenWrites(t *testing.T) {
	c, chip, _ := newCfg(simhw.Options{BusyPolls: 5})
	if err := c.Apply(); err != nil {
		t.Fatalf("low-power write overlapped a busy regulator: %v", err)
	}
	if n := chip.State().BusyPolls; n != 10 {
		t.Fatalf("busy polls = %d, want 10", n)
	}
}

func TestApply_Idempotent(t *testing.T) {
	c, chip, _ := newCfg(simhw.Options{BusyPolls: 1})
	if err := c.Apply(); err != nil {
		t.Fatal(err)
	}
	first := chip.State()
	if err := c.Apply(); err != nil {
		t.Fatal(err)
	}
	second := chip.State()
	if first.Active != second.Active || first.LowPower != second.LowPower || first.LPRequest != second.LPRequest {
		t.Fatal("re-apply changed settings")
	}
}

func TestApply_ActiveFailureShortCircuits(t *testing.T) {
	c, chip, out := newCfg(simhw.Options{})
	cause := errors.New("status fail")
	chip.FailActiveRegulators(cause)

	err := c.Apply()
	if !errors.Is(err, errcode.ConfigFailed) || !errors.Is(err, cause) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(out.String(), "Fail to set regulators in Active mode.") {
		t.Fatalf("output = %q", out.String())
	}

	tr := chip.Trace()
	if last := tr[len(tr)-1]; last != "spc.active_glitch_off" {
		t.Fatalf("steps continued after failure: %v", tr)
	}
	st := chip.State()
	if st.LowPowerSet || !st.CoreLDO || st.LPRequest.Enable {
		t.Fatalf("later steps ran: %+v", st)
	}
}

func TestApply_LowPowerFailureShortCircuits(t *testing.T) {
	c, chip, out := newCfg(simhw.Options{})
	chip.FailLowPowerRegulators(errcode.VoltageInvalid)

	err := c.Apply()
	if !errors.Is(err, errcode.ConfigFailed) || !errors.Is(err, errcode.VoltageInvalid) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(out.String(), "Fail to set regulators in Low Power Mode.") {
		t.Fatalf("output = %q", out.String())
	}
	st := chip.State()
	if !st.ActiveSet {
		t.Fatal("active settings should remain applied")
	}
	if !st.CoreLDO || st.LPRequest.Enable {
		t.Fatalf("later steps ran: %+v", st)
	}
}

func TestApplyBackup(t *testing.T) {
	c, chip, _ := newCfg(simhw.Options{})
	c.ApplyBackup()

	want := []string{"vbat.fro16k", "vbat.ungate", "vbat.bandgap_refresh", "vbat.bandgap"}
	if got := chip.Trace(); !reflect.DeepEqual(got, want) {
		t.Fatalf("trace = %v", got)
	}
	st := chip.State()
	if !st.FRO16k || !st.FRO16kUngated || st.Bandgap || st.BandgapRefresh {
		t.Fatalf("state = %+v", st)
	}

	// Already configured: only the ungate is repeated.
	chip.ClearTrace()
	c.ApplyBackup()
	if got := chip.Trace(); !reflect.DeepEqual(got, []string{"vbat.ungate"}) {
		t.Fatalf("second trace = %v", got)
	}
}

func TestWakeupPin_HandlerClearsFlag(t *testing.T) {
	c, chip, _ := newCfg(simhw.Options{})

	// Unarmed: the flag latches and nothing runs.
	chip.WakePin()
	if !chip.State().WakePinFlag || c.WakeupPinEvents() != 0 {
		t.Fatalf("unarmed: state = %+v events = %d", chip.State(), c.WakeupPinEvents())
	}

	c.ArmWakeupPin()
	if got := chip.Trace(); !reflect.DeepEqual(got, []string{"vbat.wake_irq_enable"}) {
		t.Fatalf("arm trace = %v", got)
	}

	chip.ClearTrace()
	chip.WakePin()
	if chip.State().WakePinFlag {
		t.Fatal("flag still set after interrupt")
	}
	if got := chip.Trace(); !reflect.DeepEqual(got, []string{"vbat.wake_clear"}) {
		t.Fatalf("irq trace = %v", got)
	}
	if n := c.WakeupPinEvents(); n != 1 {
		t.Fatalf("events = %d", n)
	}

	// A spurious entry with no flag pending leaves the count alone.
	c.OnWakeupPin()
	if n := c.WakeupPinEvents(); n != 1 {
		t.Fatalf("events after spurious = %d", n)
	}
}

func TestApplyCoreMode(t *testing.T) {
	c, chip, _ := newCfg(simhw.Options{})
	c.ApplyCoreMode()

	st := chip.State()
	if st.DebugEnabled {
		t.Fatal("low-power debug still enabled")
	}
	if st.Protection != hw.AllowAllLowPowerModes {
		t.Fatalf("protection = %b", st.Protection)
	}
	if !st.FlashWake || !st.FlashDoze || st.FlashDisable {
		t.Fatalf("flash = %v %v %v", st.FlashWake, st.FlashDoze, st.FlashDisable)
	}
}

func TestSetWakeUpDelay(t *testing.T) {
	c, chip, _ := newCfg(simhw.Options{})
	c.SetWakeUpDelay(0x10)
	if err := c.Apply(); err != nil {
		t.Fatal(err)
	}
	if d := chip.State().WakeUpDelay; d != 0x10 {
		t.Fatalf("delay = %#x", d)
	}
}
