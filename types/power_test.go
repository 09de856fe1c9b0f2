package types

import "testing"

func TestModeFromKey(t *testing.T) {
	for _, tc := range []struct {
		key  byte
		want PowerMode
		ok   bool
	}{
		{'a', ModeActive, true},
		{'B', ModeSleep, true},
		{'c', ModeDeepSleep, true},
		{'D', ModePowerDown, true},
		{'e', 'E', false},
		{'@', '@', false},
		{'1', '1', false},
		{'{', '{', false},
	} {
		got, ok := ModeFromKey(tc.key)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ModeFromKey(%q) = %q, %v", tc.key, got, ok)
		}
	}
}

func TestModes_TableMatchesIndex(t *testing.T) {
	for i, m := range Modes {
		if m.Mode.Index() != i {
			t.Fatalf("Modes[%d] holds %q", i, m.Mode)
		}
		if m.Mode.String() != m.Name {
			t.Fatalf("%q String() = %q", m.Mode, m.Mode.String())
		}
	}
	if PowerMode('Z').String() != "unknown" {
		t.Fatal("invalid mode has a name")
	}
}

func TestBitIter_NamesSetBits(t *testing.T) {
	it := NewBitIter(ResetPOR|ResetWWDT0|ResetBits(1<<30), ResetCauseTable[:])
	var got []string
	for n, ok := it.Next(); ok; n, ok = it.Next() {
		got = append(got, n)
	}
	if len(got) != 2 || got[0] != "por" || got[1] != "wwdt0" {
		t.Fatalf("names = %v", got)
	}
	it.Reset()
	if n, _ := it.Next(); n != "por" {
		t.Fatalf("after Reset: %q", n)
	}
}

func TestPowerConfig_WithDefaults(t *testing.T) {
	c := PowerConfig{WakeUpDelay: 0x20}.WithDefaults()
	d := DefaultPowerConfig()
	if c.WakeUpDelay != 0x20 {
		t.Fatalf("override lost: %#x", c.WakeUpDelay)
	}
	if c.WDTClockHz != d.WDTClockHz || c.RAMArraysDeepSleep != d.RAMArraysDeepSleep || c.RAMArraysPowerDown != d.RAMArraysPowerDown {
		t.Fatalf("defaults not applied: %+v", c)
	}
	// An omitted flag means the default: the console is released.
	if c.KeepConsoleInDeepModes || c.KeepConsoleInDeepModes != d.KeepConsoleInDeepModes {
		t.Fatal("console kept by default")
	}
}
