// config/config_test.go
package config

import (
	"context"
	"testing"
	"time"

	"powerswitch-go/bus"
	"powerswitch-go/services/config/setups"
	"powerswitch-go/types"
)

func TestConfig_PublishSetup_RetainedPerKey(t *testing.T) {
	// Override lookup for this test.
	oldLookup := SetupLookup
	SetupLookup = func(device string) (types.BoardSetup, bool) {
		if device != "bench" {
			return types.BoardSetup{}, false
		}
		return types.BoardSetup{
			Device:  "bench",
			Power:   types.PowerConfig{WDTClockHz: 32_768},
			Monitor: types.MonitorConfig{Verbose: true},
		}, true
	}
	t.Cleanup(func() { SetupLookup = oldLookup })

	// Arrange bus and service.
	b := bus.NewBus(16)
	conn := b.NewConnection("test-config")
	svc := NewConfigService()

	// Start publisher with device ID in context.
	ctx := context.WithValue(context.Background(), CtxDeviceKey, "bench")
	svc.Start(ctx, conn)

	// Subscribe; retained messages should arrive immediately.
	sub := conn.Subscribe(bus.T(configPrefix, "#"))

	wantCount := 3 // device, power, monitor
	got := map[string]any{}

	deadline := time.Now().Add(600 * time.Millisecond)
	for len(got) < wantCount && time.Now().Before(deadline) {
		select {
		case m := <-sub.Channel():
			if m.Topic.Len() != 2 {
				t.Fatalf("unexpected topic length: %#v", m.Topic)
			}
			if prefix, ok := m.Topic.At(0).(string); !ok || prefix != configPrefix {
				t.Fatalf("unexpected prefix: %#v", m.Topic.At(0))
			}
			key, ok := m.Topic.At(1).(string)
			if !ok {
				t.Fatalf("topic[1] type %T, want string", m.Topic.At(1))
			}
			if !m.Retained {
				t.Fatalf("%s not retained", key)
			}
			got[key] = m.Payload
		case <-time.After(10 * time.Millisecond):
		}
	}
	if len(got) != wantCount {
		t.Fatalf("expected %d retained messages, got %d (%v)", wantCount, len(got), got)
	}

	if d, ok := got["device"].(string); !ok || d != "bench" {
		t.Fatalf("device payload = %#v", got["device"])
	}
	if p, ok := got["power"].(types.PowerConfig); !ok || p.WDTClockHz != 32_768 {
		t.Fatalf("power payload = %#v", got["power"])
	}
	if m, ok := got["monitor"].(types.MonitorConfig); !ok || !m.Verbose {
		t.Fatalf("monitor payload = %#v", got["monitor"])
	}
}

func TestConfig_DefaultDeviceUsedWhenUnset(t *testing.T) {
	b := bus.NewBus(4)
	conn := b.NewConnection("test-default-device")
	if err := NewConfigService().publishConfig(context.Background(), conn); err != nil {
		t.Fatalf("default device %q: %v", DefaultDevice, err)
	}

	sub := conn.Subscribe(bus.T(configPrefix, "device"))
	select {
	case m := <-sub.Channel():
		if m.Payload != DefaultDevice {
			t.Fatalf("device = %#v, want %q", m.Payload, DefaultDevice)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("no retained device")
	}
}

func TestConfig_PublishConfig_MissingDevice(t *testing.T) {
	old := DefaultDevice
	DefaultDevice = ""
	t.Cleanup(func() { DefaultDevice = old })

	b := bus.NewBus(4)
	conn := b.NewConnection("test-missing-device")
	svc := NewConfigService()

	// No device ID in context and no default.
	if err := svc.publishConfig(context.Background(), conn); err == nil {
		t.Fatal("expected error for missing device ID, got nil")
	}
}

func TestConfig_PublishConfig_NoSetupFound(t *testing.T) {
	b := bus.NewBus(4)
	conn := b.NewConnection("test-no-config")
	svc := NewConfigService()

	ctx := context.WithValue(context.Background(), CtxDeviceKey, "unknown-device")
	if err := svc.publishConfig(ctx, conn); err == nil {
		t.Fatal("expected error for unknown device, got nil")
	}
}

func TestSetups_AllValid(t *testing.T) {
	for name, s := range setups.ByDevice {
		if s.Device != name {
			t.Fatalf("%s: device field %q", name, s.Device)
		}
		p := s.Power.WithDefaults()
		if p.WDTClockHz < 2048 {
			t.Fatalf("%s: watchdog clock %d too low", name, p.WDTClockHz)
		}
		if p.RAMArraysDeepSleep == 0 || p.RAMArraysPowerDown == 0 {
			t.Fatalf("%s: empty RAM mask", name)
		}
	}
}
