package config

import (
	"context"
	"errors"

	"powerswitch-go/bus"
	"powerswitch-go/services/config/setups"
	"powerswitch-go/types"
	"powerswitch-go/x/strx"
)

const (
	serviceName  = "config"
	configPrefix = "config"
)

type ctxKey string

// CtxDeviceKey selects the board setup; DefaultDevice is used when unset.
const CtxDeviceKey ctxKey = "device"

// DefaultDevice is chosen by build tags (setup_selected.go / setup_none.go).
var DefaultDevice string

// SetupLookup allows overriding how setups are resolved.
var SetupLookup = func(device string) (types.BoardSetup, bool) {
	s, ok := setups.ByDevice[device]
	return s, ok
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// publishConfig resolves the device setup and publishes each part as a
// retained message under config/<key>.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	device = strx.Coalesce(device, DefaultDevice)
	if device == "" {
		return errors.New("missing device ID in context")
	}

	setup, ok := SetupLookup(device)
	if !ok {
		return errors.New("no board setup for device: " + device)
	}

	for _, kv := range []struct {
		key string
		val any
	}{
		{"device", strx.Coalesce(setup.Device, device)},
		{"power", setup.Power},
		{"monitor", setup.Monitor},
	} {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, kv.key), kv.val, true))
	}
	return nil
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			println("[config]", err.Error())
		}
	}()
}
