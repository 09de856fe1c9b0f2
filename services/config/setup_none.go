//go:build !mcxn947

package config

import "powerswitch-go/services/config/setups"

func init() {
	DefaultDevice = setups.HostSim.Device
}
