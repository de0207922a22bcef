package discovery

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SensorFor returns the sensor a metric is published to, if any.
func SensorFor(metric string) (SensorDescriptor, bool) {
	for _, binding := range Sensors {
		if binding.Metric == metric {
			return binding.Sensor, true
		}
	}
	return SensorDescriptor{}, false
}

// ConfigTopic is where the retained discovery payload for s lives.
func ConfigTopic(prefix string, s SensorDescriptor) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return fmt.Sprintf("%s/sensor/%s/config", prefix, s.UniqueID)
}

// StateTopic is where the state values for s are published.
func StateTopic(device DeviceInfo, s SensorDescriptor) string {
	return fmt.Sprintf("%s/sensor/%s/%s/state", StatePrefix, cleanName(device.Name), cleanName(s.Name))
}

// ConfigPayload renders the discovery JSON announcing s on device.
func ConfigPayload(device DeviceInfo, s SensorDescriptor) ([]byte, error) {
	return json.Marshal(sensorConfig{
		Name:        s.Name,
		UniqueID:    s.UniqueID,
		DeviceClass: s.DeviceClass,
		StateClass:  s.StateClass,
		Unit:        s.Unit,
		StateTopic:  StateTopic(device, s),
		Device:      device,
	})
}

// Topic levels only keep [a-z0-9_-].
func cleanName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, name)
}
