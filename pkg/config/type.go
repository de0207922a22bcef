package config

import "fmt"

// BridgeConfig holds everything needed to run the bridge.
type BridgeConfig struct {
	SerialDevice    string `toml:"serial_device"`
	MQTTHost        string `toml:"mqtt_host"`
	MQTTPort        int    `toml:"mqtt_port"`
	MQTTUser        string `toml:"mqtt_user"`
	MQTTPass        string `toml:"mqtt_pass"`
	DiscoveryPrefix string `toml:"discovery_prefix"`
	Debug           bool   `toml:"debug"`
	// Empty disables the live feed, e.g. ":9039"
	LiveFeedListen string `toml:"livefeed_listen"`
	// 0 lets a frame without closing tag grow unbounded
	MaxFrameBytes int `toml:"max_frame_bytes"`
}

// String masks the broker password.
func (c BridgeConfig) String() string {
	pass := ""
	if c.MQTTPass != "" {
		pass = "****"
	}
	return fmt.Sprintf(
		"BridgeConfig{SerialDevice:%s MQTTHost:%s MQTTPort:%d MQTTUser:%s MQTTPass:%s DiscoveryPrefix:%s Debug:%t LiveFeedListen:%s MaxFrameBytes:%d}",
		c.SerialDevice, c.MQTTHost, c.MQTTPort, c.MQTTUser, pass, c.DiscoveryPrefix, c.Debug, c.LiveFeedListen, c.MaxFrameBytes,
	)
}
