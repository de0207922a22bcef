package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/NotCoffee418/emu2mqtt/pkg/discovery"
	"github.com/NotCoffee418/emu2mqtt/pkg/frame"
	"github.com/NotCoffee418/emu2mqtt/pkg/pathing"
)

var ActiveBridgeConfig *BridgeConfig

var ErrDeviceMissing = errors.New("environment variable EMU2_DEV must be defined")

// LoadBridgeConfig loads the config file and environment into ActiveBridgeConfig.
func LoadBridgeConfig() error {
	cfg, err := Load(pathing.GetConfigPath(), os.Getenv)
	if err != nil {
		return err
	}
	ActiveBridgeConfig = cfg
	return nil
}

func defaultBridgeConfig() *BridgeConfig {
	return &BridgeConfig{
		MQTTHost:        "localhost",
		MQTTPort:        1883,
		DiscoveryPrefix: discovery.DefaultPrefix,
		MaxFrameBytes:   frame.DefaultMaxBytes,
	}
}

// Load applies defaults, then the TOML file at path if it exists,
// then environment variables read through getenv.
func Load(path string, getenv func(string) string) (*BridgeConfig, error) {
	cfg := defaultBridgeConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to decode %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := applyEnv(cfg, getenv); err != nil {
		return nil, err
	}

	if cfg.SerialDevice == "" {
		return nil, ErrDeviceMissing
	}
	return cfg, nil
}

func applyEnv(cfg *BridgeConfig, getenv func(string) string) error {
	strs := map[string]*string{
		"EMU2_DEV":            &cfg.SerialDevice,
		"MQTT_HOST":           &cfg.MQTTHost,
		"MQTT_USER":           &cfg.MQTTUser,
		"MQTT_PASS":           &cfg.MQTTPass,
		"HA_DISCOVERY_PREFIX": &cfg.DiscoveryPrefix,
		"LIVEFEED_LISTEN":     &cfg.LiveFeedListen,
	}
	for key, target := range strs {
		if v := getenv(key); v != "" {
			*target = v
		}
	}

	ints := map[string]*int{
		"MQTT_PORT":       &cfg.MQTTPort,
		"MAX_FRAME_BYTES": &cfg.MaxFrameBytes,
	}
	for key, target := range ints {
		v := getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid %s: %q", key, v)
		}
		*target = n
	}

	if v := getenv("DEBUG"); v != "" {
		cfg.Debug = IsTruthy(v)
	}
	return nil
}

// IsTruthy reports whether an env value such as "1", "yes" or "on" means enabled.
func IsTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
