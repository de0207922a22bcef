package pathing

import (
	"os"
	"path/filepath"
)

// EMU2_CONFIG overrides the default config file location.
const ConfigPathEnv = "EMU2_CONFIG"

func GetConfigDir() string {
	return "/etc/emu2mqtt"
}

func GetConfigPath() string {
	if path := os.Getenv(ConfigPathEnv); path != "" {
		return path
	}
	return filepath.Join(GetConfigDir(), "emu2mqtt.toml")
}
