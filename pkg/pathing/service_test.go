package pathing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetConfigPath(t *testing.T) {
	t.Setenv(ConfigPathEnv, "")
	assert.Equal(t, "/etc/emu2mqtt/emu2mqtt.toml", GetConfigPath())

	t.Setenv(ConfigPathEnv, "/tmp/custom.toml")
	assert.Equal(t, "/tmp/custom.toml", GetConfigPath())
}
