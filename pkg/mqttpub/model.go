// Package mqttpub publishes EMU-2 readings to an MQTT broker as
// Home Assistant discovery sensors.
package mqttpub

import (
	"time"

	"github.com/NotCoffee418/emu2mqtt/pkg/discovery"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	publishTimeout = 10 * time.Second
	connectTimeout = 10 * time.Second
	quiesceMillis  = 250
)

// The subset of mqtt.Client the publisher needs.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// Publisher sends discovery configs and sensor states for one device.
type Publisher struct {
	client  client
	prefix  string
	device  discovery.DeviceInfo
	timeout time.Duration
}
