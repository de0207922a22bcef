// Package discovery describes the EMU-2 sensors using Home Assistant MQTT discovery.
package discovery

import "github.com/NotCoffee418/emu2mqtt/pkg/types"

const (
	DefaultPrefix = "homeassistant"
	// StatePrefix roots the state topics.
	StatePrefix = "hmd"
)

// DeviceInfo is the Home Assistant device every sensor is grouped under.
type DeviceInfo struct {
	Name         string   `json:"name"`
	Identifiers  []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
}

// SensorDescriptor describes one Home Assistant sensor entity.
type SensorDescriptor struct {
	Name        string
	UniqueID    string
	DeviceClass string
	StateClass  string
	Unit        string
}

// SensorBinding ties a metric to the sensor it is published as.
type SensorBinding struct {
	Metric string
	Sensor SensorDescriptor
}

var EMU2Device = DeviceInfo{
	Name:         "Rainforest-EMU-2",
	Identifiers:  []string{"device_id"},
	Manufacturer: "Rainforest Automation",
	Model:        "EMU-2",
}

// Registered in this order at startup.
var Sensors = []SensorBinding{
	{
		Metric: types.MetricSummationDelivered,
		Sensor: SensorDescriptor{
			Name:        "HomeEnergyUsage",
			UniqueID:    "HomeEnergyUsage",
			DeviceClass: "energy",
			StateClass:  "total_increasing",
			Unit:        "kWh",
		},
	},
	{
		Metric: types.MetricInstantaneousDemand,
		Sensor: SensorDescriptor{
			Name:        "HomeCurrentDemand",
			UniqueID:    "HomeCurrentDemand",
			DeviceClass: "power",
			StateClass:  "measurement",
			Unit:        "kW",
		},
	},
}

type sensorConfig struct {
	Name        string     `json:"name"`
	UniqueID    string     `json:"unique_id"`
	DeviceClass string     `json:"device_class,omitempty"`
	StateClass  string     `json:"state_class,omitempty"`
	Unit        string     `json:"unit_of_measurement,omitempty"`
	StateTopic  string     `json:"state_topic"`
	Device      DeviceInfo `json:"device"`
}
