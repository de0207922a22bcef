package types

import (
	"encoding/json"

	log "github.com/sirupsen/logrus"
)

// Metric names emitted by the interpreter.
const (
	MetricInstantaneousDemand = "InstantaneousDemand"
	MetricSummationDelivered  = "SummationDelivered"
)

// MetricReading is one decoded value from the EMU-2.
type MetricReading struct {
	Metric string  `json:"metric"`
	Value  float64 `json:"value"`
}

// FeedReading is a MetricReading as broadcast on the live feed.
type FeedReading struct {
	Timestamp string `json:"timestamp"`
	MetricReading
}

func (r *FeedReading) ToJsonBytes() []byte {
	data, err := json.Marshal(r)
	if err != nil {
		log.Printf("Error marshaling reading: %v", err)
		return nil
	}
	return data
}

// Returns nil when the payload is not a reading.
func FeedReadingFromJsonBytes(data []byte) *FeedReading {
	var reading FeedReading
	if err := json.Unmarshal(data, &reading); err != nil {
		return nil
	}
	if reading.Metric == "" {
		return nil
	}
	return &reading
}
