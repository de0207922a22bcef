// Package interpreter decodes EMU-2 XML fragments into metric readings.
package interpreter

import (
	"errors"

	"github.com/NotCoffee418/emu2mqtt/pkg/esmutils"
	"github.com/NotCoffee418/emu2mqtt/pkg/types"
)

var (
	ErrMalformedXML     = errors.New("malformed xml")
	ErrFieldMissing     = errors.New("field missing")
	ErrFieldNotHex      = esmutils.ErrNotHex
	ErrZeroDivisor      = esmutils.ErrZeroDivisor
	ErrDigitsOutOfRange = errors.New("digits right out of range")
)

// MaxDigitsRight caps the rounding precision a meter may request.
const MaxDigitsRight = 64

// ParsedMessage maps a tag name to its text (string, nil when empty),
// its children (ParsedMessage) or, for repeated tags, a []any of those.
// Attributes appear as "@name" keys and mixed text as "#text".
type ParsedMessage map[string]any

// Shape describes a supported EMU-2 message.
type Shape struct {
	RootKey    string
	ValueField string
	Metric     string
}

// Shapes is checked in order.
var Shapes = []Shape{
	{RootKey: "InstantaneousDemand", ValueField: "Demand", Metric: types.MetricInstantaneousDemand},
	{RootKey: "CurrentSummationDelivered", ValueField: "SummationDelivered", Metric: types.MetricSummationDelivered},
}

// Fields shared by every shape.
const (
	fieldMultiplier  = "Multiplier"
	fieldDivisor     = "Divisor"
	fieldDigitsRight = "DigitsRight"
)
