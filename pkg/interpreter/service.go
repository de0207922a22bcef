package interpreter

import (
	"fmt"
	"math/big"

	"github.com/NotCoffee418/emu2mqtt/pkg/esmutils"
	"github.com/NotCoffee418/emu2mqtt/pkg/types"
)

// Decode parses a fragment and extracts its reading.
// ok is false for well-formed messages of an unsupported shape.
func Decode(fragment string) (reading types.MetricReading, ok bool, err error) {
	msg, err := ParseFragment(fragment)
	if err != nil {
		return types.MetricReading{}, false, err
	}
	return ExtractReading(msg)
}

// ExtractReading computes round(value * Multiplier / Divisor, DigitsRight)
// for the first supported shape present in msg.
func ExtractReading(msg ParsedMessage) (types.MetricReading, bool, error) {
	for _, shape := range Shapes {
		root, exists := msg[shape.RootKey]
		if !exists {
			continue
		}

		items, isMessage := root.(ParsedMessage)
		if !isMessage {
			return types.MetricReading{}, false, fmt.Errorf("%s: %w: no child fields", shape.RootKey, ErrFieldMissing)
		}

		value, err := shape.compute(items)
		if err != nil {
			return types.MetricReading{}, false, fmt.Errorf("%s: %w", shape.RootKey, err)
		}
		return types.MetricReading{Metric: shape.Metric, Value: value}, true, nil
	}
	return types.MetricReading{}, false, nil
}

func (s Shape) compute(items ParsedMessage) (float64, error) {
	value, err := hexField(items, s.ValueField)
	if err != nil {
		return 0, err
	}
	multiplier, err := hexField(items, fieldMultiplier)
	if err != nil {
		return 0, err
	}
	divisor, err := hexField(items, fieldDivisor)
	if err != nil {
		return 0, err
	}
	digits, err := hexField(items, fieldDigitsRight)
	if err != nil {
		return 0, err
	}
	if !digits.IsInt64() || digits.Int64() > MaxDigitsRight {
		return 0, fmt.Errorf("%w: %s=%s", ErrDigitsOutOfRange, fieldDigitsRight, digits)
	}

	scaled, err := esmutils.ScaleRound(value, multiplier, divisor, int(digits.Int64()))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", fieldDivisor, err)
	}
	return scaled, nil
}

func hexField(items ParsedMessage, name string) (*big.Int, error) {
	raw, exists := items[name]
	if !exists || raw == nil {
		return nil, fmt.Errorf("%w: %s", ErrFieldMissing, name)
	}
	text, isText := raw.(string)
	if !isText {
		return nil, fmt.Errorf("%w: %s is not a scalar", ErrFieldNotHex, name)
	}

	n, err := esmutils.ParseHex(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}
