// Package bridge runs the EMU-2 read loop: lines are accumulated into
// frames, frames are decoded into readings and readings are published.
package bridge

import (
	"errors"

	"github.com/NotCoffee418/emu2mqtt/pkg/frame"
)

// LineSource blocks until the next trimmed line is available.
type LineSource interface {
	ReadLine() (string, error)
}

// Publisher receives each decoded reading.
type Publisher interface {
	Publish(metric string, value float64) error
}

// MultiPublisher hands every reading to each publisher in order.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(metric string, value float64) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(metric, value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Bridge turns lines from a LineSource into readings for a Publisher.
type Bridge struct {
	source      LineSource
	publisher   Publisher
	accumulator frame.Accumulator
	state       frame.State
}
