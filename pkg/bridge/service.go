package bridge

import (
	"context"
	"fmt"

	"github.com/NotCoffee418/emu2mqtt/pkg/frame"
	"github.com/NotCoffee418/emu2mqtt/pkg/interpreter"
	"github.com/NotCoffee418/emu2mqtt/pkg/types"
	log "github.com/sirupsen/logrus"
)

// maxFrameBytes of 0 leaves the frame buffer unbounded.
func New(source LineSource, publisher Publisher, maxFrameBytes int) *Bridge {
	return &Bridge{
		source:      source,
		publisher:   publisher,
		accumulator: frame.Accumulator{MaxBytes: maxFrameBytes},
	}
}

// Run reads until the source fails or ctx is done. Errors confined to one
// fragment are logged and skipped.
func (b *Bridge) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := b.source.ReadLine()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("failed to read line: %w", err)
		}

		b.HandleLine(line)
	}
}

// HandleLine advances the accumulator by one line and, on a frame boundary,
// decodes and publishes the frame.
func (b *Bridge) HandleLine(line string) {
	log.Debugf("raw line: %s", line)

	next, fragment, err := b.accumulator.Step(b.state, line)
	b.state = next
	if err != nil {
		log.Warnf("Discarded frame: %v", err)
		return
	}
	if fragment == "" {
		return
	}

	log.Debugf("found line: %s", line)
	reading, ok := b.HandleFragment(fragment)
	if !ok {
		return
	}

	log.Infof("publishing: %s-%v", reading.Metric, reading.Value)
	if err := b.publisher.Publish(reading.Metric, reading.Value); err != nil {
		log.Warnf("Failed to publish %s: %v", reading.Metric, err)
	}
}

// HandleFragment decodes a complete fragment. ok is false when the fragment
// is malformed or not a supported message.
func (b *Bridge) HandleFragment(fragment frame.Fragment) (types.MetricReading, bool) {
	reading, ok, err := interpreter.Decode(string(fragment))
	if err != nil {
		log.Warnf("Skipping fragment: %v: %s", err, fragment)
		return types.MetricReading{}, false
	}
	if !ok {
		log.Debugf("Unsupported message: %s", fragment)
	}
	return reading, ok
}

// Buffered returns the lines collected since the last frame boundary.
func (b *Bridge) Buffered() string {
	return b.state.Buffer()
}
