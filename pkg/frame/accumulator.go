// Package frame turns the EMU-2 line stream into complete XML fragments.
package frame

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultMaxBytes bounds a frame that never sees its closing tag.
const DefaultMaxBytes = 64 * 1024

var ErrFrameOverflow = errors.New("frame buffer overflow")

// Fragment is one complete element as received, lines joined without delimiter.
type Fragment string

// State holds the lines received since the last emitted frame.
type State struct {
	buffer string
}

func (s State) Buffer() string {
	return s.buffer
}

// Accumulator detects frame boundaries. MaxBytes of 0 disables the overflow guard.
type Accumulator struct {
	MaxBytes int
}

// Step appends line to the buffer. When the line itself starts with "</"
// the whole buffer is returned as a Fragment and the returned State is empty.
// Otherwise the Fragment is empty.
func (a Accumulator) Step(state State, line string) (State, Fragment, error) {
	buffer := state.buffer + line

	if strings.HasPrefix(line, "</") {
		return State{}, Fragment(buffer), nil
	}

	if a.MaxBytes > 0 && len(buffer) > a.MaxBytes {
		return State{}, "", fmt.Errorf("%w: %d bytes without closing tag", ErrFrameOverflow, len(buffer))
	}
	return State{buffer: buffer}, "", nil
}
