package port_reader

import (
	"io"

	"github.com/NotCoffee418/emu2mqtt/pkg/frame"
)

// The EMU-2 USB serial interface runs at a fixed rate.
const Baudrate uint = 115200

// EMUReader reads lines from the EMU-2 serial port.
type EMUReader struct {
	port       string
	baudrate   uint
	serialPort io.ReadWriteCloser
	lines      *frame.LineReader
}
