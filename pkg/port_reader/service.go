package port_reader

import (
	"errors"
	"fmt"
	"io"

	"github.com/NotCoffee418/emu2mqtt/pkg/frame"
	"github.com/jacobsa/go-serial/serial"
	log "github.com/sirupsen/logrus"
)

var ErrNotConnected = errors.New("serial port not connected")

var openPort = func(options serial.OpenOptions) (io.ReadWriteCloser, error) {
	return serial.Open(options)
}

// Initialize a new EMUReader for the given device path.
func NewEMUReader(port string) *EMUReader {
	return &EMUReader{
		port:     port,
		baudrate: Baudrate,
	}
}

// Open the connection to the EMU-2, 8N1.
func (p *EMUReader) Connect() error {
	options := serial.OpenOptions{
		PortName:        p.port,
		BaudRate:        p.baudrate,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
	}

	port, err := openPort(options)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}

	p.serialPort = port
	p.lines = frame.NewLineReader(port)
	log.Printf("Connected to EMU-2 on %s", p.port)
	return nil
}

func (p *EMUReader) Disconnect() {
	if p.serialPort != nil {
		p.serialPort.Close()
		log.Println("Disconnected from EMU-2")
	}
}

// ReadLine blocks until the EMU-2 sends a line.
func (p *EMUReader) ReadLine() (string, error) {
	if p.lines == nil {
		return "", ErrNotConnected
	}
	return p.lines.ReadLine()
}
