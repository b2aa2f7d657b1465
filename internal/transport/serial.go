package transport

import (
	"fmt"

	"github.com/muurk/ithorft/internal/logging"
	"go.bug.st/serial"
	"go.uber.org/zap"
)

// DefaultBaud is the evofw3 firmware's default line speed
const DefaultBaud = 115200

// OpenSerial opens a USB/serial gateway at 8N1
func OpenSerial(path string, baud int) (*LineConn, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}

	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}

	logging.Info("Serial gateway opened",
		zap.String("port", path),
		zap.Int("baud", baud),
	)
	return NewLineConn(path, port), nil
}

// ListSerialPorts returns the serial ports present on this machine
func ListSerialPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}
