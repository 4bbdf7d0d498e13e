//go:build !linux

package adapter

import (
	"errors"
	"fmt"

	"go.bug.st/serial"
)

// openDevice opens the port through go.bug.st/serial, which puts the line in
// raw 8N1 mode. Flags have no equivalent here and are ignored.
func openDevice(cfg SerialConfig) (device, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(cfg.Device, mode)
	if err != nil {
		var portErr *serial.PortError
		if errors.As(err, &portErr) {
			switch portErr.Code() {
			case serial.InvalidSerialPort, serial.InvalidSpeed:
				return nil, fmt.Errorf("%w: %s: %w", ErrDeviceConfigureFailed, cfg.Device, err)
			}
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrDeviceOpenFailed, cfg.Device, err)
	}

	return port, nil
}
