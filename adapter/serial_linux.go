//go:build linux

package adapter

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// baudSpeeds maps line speeds to their termios speed bits
var baudSpeeds = map[int]uint32{
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
	230400: unix.B230400,
	460800: unix.B460800,
	500000: unix.B500000,
	576000: unix.B576000,
}

// termiosSys is the set of system calls used to bring up the line
type termiosSys interface {
	Open(path string, mode int) (int, error)
	GetTermios(fd int) (*unix.Termios, error)
	SetTermios(fd int, t *unix.Termios) error
	Write(fd int, p []byte) (int, error)
	Close(fd int) error
}

type unixSys struct{}

func (unixSys) Open(path string, mode int) (int, error) {
	return unix.Open(path, mode, 0)
}

func (unixSys) GetTermios(fd int) (*unix.Termios, error) {
	return unix.IoctlGetTermios(fd, unix.TCGETS)
}

func (unixSys) SetTermios(fd int, t *unix.Termios) error {
	return unix.IoctlSetTermios(fd, unix.TCSETS, t)
}

func (unixSys) Write(fd int, p []byte) (int, error) {
	return unix.Write(fd, p)
}

func (unixSys) Close(fd int) error {
	return unix.Close(fd)
}

func openDevice(cfg SerialConfig) (device, error) {
	return openTermios(unixSys{}, cfg)
}

// termiosDevice is a file descriptor configured for raw mode
type termiosDevice struct {
	sys termiosSys
	fd  int
}

func (d *termiosDevice) Write(p []byte) (int, error) {
	return d.sys.Write(d.fd, p)
}

func (d *termiosDevice) Close() error {
	return d.sys.Close(d.fd)
}

// openTermios opens the device read-write, switches it to raw mode and sets
// both line speeds. On a configuration failure the descriptor is closed
// again before returning.
func openTermios(sys termiosSys, cfg SerialConfig) (device, error) {
	speed, ok := baudSpeeds[cfg.BaudRate]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBaudRate, cfg.BaudRate)
	}

	fd, err := sys.Open(cfg.Device, unix.O_RDWR|unix.O_NOCTTY|unix.O_CLOEXEC|cfg.Flags)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDeviceOpenFailed, cfg.Device, err)
	}

	t, err := sys.GetTermios(fd)
	if err != nil {
		_ = sys.Close(fd)
		return nil, fmt.Errorf("%w: get termios: %w", ErrDeviceConfigureFailed, err)
	}

	makeRaw(t)
	setSpeed(t, speed)

	if err := sys.SetTermios(fd, t); err != nil {
		_ = sys.Close(fd)
		return nil, fmt.Errorf("%w: set termios: %w", ErrDeviceConfigureFailed, err)
	}

	return &termiosDevice{sys: sys, fd: fd}, nil
}

// makeRaw applies the same changes as cfmakeraw(3)
func makeRaw(t *unix.Termios) {
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB
	t.Cflag |= unix.CS8

	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0
}

func setSpeed(t *unix.Termios, speed uint32) {
	t.Cflag &^= unix.CBAUD
	t.Cflag |= speed
	t.Ispeed = speed
	t.Ospeed = speed
}
