package adapter

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
)

// Default connection parameters of the internal printer
const (
	DefaultDevice   = "/dev/ttyS0"
	DefaultBaudRate = 115200
)

var (
	ErrInvalidBaudRate       = errors.New("invalid baud rate")
	ErrDeviceOpenFailed      = errors.New("cannot open device")
	ErrDeviceConfigureFailed = errors.New("cannot configure device")
	ErrDeviceNotOpen         = errors.New("device not open")
)

// baudRates is the set of line speeds the serial link accepts.
var baudRates = map[int]struct{}{
	9600:   {},
	19200:  {},
	38400:  {},
	57600:  {},
	115200: {},
	230400: {},
	460800: {},
	500000: {},
	576000: {},
}

// ValidBaudRate reports whether rate is one of the supported line speeds
func ValidBaudRate(rate int) bool {
	_, ok := baudRates[rate]
	return ok
}

// SupportedBaudRates returns the supported line speeds in ascending order
func SupportedBaudRates() []int {
	rates := make([]int, 0, len(baudRates))
	for r := range baudRates {
		rates = append(rates, r)
	}
	sort.Ints(rates)
	return rates
}

// SerialConfig describes how the serial device is opened.
// It is applied as a whole on every Open and cannot change afterwards.
type SerialConfig struct {
	// Device path (e.g., "/dev/ttyS0")
	Device string

	// BaudRate must be one of SupportedBaudRates
	BaudRate int

	// Flags are OR-ed into the open(2) flags on top of read-write
	Flags int
}

// DefaultSerialConfig returns the configuration of the internal printer
func DefaultSerialConfig() SerialConfig {
	return SerialConfig{
		Device:   DefaultDevice,
		BaudRate: DefaultBaudRate,
	}
}

// device is an opened and configured serial line
type device interface {
	Write(p []byte) (int, error)
	Close() error
}

// SerialAdapter manages a single serial printer connection
type SerialAdapter struct {
	cfg            SerialConfig
	openDevice     func(cfg SerialConfig) (device, error)
	dev            device
	eventListeners map[EventType][]func(Event)
	listenersMutex sync.RWMutex
	isOpen         bool
	mu             sync.Mutex
}

// NewSerialAdapter creates a new serial adapter instance. The device is not
// touched until Open is called.
func NewSerialAdapter(cfg SerialConfig) *SerialAdapter {
	return newSerialAdapter(cfg, openDevice)
}

func newSerialAdapter(cfg SerialConfig, open func(SerialConfig) (device, error)) *SerialAdapter {
	return &SerialAdapter{
		cfg:            cfg,
		openDevice:     open,
		eventListeners: make(map[EventType][]func(Event)),
	}
}

// On adds an event listener
func (a *SerialAdapter) On(eventType EventType, handler func(Event)) {
	a.listenersMutex.Lock()
	defer a.listenersMutex.Unlock()

	a.eventListeners[eventType] = append(a.eventListeners[eventType], handler)
}

// emit triggers an event
func (a *SerialAdapter) emit(event Event) {
	a.listenersMutex.RLock()
	defer a.listenersMutex.RUnlock()

	if listeners, ok := a.eventListeners[event.Type]; ok {
		for _, handler := range listeners {
			go handler(event)
		}
	}
}

// Open opens and configures the serial device. A connection that is
// already open is closed first.
func (a *SerialAdapter) Open() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !ValidBaudRate(a.cfg.BaudRate) {
		return fmt.Errorf("%w: %d", ErrInvalidBaudRate, a.cfg.BaudRate)
	}

	if a.isOpen {
		log.Printf("Closing %s before reopening", a.cfg.Device)
		a.closeLocked()
	}

	log.Printf("Opening serial port %s at %d baud with flags 0x%x", a.cfg.Device, a.cfg.BaudRate, a.cfg.Flags)
	dev, err := a.openDevice(a.cfg)
	if err != nil {
		return err
	}

	a.dev = dev
	a.isOpen = true
	a.emit(Event{Type: EventConnect, Device: a.cfg.Device})

	return nil
}

// Write sends data to the printer
func (a *SerialAdapter) Write(data []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isOpen {
		return 0, ErrDeviceNotOpen
	}

	if len(data) == 0 {
		return 0, nil
	}

	a.emit(Event{Type: EventData, Device: a.cfg.Device, Data: data})

	n, err := a.dev.Write(data)
	if err != nil {
		return n, fmt.Errorf("write failed: %w", err)
	}

	return n, nil
}

// Close closes the serial device. Closing a closed adapter is a no-op.
func (a *SerialAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isOpen {
		return nil
	}

	a.closeLocked()
	return nil
}

// closeLocked releases the device; close errors are logged, not returned.
func (a *SerialAdapter) closeLocked() {
	if a.dev != nil {
		if err := a.dev.Close(); err != nil {
			log.Printf("Error closing %s: %v", a.cfg.Device, err)
		}
		a.dev = nil
	}

	a.isOpen = false
	a.emit(Event{Type: EventClose, Device: a.cfg.Device})
}

// IsOpen returns whether the device is open
func (a *SerialAdapter) IsOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isOpen
}

// Config returns the configuration the adapter opens the device with
func (a *SerialAdapter) Config() SerialConfig {
	return a.cfg
}
