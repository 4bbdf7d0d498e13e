package printer

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/nixxel-company-limited/escpos-serial-printer/adapter"
	"github.com/nixxel-company-limited/escpos-serial-printer/escpos"
)

// PrinterTypeInternal identifies the built-in serial printer, the only
// printer type this driver handles
const PrinterTypeInternal = 4

// Config holds the fixed properties of a printer build
type Config struct {
	// Version is reported by GetVersion as major, minor, patch
	Version [3]byte
}

// DefaultConfig returns the configuration of the current driver build
func DefaultConfig() Config {
	return Config{
		Version: [3]byte{0, 0, 1},
	}
}

// Printer is a connection to one printer. All operations are serialised,
// so a Printer can be shared between goroutines.
type Printer struct {
	link    adapter.Adapter
	version [3]byte
	mu      sync.Mutex
	logger  *log.Logger
}

// New creates a printer that talks through link
func New(link adapter.Adapter, cfg Config) *Printer {
	logger := log.New(os.Stdout, "[PRINTER] ", log.LstdFlags|log.Lmsgprefix)
	return NewWithLogger(link, cfg, logger)
}

// NewWithLogger creates a printer with a custom logger
func NewWithLogger(link adapter.Adapter, cfg Config, logger *log.Logger) *Printer {
	return &Printer{
		link:    link,
		version: cfg.Version,
		logger:  logger,
	}
}

// Open connects to the printer. Only PrinterTypeInternal is accepted;
// deviceID and password are kept for interface compatibility and ignored.
func (p *Printer) Open(printerType int, deviceID, password string) error {
	if printerType != PrinterTypeInternal {
		p.logger.Printf("Error: printer type %d not supported, this driver is for the internal printer", printerType)
		return StatusFindPrinterFail
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.link.Open(); err != nil {
		p.logger.Printf("Error: failed to initialize serial port: %v", err)
		return fmt.Errorf("open printer: %w", err)
	}

	p.logger.Println("Printer opened")
	return nil
}

// Close disconnects from the printer. Closing a closed printer succeeds.
func (p *Printer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.link.Close(); err != nil {
		p.logger.Printf("Error closing printer: %v", err)
		return fmt.Errorf("close printer: %w", err)
	}
	return nil
}

// IsOpen returns whether the printer connection is open
func (p *Printer) IsOpen() bool {
	return p.link.IsOpen()
}

// Version returns the driver version triple
func (p *Printer) Version() [3]byte {
	return p.version
}

// GetVersion copies the version triple into buf, which must hold at least
// three bytes. The device is not consulted.
func (p *Printer) GetVersion(buf []byte) error {
	if len(buf) < len(p.version) {
		return StatusParamFormatErr
	}
	copy(buf, p.version[:])
	return nil
}

// Initialize resets the printer to its default layout
func (p *Printer) Initialize() error {
	return p.write("initialize", escpos.Initialize())
}

// SetZoom scales characters; width and height are in 1..8
func (p *Printer) SetZoom(width, height int) error {
	buf, err := escpos.Zoom(width, height)
	if err != nil {
		return err
	}
	return p.write("set zoom", buf)
}

// SetAlignment sets left (0), center (1) or right (2) alignment
func (p *Printer) SetAlignment(alignment int) error {
	buf, err := escpos.Align(alignment)
	if err != nil {
		return err
	}
	return p.write("set alignment", buf)
}

// SetLeftMargin sets the left margin in dots, 0..65535
func (p *Printer) SetLeftMargin(n int) error {
	buf, err := escpos.LeftMargin(n)
	if err != nil {
		return err
	}
	return p.write("set left margin", buf)
}

// SetRightMargin is not supported by the printer and does nothing
func (p *Printer) SetRightMargin(n int) error {
	return nil
}

// SetLineSpacing sets the line spacing in vertical dots, 0..255
func (p *Printer) SetLineSpacing(n int) error {
	buf, err := escpos.LineSpacing(n)
	if err != nil {
		return err
	}
	return p.write("set line spacing", buf)
}

// SetWordSpacing checks n against 0..255. The printer has no character
// spacing setting, so nothing is sent.
func (p *Printer) SetWordSpacing(n int) error {
	return escpos.WordSpacing(n)
}

// SetPrintOrientation selects horizontal (0) or rotated (1) printing
func (p *Printer) SetPrintOrientation(orientation int) error {
	buf, err := escpos.Orientation(orientation)
	if err != nil {
		return err
	}
	return p.write("set print orientation", buf)
}

// SetBold is not supported by the printer and does nothing
func (p *Printer) SetBold(n int) error {
	return nil
}

// SetUnderline turns underlining off (0) or on (1)
func (p *Printer) SetUnderline(n int) error {
	buf, err := escpos.Underline(n)
	if err != nil {
		return err
	}
	return p.write("set underline", buf)
}

// SetInverse turns inverse printing off (0) or on (1)
func (p *Printer) SetInverse(n int) error {
	buf, err := escpos.Inverse(n)
	if err != nil {
		return err
	}
	return p.write("set inverse", buf)
}

// Print sends text to the printer as is
func (p *Printer) Print(text string) error {
	return p.write("print", escpos.Text(text))
}

// PrintHTML sends markup to the printer as is. Tags are not interpreted.
func (p *Printer) PrintHTML(markup string) error {
	return p.write("print html", escpos.Text(markup))
}

// write sends one command buffer in a single adapter call
func (p *Printer) write(op string, buf []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.link.IsOpen() {
		p.logger.Printf("Error: %s: printer device not open", op)
		return StatusDeviceNotOpen
	}

	n, err := p.link.Write(buf)
	if err != nil {
		p.logger.Printf("Error: %s: %v", op, err)
		if errors.Is(err, adapter.ErrDeviceNotOpen) {
			return StatusDeviceNotOpen
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	p.logger.Printf("%s: wrote %d bytes", op, n)
	return nil
}
