// Package escpos builds the control sequences understood by the internal
// thermal printer. Every builder validates its parameters and returns a
// fresh buffer; nothing here performs I/O.
package escpos

import (
	"errors"
	"fmt"
)

// Lead-in bytes
const (
	ESC = 0x1B
	GS  = 0x1D
)

// Alignment values for Align
const (
	AlignLeft   = 0
	AlignCenter = 1
	AlignRight  = 2
)

// Orientation values for Orientation
const (
	OrientationHorizontal = 0
	OrientationRotated    = 1
)

const (
	MinZoom = 1
	MaxZoom = 8

	MaxLeftMargin = 0xFFFF

	// DefaultLineSpacing is the line spacing, in dots, applied by Initialize
	DefaultLineSpacing = 8
)

// ErrParamRange is returned when a parameter is outside its accepted range
var ErrParamRange = errors.New("parameter out of range")

func rangeError(name string, v, min, max int) error {
	return fmt.Errorf("%w: %s=%d, want %d..%d", ErrParamRange, name, v, min, max)
}

func checkRange(name string, v, min, max int) error {
	if v < min || v > max {
		return rangeError(name, v, min, max)
	}
	return nil
}

// Initialize resets the printer and restores the default layout: 1x1 zoom,
// left alignment, zero left margin, default line spacing, no underline and
// no inverse printing.
func Initialize() []byte {
	return []byte{
		// reset
		ESC, '@',
		// zoom 1x1
		GS, '!', 0x00,
		ESC, 'a', AlignLeft,
		// left margin 0
		GS, 'L', 0x00, 0x00,
		ESC, '3', DefaultLineSpacing,
		// underline and inverse off
		ESC, '-', 0x00,
		GS, 'B', 0x00,
	}
}

// Zoom scales characters by width x height, each in 1..8. The width goes
// to the high nibble and the height to the low nibble.
func Zoom(width, height int) ([]byte, error) {
	if err := checkRange("width", width, MinZoom, MaxZoom); err != nil {
		return nil, err
	}
	if err := checkRange("height", height, MinZoom, MaxZoom); err != nil {
		return nil, err
	}

	n := byte(width-1)<<4 | byte(height-1)
	return []byte{GS, '!', n}, nil
}

// Align sets the justification of following lines
func Align(alignment int) ([]byte, error) {
	if err := checkRange("alignment", alignment, AlignLeft, AlignRight); err != nil {
		return nil, err
	}
	return []byte{ESC, 'a', byte(alignment)}, nil
}

// LeftMargin sets the left margin in dots as a little-endian uint16
func LeftMargin(n int) ([]byte, error) {
	if err := checkRange("n", n, 0, MaxLeftMargin); err != nil {
		return nil, err
	}
	return []byte{GS, 'L', byte(n), byte(n >> 8)}, nil
}

// LineSpacing sets the line spacing in vertical dots
func LineSpacing(n int) ([]byte, error) {
	if err := checkRange("n", n, 0, 0xFF); err != nil {
		return nil, err
	}
	return []byte{ESC, '3', byte(n)}, nil
}

// WordSpacing validates a character spacing value. The printer has no such
// setting, so there is nothing to send.
func WordSpacing(n int) error {
	return checkRange("n", n, 0, 0xFF)
}

// Orientation selects horizontal or rotated printing
func Orientation(orientation int) ([]byte, error) {
	if err := checkRange("orientation", orientation, OrientationHorizontal, OrientationRotated); err != nil {
		return nil, err
	}
	return []byte{ESC, 'V', byte(orientation)}, nil
}

// Underline turns underlining off (0) or on (1)
func Underline(n int) ([]byte, error) {
	if err := checkRange("n", n, 0, 1); err != nil {
		return nil, err
	}
	return []byte{ESC, '-', byte(n)}, nil
}

// Inverse turns white-on-black printing off (0) or on (1)
func Inverse(n int) ([]byte, error) {
	if err := checkRange("n", n, 0, 1); err != nil {
		return nil, err
	}
	return []byte{GS, 'B', byte(n)}, nil
}

// Text returns the bytes of s unmodified. Control characters are not escaped.
func Text(s string) []byte {
	return []byte(s)
}
