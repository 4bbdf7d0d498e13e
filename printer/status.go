package printer

import (
	"errors"
	"fmt"

	"github.com/nixxel-company-limited/escpos-serial-printer/adapter"
	"github.com/nixxel-company-limited/escpos-serial-printer/escpos"
)

// Status is the integer result code reported to calling applications
type Status int

const (
	StatusSuccess              Status = 0
	StatusFail                 Status = 2000
	StatusFindPrinterFail      Status = 2001
	StatusConnectPrinterFail   Status = 2002
	StatusBluetoothPasswordErr Status = 2003 // reserved
	StatusParamRangeErr        Status = 2004
	StatusParamFormatErr       Status = 2005
	StatusLackingPaper         Status = 2006 // reserved
	StatusDeviceNotOpen        Status = 2007
)

var statusText = map[Status]string{
	StatusSuccess:              "success",
	StatusFail:                 "failure",
	StatusFindPrinterFail:      "unsupported printer type",
	StatusConnectPrinterFail:   "cannot connect to printer",
	StatusBluetoothPasswordErr: "bluetooth password error",
	StatusParamRangeErr:        "parameter out of range",
	StatusParamFormatErr:       "parameter format error",
	StatusLackingPaper:         "out of paper",
	StatusDeviceNotOpen:        "printer device not open",
}

func (s Status) String() string {
	if text, ok := statusText[s]; ok {
		return text
	}
	return fmt.Sprintf("status %d", int(s))
}

// Error lets a non-success Status travel as an error value.
func (s Status) Error() string {
	return s.String()
}

// StatusOf converts an error returned by this package, or by the adapter
// and escpos packages, to its status code. A nil error is StatusSuccess.
func StatusOf(err error) Status {
	if err == nil {
		return StatusSuccess
	}

	var status Status
	if errors.As(err, &status) {
		return status
	}

	switch {
	case errors.Is(err, escpos.ErrParamRange):
		return StatusParamRangeErr
	case errors.Is(err, adapter.ErrDeviceNotOpen):
		return StatusDeviceNotOpen
	case errors.Is(err, adapter.ErrInvalidBaudRate),
		errors.Is(err, adapter.ErrDeviceOpenFailed),
		errors.Is(err, adapter.ErrDeviceConfigureFailed):
		return StatusConnectPrinterFail
	default:
		return StatusFail
	}
}
