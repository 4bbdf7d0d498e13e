package server

import (
	"sort"

	"github.com/nixxel-company-limited/escpos-serial-printer/printer"
)

// Request is one call from a client. Only the fields the method uses are
// read; missing numbers default to zero.
type Request struct {
	Method      string `json:"method"`
	PrinterType int    `json:"printerType,omitempty"`
	DeviceID    string `json:"deviceId,omitempty"`
	Password    string `json:"password,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	N           int    `json:"n,omitempty"`
	Content     string `json:"content,omitempty"`
}

// Response carries the status code of a call
type Response struct {
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
	Version []int  `json:"version,omitempty"`
}

type handler func(p *printer.Printer, req *Request) Response

var methods = map[string]handler{
	"openPrinter": func(p *printer.Printer, req *Request) Response {
		return result(p.Open(req.PrinterType, req.DeviceID, req.Password))
	},
	"closePrinter": func(p *printer.Printer, req *Request) Response {
		return result(p.Close())
	},
	"getPrinterVersion": getPrinterVersion,
	"initialPrinter": func(p *printer.Printer, req *Request) Response {
		return result(p.Initialize())
	},
	"setZoom": func(p *printer.Printer, req *Request) Response {
		return result(p.SetZoom(req.Width, req.Height))
	},
	"setAlignType": func(p *printer.Printer, req *Request) Response {
		return result(p.SetAlignment(req.N))
	},
	"setLeftMargin": func(p *printer.Printer, req *Request) Response {
		return result(p.SetLeftMargin(req.N))
	},
	"setRightMargin": func(p *printer.Printer, req *Request) Response {
		return result(p.SetRightMargin(req.N))
	},
	"setLineSpacing": func(p *printer.Printer, req *Request) Response {
		return result(p.SetLineSpacing(req.N))
	},
	"setWordSpacing": func(p *printer.Printer, req *Request) Response {
		return result(p.SetWordSpacing(req.N))
	},
	"setPrintOrientation": func(p *printer.Printer, req *Request) Response {
		return result(p.SetPrintOrientation(req.N))
	},
	"setBold": func(p *printer.Printer, req *Request) Response {
		return result(p.SetBold(req.N))
	},
	"setUnderline": func(p *printer.Printer, req *Request) Response {
		return result(p.SetUnderline(req.N))
	},
	"setInverse": func(p *printer.Printer, req *Request) Response {
		return result(p.SetInverse(req.N))
	},
	"print": func(p *printer.Printer, req *Request) Response {
		return result(p.Print(req.Content))
	},
	"printHTML": func(p *printer.Printer, req *Request) Response {
		return result(p.PrintHTML(req.Content))
	},
}

func getPrinterVersion(p *printer.Printer, req *Request) Response {
	buf := make([]byte, 3)
	resp := result(p.GetVersion(buf))
	if resp.Status == int(printer.StatusSuccess) {
		resp.Version = []int{int(buf[0]), int(buf[1]), int(buf[2])}
	}
	return resp
}

func result(err error) Response {
	status := printer.StatusOf(err)
	resp := Response{Status: int(status)}
	if err != nil {
		resp.Message = err.Error()
	}
	return resp
}

// Methods returns the names of all methods a client can call
func Methods() []string {
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs req against p. Unknown methods are a format error.
func Dispatch(p *printer.Printer, req *Request) Response {
	h, ok := methods[req.Method]
	if !ok {
		return Response{
			Status:  int(printer.StatusParamFormatErr),
			Message: "unknown method " + req.Method,
		}
	}
	return h(p, req)
}
