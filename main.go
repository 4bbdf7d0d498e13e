package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nixxel-company-limited/escpos-serial-printer/adapter"
	"github.com/nixxel-company-limited/escpos-serial-printer/config"
	"github.com/nixxel-company-limited/escpos-serial-printer/printer"
	"github.com/nixxel-company-limited/escpos-serial-printer/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	log.Printf("Server will listen on: %s", cfg.ServerAddress)
	log.Printf("Printer device: %s at %d baud", cfg.Serial.Device, cfg.Serial.BaudRate)

	link := adapter.NewSerialAdapter(cfg.Serial)
	link.On(adapter.EventConnect, func(e adapter.Event) {
		log.Printf("Printer connected on %s", e.Device)
	})
	link.On(adapter.EventClose, func(e adapter.Event) {
		log.Printf("Printer disconnected from %s", e.Device)
	})

	p := printer.New(link, printer.DefaultConfig())
	defer p.Close()

	svr := server.New(p, cfg.ServerAddress)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Printf("Received %s, shutting down", sig)
		if err := svr.Stop(); err != nil {
			log.Printf("Error stopping server: %v", err)
		}
	}()

	if err := svr.Start(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
