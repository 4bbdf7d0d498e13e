package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"

	"github.com/nixxel-company-limited/escpos-serial-printer/printer"
)

// maxRequestSize bounds one request line, print content included
const maxRequestSize = 1 << 20

// Server represents a TCP server that forwards printer requests to a printer
type Server struct {
	printer  *printer.Printer
	listener net.Listener
	address  string
	conns    map[net.Conn]struct{}
	mu       sync.Mutex
	running  bool
	wg       sync.WaitGroup
	logger   *log.Logger
}

// New creates a new server instance
func New(p *printer.Printer, address string) *Server {
	logger := log.New(os.Stdout, "[SERVER] ", log.LstdFlags|log.Lmsgprefix)
	return NewWithLogger(p, address, logger)
}

// NewWithLogger creates a new server instance with a custom logger
func NewWithLogger(p *printer.Printer, address string, logger *log.Logger) *Server {
	return &Server{
		printer: p,
		address: address,
		conns:   make(map[net.Conn]struct{}),
		logger:  logger,
	}
}

// Start starts the TCP server and blocks until Stop is called
func (s *Server) Start() error {
	s.logger.Printf("Starting server on %s (blocking mode)", s.address)

	if err := s.listen(); err != nil {
		return err
	}

	// Block and accept connections (freezes current goroutine)
	s.logger.Println("Ready to accept connections")
	s.acceptConnections()

	return nil
}

// StartAsync starts the TCP server in a goroutine (non-blocking)
func (s *Server) StartAsync() error {
	s.logger.Printf("Starting server on %s (async mode)", s.address)

	if err := s.listen(); err != nil {
		return err
	}

	go s.acceptConnections()
	s.logger.Println("Server started in background, ready to accept connections")

	return nil
}

func (s *Server) listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Println("Error: Server already running")
		return fmt.Errorf("server already running")
	}

	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		s.logger.Printf("Error: Failed to start server: %v", err)
		return fmt.Errorf("failed to start server: %w", err)
	}

	s.listener = listener
	s.running = true
	s.wg.Add(1)
	s.logger.Printf("Server listening on %s", listener.Addr())

	return nil
}

// acceptConnections handles incoming client connections
func (s *Server) acceptConnections() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			running := s.running
			s.mu.Unlock()

			if !running {
				// Server is shutting down
				s.logger.Println("Server shutting down, stopping accept loop")
				return
			}
			s.logger.Printf("Error accepting connection: %v", err)
			continue
		}

		s.mu.Lock()
		if !s.running {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.wg.Add(1)
		s.mu.Unlock()

		s.logger.Printf("Client connected from %s", conn.RemoteAddr())
		go s.handleConnection(conn)
	}
}

// handleConnection serves newline-delimited JSON requests on one connection
func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()

		s.logger.Printf("Client disconnected: %s", conn.RemoteAddr())
		conn.Close()
	}()

	clientAddr := conn.RemoteAddr().String()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 4096), maxRequestSize)
	encoder := json.NewEncoder(conn)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		resp := s.handleRequest(line)
		if err := encoder.Encode(resp); err != nil {
			s.logger.Printf("Error writing to client %s: %v", clientAddr, err)
			return
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
		s.logger.Printf("Error reading from client %s: %v", clientAddr, err)
		if errors.Is(err, bufio.ErrTooLong) {
			_ = encoder.Encode(Response{
				Status:  int(printer.StatusParamFormatErr),
				Message: "request too large",
			})
		}
		return
	}
	s.logger.Printf("Client %s closed connection", clientAddr)
}

// handleRequest decodes and dispatches one request line
func (s *Server) handleRequest(line []byte) Response {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		s.logger.Printf("Error: malformed request: %v", err)
		return Response{
			Status:  int(printer.StatusParamFormatErr),
			Message: fmt.Sprintf("malformed request: %v", err),
		}
	}

	resp := Dispatch(s.printer, &req)
	s.logger.Printf("%s -> %d", req.Method, resp.Status)
	return resp
}

// Stop stops the TCP server, disconnects clients and closes the printer
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		s.logger.Println("Stop called but server is not running")
		return nil
	}

	s.logger.Println("Stopping server...")
	s.running = false
	listener := s.listener
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	if listener != nil {
		s.logger.Println("Closing listener...")
		listener.Close()
	}

	// Wait for all connections to finish
	s.logger.Println("Waiting for active connections to close...")
	s.wg.Wait()
	s.logger.Println("All connections closed")

	if s.printer.IsOpen() {
		s.logger.Println("Closing printer...")
		if err := s.printer.Close(); err != nil {
			s.logger.Printf("Error closing printer: %v", err)
			return err
		}
		s.logger.Println("Printer closed")
	}

	s.logger.Println("Server stopped successfully")
	return nil
}

// IsRunning returns whether the server is running
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Address returns the configured server address
func (s *Server) Address() string {
	return s.address
}

// Addr returns the address the server is listening on, or nil when stopped
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	return s.listener.Addr()
}

// GetPrinter returns the underlying printer
func (s *Server) GetPrinter() *printer.Printer {
	return s.printer
}
