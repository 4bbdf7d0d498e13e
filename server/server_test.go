package server

import (
	"bufio"
	"encoding/json"
	"io"
	"log"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nixxel-company-limited/escpos-serial-printer/adapter"
	"github.com/nixxel-company-limited/escpos-serial-printer/printer"
)

// MockAdapter is a mock implementation of the Adapter interface for testing
type MockAdapter struct {
	mu        sync.Mutex
	open      bool
	writeData []byte
}

func (m *MockAdapter) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = true
	return nil
}

func (m *MockAdapter) Write(data []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return 0, adapter.ErrDeviceNotOpen
	}
	m.writeData = append(m.writeData, data...)
	return len(data), nil
}

func (m *MockAdapter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = false
	return nil
}

func (m *MockAdapter) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

func (m *MockAdapter) written() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.writeData...)
}

var quiet = log.New(io.Discard, "", 0)

func newTestServer(t *testing.T) (*Server, *MockAdapter) {
	t.Helper()
	mockAdapter := &MockAdapter{}
	p := printer.NewWithLogger(mockAdapter, printer.DefaultConfig(), quiet)
	return NewWithLogger(p, "localhost:0", quiet), mockAdapter
}

// client sends requests over one connection and decodes the replies
type client struct {
	conn   net.Conn
	reader *bufio.Reader
}

func dial(t *testing.T, server *Server) *client {
	t.Helper()
	conn, err := net.Dial("tcp", server.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &client{conn: conn, reader: bufio.NewReader(conn)}
}

func (c *client) sendRaw(t *testing.T, line string) Response {
	t.Helper()
	require.NoError(t, c.conn.SetDeadline(time.Now().Add(2*time.Second)))

	_, err := c.conn.Write([]byte(line + "\n"))
	require.NoError(t, err)

	reply, err := c.reader.ReadBytes('\n')
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(reply, &resp))
	return resp
}

func (c *client) call(t *testing.T, req Request) Response {
	t.Helper()
	line, err := json.Marshal(req)
	require.NoError(t, err)
	return c.sendRaw(t, string(line))
}

func TestNewServer(t *testing.T) {
	mockAdapter := &MockAdapter{}
	p := printer.New(mockAdapter, printer.DefaultConfig())
	address := "localhost:9100"

	server := New(p, address)

	assert.NotNil(t, server)
	assert.Equal(t, address, server.Address())
	assert.False(t, server.IsRunning())
	assert.Nil(t, server.Addr())
	assert.Equal(t, p, server.GetPrinter())
}

func TestServerStartStop(t *testing.T) {
	server, mockAdapter := newTestServer(t)

	// Test start async (non-blocking)
	err := server.StartAsync()
	require.NoError(t, err)
	assert.True(t, server.IsRunning())
	assert.NotNil(t, server.Addr())

	// The printer is opened by clients, not by the server
	assert.False(t, mockAdapter.IsOpen())

	// Test double start
	err = server.StartAsync()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already running")

	// Test stop
	err = server.Stop()
	require.NoError(t, err)
	assert.False(t, server.IsRunning())

	// Test double stop (should not error)
	err = server.Stop()
	assert.NoError(t, err)
}

func TestServerPrintSession(t *testing.T) {
	server, mockAdapter := newTestServer(t)
	require.NoError(t, server.StartAsync())
	defer server.Stop()

	c := dial(t, server)

	resp := c.call(t, Request{Method: "print", Content: "ABC"})
	assert.Equal(t, int(printer.StatusDeviceNotOpen), resp.Status)
	assert.NotEmpty(t, resp.Message)

	resp = c.call(t, Request{Method: "openPrinter", PrinterType: printer.PrinterTypeInternal})
	require.Equal(t, 0, resp.Status)
	assert.Empty(t, resp.Message)

	steps := []Request{
		{Method: "setZoom", Width: 8, Height: 8},
		{Method: "setLeftMargin", N: 256},
		{Method: "setRightMargin", N: 10},
		{Method: "setBold", N: 1},
		{Method: "setWordSpacing", N: 4},
		{Method: "print", Content: "ABC"},
	}
	for _, req := range steps {
		resp := c.call(t, req)
		assert.Equal(t, 0, resp.Status, req.Method)
	}

	assert.Equal(t, []byte{
		0x1D, 0x21, 0x77,
		0x1D, 0x4C, 0x00, 0x01,
		0x41, 0x42, 0x43,
	}, mockAdapter.written())

	resp = c.call(t, Request{Method: "closePrinter"})
	assert.Equal(t, 0, resp.Status)
	assert.False(t, mockAdapter.IsOpen())
}

func TestServerStatusCodes(t *testing.T) {
	server, mockAdapter := newTestServer(t)
	require.NoError(t, server.StartAsync())
	defer server.Stop()

	c := dial(t, server)

	resp := c.call(t, Request{Method: "openPrinter", PrinterType: 1})
	assert.Equal(t, 2001, resp.Status)
	assert.False(t, mockAdapter.IsOpen())

	require.Equal(t, 0, c.call(t, Request{Method: "openPrinter", PrinterType: 4}).Status)

	testCases := []struct {
		req  Request
		want int
	}{
		{Request{Method: "setZoom", Width: 0, Height: 1}, 2004},
		{Request{Method: "setAlignType", N: 3}, 2004},
		{Request{Method: "setLeftMargin", N: 65536}, 2004},
		{Request{Method: "setLineSpacing", N: 256}, 2004},
		{Request{Method: "setWordSpacing", N: -1}, 2004},
		{Request{Method: "setPrintOrientation", N: 2}, 2004},
		{Request{Method: "setUnderline", N: 2}, 2004},
		{Request{Method: "setInverse", N: -1}, 2004},
		{Request{Method: "setAlignType", N: 2}, 0},
		{Request{Method: "setLineSpacing", N: 8}, 0},
		{Request{Method: "setPrintOrientation", N: 1}, 0},
		{Request{Method: "setUnderline", N: 1}, 0},
		{Request{Method: "setInverse", N: 1}, 0},
		{Request{Method: "initialPrinter"}, 0},
		{Request{Method: "printHTML", Content: "<b>x</b>"}, 0},
		{Request{Method: "feedPaper"}, 2005},
	}

	for _, tc := range testCases {
		resp := c.call(t, tc.req)
		assert.Equal(t, tc.want, resp.Status, "%+v", tc.req)
	}
}

func TestServerGetPrinterVersion(t *testing.T) {
	server, mockAdapter := newTestServer(t)
	require.NoError(t, server.StartAsync())
	defer server.Stop()

	c := dial(t, server)

	resp := c.call(t, Request{Method: "getPrinterVersion"})
	assert.Equal(t, 0, resp.Status)
	assert.Equal(t, []int{0, 0, 1}, resp.Version)
	assert.Empty(t, mockAdapter.written())
}

func TestServerMalformedRequest(t *testing.T) {
	server, _ := newTestServer(t)
	require.NoError(t, server.StartAsync())
	defer server.Stop()

	c := dial(t, server)

	resp := c.sendRaw(t, "{not json")
	assert.Equal(t, int(printer.StatusParamFormatErr), resp.Status)
	assert.Contains(t, resp.Message, "malformed request")

	resp = c.sendRaw(t, `{"method":"setZoom","width":"two"}`)
	assert.Equal(t, int(printer.StatusParamFormatErr), resp.Status)

	// the connection survives bad input
	resp = c.sendRaw(t, `{"method":"getPrinterVersion"}`)
	assert.Equal(t, 0, resp.Status)
}

func TestServerMultipleConnections(t *testing.T) {
	server, mockAdapter := newTestServer(t)
	require.NoError(t, server.StartAsync())
	defer server.Stop()

	opener := dial(t, server)
	require.Equal(t, 0, opener.call(t, Request{Method: "openPrinter", PrinterType: 4}).Status)

	// Create multiple connections and send from each before reading any reply
	numConnections := 3
	clients := make([]*client, numConnections)
	for i := range clients {
		clients[i] = dial(t, server)
		line, err := json.Marshal(Request{Method: "print", Content: string(rune('a' + i))})
		require.NoError(t, err)
		_, err = clients[i].conn.Write(append(line, '\n'))
		require.NoError(t, err)
	}

	for _, c := range clients {
		require.NoError(t, c.conn.SetDeadline(time.Now().Add(2*time.Second)))
		reply, err := c.reader.ReadBytes('\n')
		require.NoError(t, err)

		var resp Response
		require.NoError(t, json.Unmarshal(reply, &resp))
		assert.Equal(t, 0, resp.Status)
	}

	written := string(mockAdapter.written())
	assert.Len(t, written, numConnections)
	for _, want := range []string{"a", "b", "c"} {
		assert.True(t, strings.Contains(written, want), want)
	}
}

func TestServerStopDisconnectsClients(t *testing.T) {
	server, mockAdapter := newTestServer(t)
	require.NoError(t, server.StartAsync())

	c := dial(t, server)
	require.Equal(t, 0, c.call(t, Request{Method: "openPrinter", PrinterType: 4}).Status)

	done := make(chan error)
	go func() { done <- server.Stop() }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() did not return with a client connected")
	}

	// Stop closes the printer
	assert.False(t, mockAdapter.IsOpen())

	_, err := c.reader.ReadBytes('\n')
	assert.Error(t, err)
}

func TestServerInvalidAddress(t *testing.T) {
	p := printer.NewWithLogger(&MockAdapter{}, printer.DefaultConfig(), quiet)
	server := NewWithLogger(p, "invalid:address:9100", quiet)

	err := server.StartAsync()
	assert.Error(t, err)
	assert.False(t, server.IsRunning())
}

func TestServerStartBlocking(t *testing.T) {
	server, _ := newTestServer(t)

	// Start server in a goroutine since it blocks
	started := make(chan error)
	go func() {
		started <- server.Start()
	}()

	require.Eventually(t, server.IsRunning, time.Second, 10*time.Millisecond)

	c := dial(t, server)
	resp := c.call(t, Request{Method: "getPrinterVersion"})
	assert.Equal(t, 0, resp.Status)

	// Stop server
	require.NoError(t, server.Stop())

	// Wait for Start() to return
	select {
	case err := <-started:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Start() did not return after Stop()")
	}
}

func TestMethods(t *testing.T) {
	assert.Equal(t, []string{
		"closePrinter",
		"getPrinterVersion",
		"initialPrinter",
		"openPrinter",
		"print",
		"printHTML",
		"setAlignType",
		"setBold",
		"setInverse",
		"setLeftMargin",
		"setLineSpacing",
		"setPrintOrientation",
		"setRightMargin",
		"setUnderline",
		"setWordSpacing",
		"setZoom",
	}, Methods())
}
