package adapter

// Adapter defines the interface for printer communication adapters
type Adapter interface {
	// Open opens the connection to the printer, replacing any connection
	// that is already open
	Open() error

	// Write sends data to the printer in a single call
	Write(data []byte) (int, error)

	// Close closes the connection to the printer
	Close() error

	// IsOpen returns whether the connection is open
	IsOpen() bool
}

// EventType represents device events
type EventType int

const (
	EventConnect EventType = iota
	EventData
	EventClose
)

func (t EventType) String() string {
	switch t {
	case EventConnect:
		return "connect"
	case EventData:
		return "data"
	case EventClose:
		return "close"
	default:
		return "unknown"
	}
}

// Event represents a device event
type Event struct {
	Type   EventType
	Device string
	Data   []byte
	Error  error
}
