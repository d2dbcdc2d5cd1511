package client

// ConnectionInterface defines the interface for the socket connection.
// This allows for mocking in tests while the real Connection implements all
// these methods.
type ConnectionInterface interface {
	// Connection management
	Connect(token string) error
	Disconnect()
	Close()
	IsConnected() bool
	State() ConnState

	// Frame sending
	Send(v interface{}) error

	// Channels for receiving data
	Incoming() <-chan []byte
	Errors() <-chan error
	StateChanges() <-chan StateChange
}

// Store is the narrow durable key-value capability the persistence bridge
// writes through. Implementations must survive a page-reload analog (process
// restart) but need no transactional guarantees.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}
