package client

import (
	"encoding/json"
	"fmt"
	"sync"
)

// MockConnection is a test implementation of ConnectionInterface.
type MockConnection struct {
	mu sync.RWMutex

	// State
	state      ConnState
	connectErr error
	sendErr    error

	// Channels for communication
	incoming    chan []byte
	errs        chan error
	stateChange chan StateChange

	// Sent frames for verification
	SentFrames []interface{}

	// Tokens passed to Connect
	ConnectTokens []string
}

// NewMockConnection creates a new mock connection.
func NewMockConnection() *MockConnection {
	return &MockConnection{
		state:       StateIdle,
		incoming:    make(chan []byte, 100),
		errs:        make(chan error, 10),
		stateChange: make(chan StateChange, 10),
	}
}

// Connect simulates connecting to the server.
func (m *MockConnection) Connect(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ConnectTokens = append(m.ConnectTokens, token)
	if m.connectErr != nil {
		m.state = StateFailed
		return m.connectErr
	}
	m.state = StateOpen
	return nil
}

// Disconnect simulates a clean close.
func (m *MockConnection) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateClosed
}

// Close closes the mock connection and its channels.
func (m *MockConnection) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateClosed
	close(m.incoming)
	close(m.errs)
	close(m.stateChange)
}

// IsConnected reports whether the mock is in the Open state.
func (m *MockConnection) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == StateOpen
}

// State returns the mock's connection state.
func (m *MockConnection) State() ConnState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Send records the frame for verification. When the mock is not Open it
// behaves like the real connection and refuses the send.
func (m *MockConnection) Send(v interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sendErr != nil {
		return m.sendErr
	}
	if m.state != StateOpen {
		return ErrNotConnected
	}
	m.SentFrames = append(m.SentFrames, v)
	return nil
}

// Incoming returns the incoming frame channel.
func (m *MockConnection) Incoming() <-chan []byte {
	return m.incoming
}

// Errors returns the error channel.
func (m *MockConnection) Errors() <-chan error {
	return m.errs
}

// StateChanges returns the state change channel.
func (m *MockConnection) StateChanges() <-chan StateChange {
	return m.stateChange
}

// Test helpers

// SetState forces the mock into a state.
func (m *MockConnection) SetState(s ConnState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

// SetConnectError sets an error to return from Connect().
func (m *MockConnection) SetConnectError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectErr = err
}

// SetSendError sets an error to return from Send().
func (m *MockConnection) SetSendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr = err
}

// SimulateIncoming delivers raw bytes on the incoming channel.
func (m *MockConnection) SimulateIncoming(raw []byte) {
	m.incoming <- raw
}

// SimulateIncomingJSON marshals v and delivers it on the incoming channel.
func (m *MockConnection) SimulateIncomingJSON(v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.incoming <- raw
	return nil
}

// SimulateError delivers an error on the errors channel.
func (m *MockConnection) SimulateError(err error) {
	m.errs <- err
}

// SimulateStateChange delivers a state change notification.
func (m *MockConnection) SimulateStateChange(sc StateChange) {
	m.stateChange <- sc
}

// SentCount returns the number of frames sent.
func (m *MockConnection) SentCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.SentFrames)
}

// LastSent returns the last frame sent, or an error if none.
func (m *MockConnection) LastSent() (interface{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.SentFrames) == 0 {
		return nil, fmt.Errorf("no frames sent")
	}
	return m.SentFrames[len(m.SentFrames)-1], nil
}

// ClearSent clears the sent frame log.
func (m *MockConnection) ClearSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentFrames = nil
}
