package client

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/w3chat/w3chat-client/pkg/protocol"
)

// ConnState is a named state of the connection state machine.
type ConnState int

const (
	StateIdle ConnState = iota
	StateConnecting
	StateOpen
	StateClosed
	StateFailed
)

func (s ConnState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// StateChange is delivered on the state-change channel whenever the
// connection transitions.
type StateChange struct {
	State ConnState
	Err   error
}

// DefaultConnectTimeout bounds how long a Connect call may stay unresolved.
const DefaultConnectTimeout = 3 * time.Second

var (
	ErrNotConnected      = errors.New("websocket not connected")
	ErrAlreadyConnecting = errors.New("connect already in progress")
	ErrConnectTimeout    = errors.New("websocket connection timed out")
	ErrConnectionClosed  = errors.New("connection closed")
)

// Connection owns the single live socket handle. One instance is live per
// session; reconnection is an explicit new Connect call, never automatic.
type Connection struct {
	serverURL      string // e.g. "ws://host:6880"
	connectTimeout time.Duration
	logger         *log.Logger

	mu     sync.Mutex
	state  ConnState
	ws     *websocket.Conn
	cancel chan struct{} // open while a Connect is pending; closing it aborts the attempt

	incoming    chan []byte
	errs        chan error
	stateChange chan StateChange

	shutdown chan struct{}
	closed   bool
	wg       sync.WaitGroup
}

// NewConnection creates a connection manager for the given server URL
// ("ws://host:port" or "wss://host:port"). Zero timeout means
// DefaultConnectTimeout.
func NewConnection(serverURL string, connectTimeout time.Duration) *Connection {
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	return &Connection{
		serverURL:      serverURL,
		connectTimeout: connectTimeout,
		state:          StateIdle,
		incoming:       make(chan []byte, 100),
		errs:           make(chan error, 10),
		stateChange:    make(chan StateChange, 10),
		shutdown:       make(chan struct{}),
	}
}

// SetLogger sets a logger for debugging connection events.
func (c *Connection) SetLogger(logger *log.Logger) {
	c.logger = logger
}

func (c *Connection) logf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

// chatURL builds the websocket endpoint URL with the token as query parameter.
func (c *Connection) chatURL(token string) (string, error) {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server scheme %q", u.Scheme)
	}
	u.Path = protocol.ChatPath
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Connect dials the chat endpoint with the session token. Exactly one of
// success, dial error, timeout, or caller-initiated close resolves the call;
// whichever fires first wins and the others are discarded. A pending Connect
// is never left unresolved.
func (c *Connection) Connect(token string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrConnectionClosed
	}
	if c.state == StateConnecting || c.state == StateOpen {
		c.mu.Unlock()
		return ErrAlreadyConnecting
	}
	cancel := make(chan struct{})
	c.cancel = cancel
	c.transitionLocked(StateConnecting, nil)
	c.mu.Unlock()

	target, err := c.chatURL(token)
	if err != nil {
		return c.resolveFailed(err)
	}

	c.logf("Connecting to %s...", c.serverURL)

	results := make(chan dialResult, 1)
	dialer := websocket.Dialer{HandshakeTimeout: c.connectTimeout}
	go func() {
		ws, _, err := dialer.Dial(target, nil)
		results <- dialResult{ws, err}
	}()

	timer := time.NewTimer(c.connectTimeout)
	defer timer.Stop()

	select {
	case r := <-results:
		if r.err != nil {
			c.logf("Connect failed: %v", r.err)
			return c.resolveFailed(fmt.Errorf("failed to connect websocket: %w", r.err))
		}
		c.mu.Lock()
		if c.state != StateConnecting {
			// Lost the race against Disconnect/Close; the attempt was
			// already resolved as a failure.
			c.mu.Unlock()
			r.ws.Close()
			return ErrConnectionClosed
		}
		c.ws = r.ws
		c.cancel = nil
		c.transitionLocked(StateOpen, nil)
		c.mu.Unlock()
		c.logf("Websocket connected")
		c.wg.Add(1)
		go c.readLoop(r.ws)
		return nil

	case <-timer.C:
		c.logf("Websocket connection timed out after %s", c.connectTimeout)
		c.discardDial(results)
		return c.resolveFailed(ErrConnectTimeout)

	case <-cancel:
		c.logf("Connect aborted by caller")
		c.discardDial(results)
		return c.resolveClosed()
	}
}

// discardDial closes whatever the in-flight dial eventually produces so a
// stale handle is never reused.
func (c *Connection) discardDial(results <-chan dialResult) {
	go func() {
		if r := <-results; r.ws != nil {
			r.ws.Close()
		}
	}()
}

func (c *Connection) resolveFailed(err error) error {
	c.mu.Lock()
	c.cancel = nil
	c.ws = nil
	if c.state == StateConnecting {
		c.transitionLocked(StateFailed, err)
	}
	c.mu.Unlock()
	return err
}

func (c *Connection) resolveClosed() error {
	c.mu.Lock()
	c.cancel = nil
	c.ws = nil
	if c.state == StateConnecting {
		c.transitionLocked(StateClosed, nil)
	}
	c.mu.Unlock()
	return ErrConnectionClosed
}

// transitionLocked is the single transition point. Callers hold c.mu.
func (c *Connection) transitionLocked(next ConnState, err error) {
	if c.state == next {
		return
	}
	c.logf("Connection state: %s -> %s", c.state, next)
	c.state = next
	select {
	case c.stateChange <- StateChange{State: next, Err: err}:
	default:
		c.logf("State change channel full, dropping %s notification", next)
	}
}

// Send marshals v as JSON and writes it as one text frame. Not being in the
// Open state is an error and nothing is written.
func (c *Connection) Send(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateOpen || c.ws == nil {
		return ErrNotConnected
	}
	if err := c.ws.WriteJSON(v); err != nil {
		return fmt.Errorf("write error: %w", err)
	}
	return nil
}

// Disconnect closes the socket cleanly. From Open this is a caller-initiated
// transition to Closed, not an error. A pending Connect resolves as closed.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	switch c.state {
	case StateConnecting:
		if c.cancel != nil {
			close(c.cancel)
			c.cancel = nil
		}
		c.mu.Unlock()
	case StateOpen:
		ws := c.ws
		c.ws = nil
		c.transitionLocked(StateClosed, nil)
		c.mu.Unlock()
		if ws != nil {
			ws.Close()
		}
	default:
		c.mu.Unlock()
	}
}

// Close shuts the connection down permanently and releases its channels.
func (c *Connection) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	close(c.shutdown)
	c.Disconnect()
	c.wg.Wait()
	close(c.incoming)
	close(c.errs)
	close(c.stateChange)
}

// IsConnected reports whether the connection is in the Open state.
func (c *Connection) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateOpen
}

// State returns the current connection state.
func (c *Connection) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Incoming returns the channel delivering raw inbound frames.
func (c *Connection) Incoming() <-chan []byte {
	return c.incoming
}

// Errors returns the channel for transport errors.
func (c *Connection) Errors() <-chan error {
	return c.errs
}

// StateChanges returns the channel for connection state transitions.
func (c *Connection) StateChanges() <-chan StateChange {
	return c.stateChange
}

type dialResult struct {
	ws  *websocket.Conn
	err error
}

// readLoop reads frames from the socket until it fails or is closed. Frames
// are delivered in socket order; the engine consumes them one at a time.
func (c *Connection) readLoop(ws *websocket.Conn) {
	defer c.wg.Done()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			c.mu.Lock()
			wasOpen := c.state == StateOpen && c.ws == ws
			if wasOpen {
				c.ws = nil
				readErr := fmt.Errorf("websocket closed: %w", err)
				c.transitionLocked(StateClosed, readErr)
				c.mu.Unlock()
				c.logf("Read error: %v", err)
				select {
				case c.errs <- readErr:
				case <-c.shutdown:
				}
				return
			}
			// Caller-initiated close already transitioned the state.
			c.mu.Unlock()
			return
		}

		select {
		case c.incoming <- data:
		case <-c.shutdown:
			return
		}
	}
}
