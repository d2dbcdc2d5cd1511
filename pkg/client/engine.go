package client

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/w3chat/w3chat-client/pkg/protocol"
)

var (
	ErrNoSession          = errors.New("no stored session")
	ErrSessionMismatch    = errors.New("wallet address does not match stored session")
	ErrTokenExpired       = errors.New("stored session token expired")
	ErrUnknownChannel     = errors.New("unknown channel")
	ErrNoSuchNotification = errors.New("no such notification")
)

// Decision resolves a pending channel request.
type Decision int

const (
	DecisionApprove Decision = iota
	DecisionReject
)

// Config configures an Engine.
type Config struct {
	// ServerURL is the chat server base URL, e.g. "ws://localhost:6880".
	ServerURL string
	// Store is the durable key-value store the persistence bridge writes
	// through. Required.
	Store Store
	// ConnectTimeout bounds a connect attempt. Zero means the default (3s).
	ConnectTimeout time.Duration
	// PingInterval is the keepalive period while connected. Zero disables
	// keepalive.
	PingInterval time.Duration
	// Logger receives debug output. Nil silences it.
	Logger *log.Logger
	// Registerer publishes engine metrics. Nil keeps them local.
	Registerer prometheus.Registerer
	// Connection overrides the real websocket connection, for tests.
	Connection ConnectionInterface
}

// Engine reconciles the three racing sources of truth: live socket frames,
// the durable store, and the in-memory selection state. All mutation flows
// through its methods; the frame loop and the caller share one mutex, so
// each handler runs to completion before the next event is processed.
type Engine struct {
	conn    ConnectionInterface
	sender  *CommandSender
	bridge  *Bridge
	metrics *Metrics
	logger  *log.Logger

	pingInterval time.Duration

	mu       sync.Mutex
	session  Session
	registry *ChannelRegistry
	notes    *NotificationStore
	unread   map[string][]Message // mirror of the persisted unread index
	selected string               // currently focused channel id, "" = none

	updates chan Update

	loopOnce  sync.Once
	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewEngine creates an engine. It does not touch the network; call Login or
// Restore to bring a session up.
func NewEngine(cfg Config) *Engine {
	conn := cfg.Connection
	if conn == nil {
		real := NewConnection(cfg.ServerURL, cfg.ConnectTimeout)
		real.SetLogger(cfg.Logger)
		conn = real
	}
	return &Engine{
		conn:         conn,
		sender:       NewCommandSender(conn, cfg.Logger),
		bridge:       NewBridge(cfg.Store, cfg.Logger),
		metrics:      NewMetrics(cfg.Registerer),
		logger:       cfg.Logger,
		pingInterval: cfg.PingInterval,
		registry:     NewChannelRegistry(),
		notes:        NewNotificationStore(),
		unread:       make(map[string][]Message),
		updates:      make(chan Update, 64),
		done:         make(chan struct{}),
	}
}

func (e *Engine) logf(format string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Printf(format, args...)
	}
}

// Updates returns the state-change notification channel for the view layer.
func (e *Engine) Updates() <-chan Update {
	return e.updates
}

// emit delivers an update without ever blocking the frame loop.
func (e *Engine) emit(u Update) {
	select {
	case e.updates <- u:
	default:
		e.logf("Update channel full, dropping notification (kind %d)", u.Kind)
	}
}

// Login persists a freshly authenticated session and brings it online.
func (e *Engine) Login(session Session) error {
	session.Address = protocol.NormalizeAddress(session.Address)
	e.bridge.SaveSession(session)
	return e.begin(session)
}

// Restore replays the stored session after a restart. walletAddress is the
// address the wallet currently exposes; a mismatch against the stored
// session destroys it. An empty walletAddress skips that check.
func (e *Engine) Restore(walletAddress string) error {
	session, ok := e.bridge.LoadSession()
	if !ok {
		return ErrNoSession
	}
	if walletAddress != "" && !protocol.SameAddress(walletAddress, session.Address) {
		e.logf("Connected account does not match stored address")
		e.bridge.ClearSession()
		return ErrSessionMismatch
	}
	if TokenExpired(session.Token) {
		e.logf("Stored session token expired")
		e.bridge.ClearSession()
		return ErrTokenExpired
	}
	return e.begin(session)
}

// begin seeds persisted state into the in-memory stores, then connects.
// Seeding happens strictly before the first frame can arrive.
func (e *Engine) begin(session Session) error {
	e.mu.Lock()
	e.session = session
	e.seedLocked()
	e.mu.Unlock()

	if err := e.conn.Connect(session.Token); err != nil {
		e.metrics.ConnectFailures.Inc()
		return err
	}
	e.metrics.Connects.Inc()

	e.loopOnce.Do(func() {
		e.wg.Add(1)
		go e.loop()
	})
	return nil
}

// seedLocked replays the three persisted collections using the same
// upsert/dedup semantics as live frames. Unread-index entries materialize
// their channels so the unread invariant holds before first render.
func (e *Engine) seedLocked() {
	for _, n := range e.bridge.LoadNotifications() {
		e.notes.UpsertRequest(n)
	}
	for _, n := range e.bridge.LoadRejectionNotices() {
		e.notes.PutNotice(n)
	}

	e.unread = e.bridge.LoadUnreadIndex()
	if e.unread == nil {
		e.unread = make(map[string][]Message)
	}
	for id, msgs := range e.unread {
		other := protocol.OtherParticipant(id, e.session.Address)
		if other == "" {
			e.logf("Dropping persisted unread entry with malformed channel id %q", id)
			delete(e.unread, id)
			continue
		}
		e.registry.Create(id, other)
		for _, m := range msgs {
			m.IsOwn = protocol.SameAddress(m.From, e.session.Address)
			e.registry.Append(id, m)
		}
		e.registry.SetUnread(id, len(msgs) > 0)
	}
	e.logf("Restored %d notifications, %d rejection notices, %d unread channels",
		len(e.notes.Requests()), len(e.notes.Notices()), len(e.unread))
}

// loop consumes socket events one at a time, in delivery order.
func (e *Engine) loop() {
	defer e.wg.Done()

	var ping <-chan time.Time
	if e.pingInterval > 0 {
		t := time.NewTicker(e.pingInterval)
		defer t.Stop()
		ping = t.C
	}

	for {
		select {
		case <-e.done:
			return
		case raw, ok := <-e.conn.Incoming():
			if !ok {
				return
			}
			e.route(raw)
		case err, ok := <-e.conn.Errors():
			if !ok {
				return
			}
			e.logf("Connection error: %v", err)
		case sc, ok := <-e.conn.StateChanges():
			if !ok {
				return
			}
			e.emit(Update{Kind: UpdateConnection, State: sc.State, Err: sc.Err})
		case <-ping:
			if e.conn.IsConnected() {
				if err := e.sender.Ping(); err != nil {
					e.logf("Keepalive ping failed: %v", err)
				}
			}
		}
	}
}

// Session returns the live session.
func (e *Engine) Session() Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// ConnectionState returns the connection's current state.
func (e *Engine) ConnectionState() ConnState {
	return e.conn.State()
}

// ChannelSummary is a view-layer snapshot of one channel.
type ChannelSummary struct {
	ID               string
	OtherParticipant string
	HasUnread        bool
}

// Channels returns the channel list in display order.
func (e *Engine) Channels() []ChannelSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	channels := e.registry.Channels()
	out := make([]ChannelSummary, 0, len(channels))
	for _, ch := range channels {
		out = append(out, ChannelSummary{
			ID:               ch.ID,
			OtherParticipant: ch.OtherParticipant,
			HasUnread:        ch.HasUnread(),
		})
	}
	return out
}

// Messages returns a channel's buffer without touching unread state.
func (e *Engine) Messages(id string) ([]Message, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch := e.registry.Get(id)
	if ch == nil {
		return nil, ErrUnknownChannel
	}
	return ch.Messages(), nil
}

// Notifications returns the pending channel requests keyed by channel id.
func (e *Engine) Notifications() map[string]ChannelRequestNotification {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.notes.Requests()
}

// RejectionNotices returns the rejection notices keyed by id.
func (e *Engine) RejectionNotices() map[string]RejectionNotice {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.notes.Notices()
}

// Selected returns the focused channel id, or "" when none is focused.
func (e *Engine) Selected() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}

// SelectChannel focuses a channel: the previously focused buffer is parked,
// the new one attached, its unread flag cleared and the persisted unread
// entry removed. Returns the full buffer for rendering.
func (e *Engine) SelectChannel(id string) ([]Message, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch := e.registry.Get(id)
	if ch == nil {
		return nil, ErrUnknownChannel
	}

	if e.selected != id {
		// One shared rendering surface: the previous buffer is parked
		// before the new one is attached.
		if e.selected != "" {
			e.logf("Parking message buffer for channel %s", e.selected)
		}
		e.selected = id
	}

	if _, ok := e.unread[id]; ok {
		delete(e.unread, id)
		e.bridge.SaveUnreadIndex(e.unread)
	}
	e.registry.SetUnread(id, false)
	e.emit(Update{Kind: UpdateUnread, Channel: id})

	return ch.Messages(), nil
}

// Deselect drops the focus, e.g. when the view navigates back to the
// channel list. Messages then count as unread for every channel.
func (e *Engine) Deselect() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selected = ""
}

// RequestChannel validates and sends a channel request.
func (e *Engine) RequestChannel(to string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sender.ChannelRequest(e.session.Address, to)
}

// SendChat sends chat text into the focused channel.
func (e *Engine) SendChat(channel, body string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sender.Chat(e.selected, channel, body)
}

// ResolveChannelRequest approves or rejects a pending request. The
// notification is only removed after the send succeeds; with the socket not
// open the resolution aborts and the notification stays pending.
func (e *Engine) ResolveChannelRequest(channel string, decision Decision) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.notes.Request(channel); !ok {
		return ErrNoSuchNotification
	}

	var err error
	switch decision {
	case DecisionApprove:
		err = e.sender.Approve(channel)
	case DecisionReject:
		err = e.sender.Reject(channel)
	default:
		return ErrNoSuchNotification
	}
	if err != nil {
		return err
	}

	e.notes.RemoveRequest(channel)
	e.bridge.SaveNotifications(e.notes.Requests())
	e.emit(Update{Kind: UpdateNotification, Channel: channel})
	return nil
}

// DismissRejectionNotice removes a rejection notice. Dismissal is local
// only; no frame goes out.
func (e *Engine) DismissRejectionNotice(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.notes.RemoveNotice(id) {
		return ErrNoSuchNotification
	}
	e.bridge.SaveRejectionNotices(e.notes.Notices())
	e.emit(Update{Kind: UpdateRejectionNotice, NoticeID: id})
	return nil
}

// Logout closes the socket and destroys the session. Rejection notices are
// cleared; pending requests and the unread index deliberately persist across
// logout.
func (e *Engine) Logout() {
	e.conn.Disconnect()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.session = Session{}
	e.selected = ""
	e.registry = NewChannelRegistry()
	e.unread = make(map[string][]Message)
	e.notes.ClearNotices()
	e.bridge.ClearSession()
	e.bridge.ClearRejectionNotices()
}

// Close shuts the engine down permanently.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		close(e.done)
		e.wg.Wait()
		e.conn.Close()
		close(e.updates)
	})
}
