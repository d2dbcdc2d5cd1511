package client

import (
	"encoding/json"
	"log"
)

// Storage keys, kept byte-compatible with the browser client so a store
// migrated from sessionStorage restores cleanly.
const (
	keyNotifications    = "w3chat_notifications"
	keyRejectionNotices = "w3chat_reject_notifications"
	keyUnreadIndex      = "w3chat_new_messages"
	keySession          = "w3chat_user"
)

// Bridge reads and writes the persisted collections through the durable
// key-value store and reconciles them on restore. Every load tolerates a
// missing or corrupt value by returning the empty collection; persistence is
// best effort and never fails an operation.
type Bridge struct {
	store  Store
	logger *log.Logger
}

// NewBridge wraps a store.
func NewBridge(store Store, logger *log.Logger) *Bridge {
	return &Bridge{store: store, logger: logger}
}

func (b *Bridge) logf(format string, args ...interface{}) {
	if b.logger != nil {
		b.logger.Printf(format, args...)
	}
}

func (b *Bridge) loadMap(key string, out interface{}) {
	raw, ok := b.store.Get(key)
	if !ok || raw == "" {
		return
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		b.logf("Failed to parse persisted %s, starting empty: %v", key, err)
	}
}

func (b *Bridge) saveMap(key string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		b.logf("Failed to serialize %s: %v", key, err)
		return
	}
	if err := b.store.Set(key, string(raw)); err != nil {
		b.logf("Failed to persist %s: %v", key, err)
	}
}

// LoadNotifications returns the persisted pending channel requests.
func (b *Bridge) LoadNotifications() map[string]ChannelRequestNotification {
	out := make(map[string]ChannelRequestNotification)
	b.loadMap(keyNotifications, &out)
	return out
}

// SaveNotifications writes through the pending channel requests.
func (b *Bridge) SaveNotifications(m map[string]ChannelRequestNotification) {
	b.saveMap(keyNotifications, m)
}

// LoadRejectionNotices returns the persisted rejection notices keyed by id.
func (b *Bridge) LoadRejectionNotices() map[string]RejectionNotice {
	out := make(map[string]RejectionNotice)
	b.loadMap(keyRejectionNotices, &out)
	for id, n := range out {
		n.ID = id
		out[id] = n
	}
	return out
}

// SaveRejectionNotices writes through the rejection notices.
func (b *Bridge) SaveRejectionNotices(m map[string]RejectionNotice) {
	b.saveMap(keyRejectionNotices, m)
}

// ClearRejectionNotices removes the persisted rejection notices (logout).
func (b *Bridge) ClearRejectionNotices() {
	if err := b.store.Remove(keyRejectionNotices); err != nil {
		b.logf("Failed to clear %s: %v", keyRejectionNotices, err)
	}
}

// LoadUnreadIndex returns the persisted undelivered messages per channel.
func (b *Bridge) LoadUnreadIndex() map[string][]Message {
	out := make(map[string][]Message)
	b.loadMap(keyUnreadIndex, &out)
	return out
}

// SaveUnreadIndex writes through the unread-message index.
func (b *Bridge) SaveUnreadIndex(m map[string][]Message) {
	b.saveMap(keyUnreadIndex, m)
}

// LoadSession returns the persisted session, if one exists.
func (b *Bridge) LoadSession() (Session, bool) {
	raw, ok := b.store.Get(keySession)
	if !ok || raw == "" {
		return Session{}, false
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		b.logf("Failed to parse persisted session: %v", err)
		return Session{}, false
	}
	if s.Token == "" || s.Address == "" {
		return Session{}, false
	}
	return s, true
}

// SaveSession persists the session for restore after reload.
func (b *Bridge) SaveSession(s Session) {
	b.saveMap(keySession, s)
}

// ClearSession removes the persisted session.
func (b *Bridge) ClearSession() {
	if err := b.store.Remove(keySession); err != nil {
		b.logf("Failed to clear %s: %v", keySession, err)
	}
}
