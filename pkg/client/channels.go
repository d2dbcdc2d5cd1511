package client

// Message is one chat message in a channel buffer. Immutable once appended.
// The JSON tags match the persisted unread-index entries.
type Message struct {
	From  string `json:"from"`
	Body  string `json:"data"`
	IsOwn bool   `json:"-"`
}

// Channel is a two-party messaging relationship. The id is opaque and never
// changes after creation; channels are never deleted during a session.
type Channel struct {
	ID               string
	OtherParticipant string
	messages         []Message
	hasUnread        bool
}

// Messages returns a copy of the ordered message buffer.
func (ch *Channel) Messages() []Message {
	out := make([]Message, len(ch.messages))
	copy(out, ch.messages)
	return out
}

// HasUnread reports whether the channel holds messages received while it was
// not the focused one.
func (ch *Channel) HasUnread() bool {
	return ch.hasUnread
}

// ChannelRegistry is the authoritative mapping of channel ids to channel
// state. It is a plain data structure; the engine serializes access.
type ChannelRegistry struct {
	channels map[string]*Channel
	order    []string // display order = creation order
}

// NewChannelRegistry creates an empty registry.
func NewChannelRegistry() *ChannelRegistry {
	return &ChannelRegistry{channels: make(map[string]*Channel)}
}

// Create registers a channel with an empty message buffer. Idempotent: a
// duplicate id is a no-op and reports false, so re-announced creation frames
// after a reconnect leave exactly one entry.
func (r *ChannelRegistry) Create(id, otherParticipant string) bool {
	if _, ok := r.channels[id]; ok {
		return false
	}
	r.channels[id] = &Channel{ID: id, OtherParticipant: otherParticipant}
	r.order = append(r.order, id)
	return true
}

// Get returns the channel for id, or nil if unknown.
func (r *ChannelRegistry) Get(id string) *Channel {
	return r.channels[id]
}

// Append adds a message to the channel's buffer in arrival order. Messages
// for unknown channels are not buffered speculatively; the caller drops the
// frame. Duplicate bodies are valid distinct messages.
func (r *ChannelRegistry) Append(id string, msg Message) bool {
	ch, ok := r.channels[id]
	if !ok {
		return false
	}
	ch.messages = append(ch.messages, msg)
	return true
}

// SetUnread marks or clears the unread flag for a known channel.
func (r *ChannelRegistry) SetUnread(id string, unread bool) {
	if ch, ok := r.channels[id]; ok {
		ch.hasUnread = unread
	}
}

// Channels returns the channels in display order.
func (r *ChannelRegistry) Channels() []*Channel {
	out := make([]*Channel, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.channels[id])
	}
	return out
}

// Len returns the number of registered channels.
func (r *ChannelRegistry) Len() int {
	return len(r.channels)
}
