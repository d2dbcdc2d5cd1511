package client

// UpdateKind identifies what part of the engine state changed.
type UpdateKind int

const (
	// UpdateChannelCreated fires when a channel appears in the registry.
	UpdateChannelCreated UpdateKind = iota
	// UpdateMessage fires when a message is appended to a channel buffer.
	UpdateMessage
	// UpdateUnread fires when a channel's unread flag changes.
	UpdateUnread
	// UpdateNotification fires when a channel request is added or resolved.
	UpdateNotification
	// UpdateRejectionNotice fires when a rejection notice is added or dismissed.
	UpdateRejectionNotice
	// UpdateConnection fires on connection state transitions.
	UpdateConnection
)

// Update is one state-change notification for the view layer. The engine
// never blocks on a slow consumer; undelivered updates are dropped and the
// view re-reads the snapshot accessors.
type Update struct {
	Kind     UpdateKind
	Channel  string    // set for channel/message/unread/notification kinds
	NoticeID string    // set for rejection notice kinds
	State    ConnState // set for connection kind
	Err      error     // set for connection kind
}
