package client

import (
	"strings"

	"github.com/w3chat/w3chat-client/pkg/protocol"
)

// route parses one raw inbound frame and dispatches it to exactly one
// handler. Parse failures and unknown types are dropped locally and never
// affect connection state. Frames are handled strictly in delivery order;
// handlers never re-enter the router.
func (e *Engine) route(raw []byte) {
	frame, err := protocol.DecodeFrame(raw)
	if err != nil {
		e.metrics.FramesDropped.Inc()
		e.logf("Failed to parse frame: %v", err)
		return
	}
	e.metrics.FramesRouted.WithLabelValues(frame.Type).Inc()

	switch frame.Type {
	case protocol.TypeAck:
		e.handleAck(frame)
	case protocol.TypeChannelRequest:
		e.handleChannelRequest(frame)
	case protocol.TypeInfo:
		e.handleInfo(frame)
	case protocol.TypeMessage:
		e.handleMessage(frame)
	case protocol.TypeError:
		e.handleServerError(frame)
	case protocol.TypePong:
		e.logf("Keepalive pong received")
	}
}

func (e *Engine) handleAck(_ *protocol.Frame) {
	e.logf("Command acknowledged by server")
}

// handleChannelRequest upserts the pending request for its channel: a later
// request for the same channel overwrites the earlier one idempotently.
func (e *Engine) handleChannelRequest(f *protocol.Frame) {
	e.logf("Channel request from %s for channel %s", f.From, f.Channel)

	e.mu.Lock()
	e.notes.UpsertRequest(ChannelRequestNotification{Channel: f.Channel, From: f.From})
	e.bridge.SaveNotifications(e.notes.Requests())
	e.mu.Unlock()

	e.emit(Update{Kind: UpdateNotification, Channel: f.Channel})
}

// handleInfo covers the two info shapes the server pushes: channel creation
// and rejection notices. Anything else is informational only.
func (e *Engine) handleInfo(f *protocol.Frame) {
	switch {
	case f.Message == protocol.InfoChannelCreated && f.Channel != "":
		e.mu.Lock()
		other := protocol.OtherParticipant(f.Channel, e.session.Address)
		if other == "" {
			e.mu.Unlock()
			e.metrics.FramesDropped.Inc()
			e.logf("Dropping creation frame with malformed channel id %q", f.Channel)
			return
		}
		created := e.registry.Create(f.Channel, other)
		e.mu.Unlock()

		// Servers may legitimately re-announce on reconnect.
		if !created {
			e.logf("Channel %s already exists, skipping addition", f.Channel)
			return
		}
		e.logf("Channel %s created", f.Channel)
		e.emit(Update{Kind: UpdateChannelCreated, Channel: f.Channel})

	case strings.HasPrefix(f.Message, protocol.InfoRejectedPrefix):
		e.logf("Channel request rejected: %s", f.Message)

		e.mu.Lock()
		notice := e.notes.AddNotice(f.Message)
		e.bridge.SaveRejectionNotices(e.notes.Notices())
		e.mu.Unlock()

		e.emit(Update{Kind: UpdateRejectionNotice, NoticeID: notice.ID})

	default:
		e.logf("Info message: %s", f.Message)
	}
}

// handleMessage appends to the channel buffer. A message for a channel not
// yet created is dropped, not buffered speculatively. Messages for a channel
// other than the focused one mark it unread and write through the persisted
// unread index.
func (e *Engine) handleMessage(f *protocol.Frame) {
	e.mu.Lock()

	msg := Message{
		From:  f.From,
		Body:  f.Data,
		IsOwn: protocol.SameAddress(f.From, e.session.Address),
	}
	if !e.registry.Append(f.Channel, msg) {
		e.mu.Unlock()
		e.metrics.FramesDropped.Inc()
		e.logf("Message for unknown channel %s dropped", f.Channel)
		return
	}
	e.metrics.MessagesAppended.Inc()

	unreadChanged := false
	if f.Channel != e.selected {
		e.unread[f.Channel] = append(e.unread[f.Channel], msg)
		e.bridge.SaveUnreadIndex(e.unread)
		e.registry.SetUnread(f.Channel, true)
		unreadChanged = true
	}
	e.mu.Unlock()

	e.emit(Update{Kind: UpdateMessage, Channel: f.Channel})
	if unreadChanged {
		e.emit(Update{Kind: UpdateUnread, Channel: f.Channel})
	}
}

func (e *Engine) handleServerError(f *protocol.Frame) {
	e.logf("Error from server: %s", f.Message)
}
