package client

import (
	"github.com/google/uuid"
)

// ChannelRequestNotification is a pending incoming channel request. At most
// one is pending per channel id; a later request overwrites the earlier one.
type ChannelRequestNotification struct {
	Channel string `json:"channel"`
	From    string `json:"from"`
}

// RejectionNotice records that a channel request of ours was declined. It is
// keyed by a generated id rather than the channel, because several rejections
// may reference the same channel and each must be dismissible on its own.
type RejectionNotice struct {
	ID      string `json:"-"`
	Message string `json:"message"`
}

// NotificationStore tracks pending channel requests and rejection notices.
// Its lifecycle is independent from the channel registry; the engine
// serializes access and handles persistence write-through.
type NotificationStore struct {
	requests map[string]ChannelRequestNotification // keyed by channel id
	notices  map[string]RejectionNotice            // keyed by generated id
}

// NewNotificationStore creates an empty store.
func NewNotificationStore() *NotificationStore {
	return &NotificationStore{
		requests: make(map[string]ChannelRequestNotification),
		notices:  make(map[string]RejectionNotice),
	}
}

// UpsertRequest adds or replaces the pending request for its channel.
func (s *NotificationStore) UpsertRequest(n ChannelRequestNotification) {
	s.requests[n.Channel] = n
}

// Request returns the pending request for a channel, if any.
func (s *NotificationStore) Request(channel string) (ChannelRequestNotification, bool) {
	n, ok := s.requests[channel]
	return n, ok
}

// RemoveRequest drops the pending request for a channel.
func (s *NotificationStore) RemoveRequest(channel string) {
	delete(s.requests, channel)
}

// Requests returns a snapshot of all pending requests keyed by channel id.
func (s *NotificationStore) Requests() map[string]ChannelRequestNotification {
	out := make(map[string]ChannelRequestNotification, len(s.requests))
	for k, v := range s.requests {
		out[k] = v
	}
	return out
}

// AddNotice stores a rejection notice under a fresh id and returns it.
func (s *NotificationStore) AddNotice(message string) RejectionNotice {
	n := RejectionNotice{ID: uuid.NewString(), Message: message}
	s.notices[n.ID] = n
	return n
}

// PutNotice restores a persisted rejection notice under its original id.
func (s *NotificationStore) PutNotice(n RejectionNotice) {
	s.notices[n.ID] = n
}

// RemoveNotice drops a rejection notice. Reports whether it existed.
func (s *NotificationStore) RemoveNotice(id string) bool {
	if _, ok := s.notices[id]; !ok {
		return false
	}
	delete(s.notices, id)
	return true
}

// Notices returns a snapshot of all rejection notices keyed by id.
func (s *NotificationStore) Notices() map[string]RejectionNotice {
	out := make(map[string]RejectionNotice, len(s.notices))
	for k, v := range s.notices {
		out[k] = v
	}
	return out
}

// ClearNotices drops all rejection notices (logout behavior).
func (s *NotificationStore) ClearNotices() {
	s.notices = make(map[string]RejectionNotice)
}
