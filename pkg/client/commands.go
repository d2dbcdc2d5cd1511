package client

import (
	"errors"
	"log"
	"strings"

	"github.com/w3chat/w3chat-client/pkg/protocol"
)

// Validation failures. Each is a local no-op: the command is not sent and no
// frame round-trip occurs.
var (
	ErrInvalidAddress  = errors.New("invalid recipient address")
	ErrSelfChannel     = errors.New("cannot create channel with self")
	ErrEmptyMessage    = errors.New("cannot send empty message")
	ErrMessageTooLong  = errors.New("message too long")
	ErrNoSelection     = errors.New("no channel selected")
	ErrChannelMismatch = errors.New("channel is not the selected one")
)

// CommandSender validates and serializes user-initiated commands before
// handing them to the connection. It never sends a malformed command.
type CommandSender struct {
	conn   ConnectionInterface
	logger *log.Logger
}

// NewCommandSender wraps a connection.
func NewCommandSender(conn ConnectionInterface, logger *log.Logger) *CommandSender {
	return &CommandSender{conn: conn, logger: logger}
}

func (s *CommandSender) logf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

// ChannelRequest validates the recipient and sends a channel_request frame.
// The input is trimmed and lowercased before validation.
func (s *CommandSender) ChannelRequest(sessionAddress, to string) error {
	recipient := protocol.NormalizeAddress(to)
	if !protocol.ValidAddress(recipient) {
		s.logf("Invalid recipient address")
		return ErrInvalidAddress
	}
	if protocol.SameAddress(recipient, sessionAddress) {
		s.logf("Cannot create channel with self")
		return ErrSelfChannel
	}
	if err := s.conn.Send(protocol.NewChannelRequest(recipient)); err != nil {
		s.logf("Channel request not sent: %v", err)
		return err
	}
	s.logf("Sent channel request for %s", recipient)
	return nil
}

// Approve sends a channel_approve frame. The id is a pass-through, assumed
// valid because a notification existed for it.
func (s *CommandSender) Approve(channel string) error {
	if err := s.conn.Send(protocol.NewChannelApprove(channel)); err != nil {
		s.logf("Approve not sent for channel %s: %v", channel, err)
		return err
	}
	s.logf("Sent channel_approve for channel %s", channel)
	return nil
}

// Reject sends a channel_reject frame.
func (s *CommandSender) Reject(channel string) error {
	if err := s.conn.Send(protocol.NewChannelReject(channel)); err != nil {
		s.logf("Reject not sent for channel %s: %v", channel, err)
		return err
	}
	s.logf("Sent channel_reject for channel %s", channel)
	return nil
}

// Chat sends chat text into the selected channel. The length check runs on
// the trimmed body but the raw body is what goes on the wire.
func (s *CommandSender) Chat(selected, channel, body string) error {
	if body == "" {
		s.logf("Cannot send empty message")
		return ErrEmptyMessage
	}
	if len(strings.TrimSpace(body)) > protocol.MaxMessageLength {
		s.logf("Message too long (max %d characters)", protocol.MaxMessageLength)
		return ErrMessageTooLong
	}
	if selected == "" {
		s.logf("No channel selected")
		return ErrNoSelection
	}
	if channel != selected {
		s.logf("Channel %s is not the selected one", channel)
		return ErrChannelMismatch
	}
	if err := s.conn.Send(protocol.NewChat(channel, body)); err != nil {
		s.logf("Message not sent to channel %s: %v", channel, err)
		return err
	}
	s.logf("Sent message to channel %s", channel)
	return nil
}

// Ping sends a keepalive probe.
func (s *CommandSender) Ping() error {
	return s.conn.Send(protocol.NewPing())
}
