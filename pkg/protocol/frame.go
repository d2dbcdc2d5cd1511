package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	// MaxMessageLength is the maximum chat message length in characters,
	// measured on the trimmed body. The raw body is what goes on the wire.
	MaxMessageLength = 12000

	// ChatPath is the websocket endpoint path on the w3chat server.
	ChatPath = "/ws/chat"

	// LoginPath is the HTTP endpoint that exchanges a signed message for a token.
	LoginPath = "/auth/login"
)

// Frame type tags.
const (
	TypeAck            = "ack"
	TypeChannelRequest = "channel_request"
	TypeChannelApprove = "channel_approve"
	TypeChannelReject  = "channel_reject"
	TypeInfo           = "info"
	TypeMessage        = "message"
	TypeChat           = "channel" // outbound chat text
	TypeError          = "error"
	TypePing           = "ping"
	TypePong           = "pong"
)

// Info message literals the server uses to signal channel lifecycle events.
const (
	InfoChannelCreated = "Channel created"
	InfoRejectedPrefix = "Channel request rejected by"
)

var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrUnknownType    = errors.New("unknown frame type")
)

// Frame is the decoded form of one inbound wire frame. Which payload fields
// are meaningful depends on Type.
type Frame struct {
	Type    string `json:"type"`
	From    string `json:"from,omitempty"`
	Channel string `json:"channel,omitempty"`
	Message string `json:"message,omitempty"`
	Data    string `json:"data,omitempty"`
}

// DecodeFrame parses a raw inbound frame. A JSON parse failure returns
// ErrMalformedFrame; a missing or unrecognized type tag returns
// ErrUnknownType. Either way the caller drops the frame locally and the
// connection is unaffected.
func DecodeFrame(raw []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	switch f.Type {
	case TypeAck, TypeChannelRequest, TypeInfo, TypeMessage, TypeError, TypePong:
		return &f, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, f.Type)
	}
}
