package protocol

// Outbound commands. Each serializes to a single JSON frame; the zero-valued
// fields of the chat command are never omitted because the server requires
// both channel and data to be present.

// ChannelRequestCommand asks the server to open a channel with another address.
type ChannelRequestCommand struct {
	Type string `json:"type"`
	To   string `json:"to"`
}

// NewChannelRequest builds a channel_request command.
func NewChannelRequest(to string) ChannelRequestCommand {
	return ChannelRequestCommand{Type: TypeChannelRequest, To: to}
}

// ChannelApproveCommand accepts a pending channel request.
type ChannelApproveCommand struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
}

// NewChannelApprove builds a channel_approve command.
func NewChannelApprove(channel string) ChannelApproveCommand {
	return ChannelApproveCommand{Type: TypeChannelApprove, Channel: channel}
}

// ChannelRejectCommand declines a pending channel request.
type ChannelRejectCommand struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
}

// NewChannelReject builds a channel_reject command.
func NewChannelReject(channel string) ChannelRejectCommand {
	return ChannelRejectCommand{Type: TypeChannelReject, Channel: channel}
}

// ChatCommand sends chat text into a channel. The wire type is "channel".
type ChatCommand struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
	Data    string `json:"data"`
}

// NewChat builds a chat command for the given channel.
func NewChat(channel, data string) ChatCommand {
	return ChatCommand{Type: TypeChat, Channel: channel, Data: data}
}

// PingCommand is the keepalive probe; the server answers with a pong frame.
type PingCommand struct {
	Type string `json:"type"`
}

// NewPing builds a ping command.
func NewPing() PingCommand {
	return PingCommand{Type: TypePing}
}
