package websocket

// Client -> Server control messages. Game actions (flow, answers,
// power-ups) go over the HTTP surfaces; the socket is a push channel.
const (
	MessageTypePing = "ping"
	MessageTypePong = "pong"
)

const MessageTypeError = "error"

type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
