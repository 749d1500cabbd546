package protocol

// MessageType represents a WebSocket message type with type safety
type MessageType string

// Client → Server message types
const (
	TypeJoin   MessageType = "join"
	TypeAction MessageType = "action"
)

// Server → Client message types. TypeAction is also sent to announce an
// accepted action.
const (
	TypeWaiting    MessageType = "waiting"
	TypeMatchStart MessageType = "match_start"
	TypeHand       MessageType = "hand"
	TypeCommunity  MessageType = "community"
	TypeTurn       MessageType = "turn"
	TypeYourTurn   MessageType = "your_turn"
	TypeTimeout    MessageType = "timeout"
	TypeKicked     MessageType = "kicked"
	TypeInfo       MessageType = "info"
	TypeShowdown   MessageType = "showdown"
	TypeWinner     MessageType = "winner"
	TypeGameOver   MessageType = "game_over"
	TypeError      MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// Error codes sent in ErrorData besides the engine's validation codes
const (
	CodeBadMessage    = "bad_message"
	CodeUnknownType   = "unknown_type"
	CodeAlreadyJoined = "already_joined"
	CodeNotJoined     = "not_joined"
	CodeMatchOver     = "match_over"
	CodeJoinTimeout   = "join_timeout"
	CodeServerFull    = "server_full"
)
