// Package sessiondto defines the JSON shapes exchanged with the game server and the
// read-only view handed to display code.
package sessiondto

import "encoding/json"

// Inbound event types.
const (
	TypeMatchFound       = "match_found"
	TypePositionUpdate   = "position_update"
	TypeTimerSnapshot    = "timer_snapshot"
	TypeGameEnded        = "game_ended"
	TypeSearching        = "searching"
	TypeMatched          = "matched"
	TypeMatchmakingError = "error"
)

// Outbound message types.
const (
	TypeMove       = "move"
	TypeJoinQueue  = "join_queue"
	TypeLeaveQueue = "leave_queue"
)

// Envelope is one frame from the game server. Seq is set only by servers that number
// their events.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Seq     *uint64         `json:"seq,omitempty"`
}

// Outbound wraps a client request sent over the socket.
type Outbound struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId"`
	Payload   any    `json:"payload"`
}
