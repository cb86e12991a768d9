// Package gamelink talks to the game server: a WebSocket for pushed events and a
// fasthttp REST client for requests.
package gamelink

import (
	"errors"
	"fmt"
)

// State is the WebSocket connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateFailed       State = "failed"
)

// MessageCallback receives one raw text frame.
type MessageCallback func(raw []byte)

type StateCallback func(state State)

// HeaderProvider supplies headers for each request and handshake.
type HeaderProvider func() map[string]string

var (
	ErrNotConnected = errors.New("gamelink: websocket not connected")
	ErrMoveRejected = errors.New("gamelink: move rejected")
)

// APIError is a non-2xx reply from the game API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("game api error: status=%d code=%s message=%s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("game api error: status=%d body=%s", e.Status, e.Message)
}

// AuthHeaders builds a provider that sends a bearer token and the player id.
func AuthHeaders(token, playerID string) HeaderProvider {
	return func() map[string]string {
		h := map[string]string{"X-Player-Id": playerID}
		if token != "" {
			h["Authorization"] = "Bearer " + token
		}
		return h
	}
}
