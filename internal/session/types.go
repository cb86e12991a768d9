// Package session holds the client-side state of one player: the current game, its
// terminal result, the server clock reading, a queued premove and matchmaking progress.
package session

import (
	"time"

	"github.com/park285/cheese-session/internal/clocksync"
	"github.com/park285/cheese-session/internal/color"
	"github.com/park285/cheese-session/internal/premove"
)

// Phase is the coarse lifecycle stage of the session.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseSearching Phase = "searching"
	PhaseInGame    Phase = "in_game"
	PhaseGameOver  Phase = "game_over"
)

// GameSnapshot is one active or just-concluded game.
type GameSnapshot struct {
	GameID       string      `json:"game_id"`
	DBGameID     string      `json:"db_game_id,omitempty"`
	Color        color.Color `json:"color"`
	Position     string      `json:"position"`
	Turn         color.Color `json:"turn"`
	IsMyTurn     bool        `json:"is_my_turn"`
	PlayerName   string      `json:"player_name"`
	OpponentName string      `json:"opponent_name"`
	Wager        float64     `json:"wager"`
}

// GameEndResult is the terminal outcome shown to the player. It is created once per game.
type GameEndResult struct {
	GameID               string      `json:"game_id"`
	Reason               string      `json:"reason"`
	Winner               color.Color `json:"winner,omitempty"`
	IsWin                bool        `json:"is_win"`
	IsDraw               bool        `json:"is_draw"`
	OpponentDisconnected bool        `json:"opponent_disconnected"`
	Message              string      `json:"message"`
	CreditsChange        *float64    `json:"credits_change,omitempty"`
	EndedAt              time.Time   `json:"ended_at"`
}

// MatchmakingStatus tracks the search-for-opponent lifecycle.
type MatchmakingStatus string

const (
	MatchIdle       MatchmakingStatus = "idle"
	MatchConnecting MatchmakingStatus = "connecting"
	MatchSearching  MatchmakingStatus = "searching"
	MatchMatched    MatchmakingStatus = "matched"
	MatchError      MatchmakingStatus = "error"
)

// Valid reports whether s is one of the known statuses.
func (s MatchmakingStatus) Valid() bool {
	switch s {
	case MatchIdle, MatchConnecting, MatchSearching, MatchMatched, MatchError:
		return true
	}
	return false
}

// MatchmakingState is independent of the session phase.
type MatchmakingState struct {
	Status     MatchmakingStatus `json:"status"`
	Wager      float64           `json:"wager"`
	MatchID    string            `json:"match_id,omitempty"`
	DBMatchID  string            `json:"db_match_id,omitempty"`
	OpponentID string            `json:"opponent_id,omitempty"`
	Color      color.Color       `json:"color,omitempty"`
	Error      string            `json:"error,omitempty"`
}

func idleMatchmaking() MatchmakingState {
	return MatchmakingState{Status: MatchIdle}
}

// Match carries the fields recorded together when an opponent is found.
// Wager is optional; nil keeps the wager already being searched for.
type Match struct {
	MatchID    string
	DBMatchID  string
	OpponentID string
	Color      color.Color
	Wager      *float64
}

// EnterParams describes a freshly matched game.
type EnterParams struct {
	GameID       string
	DBGameID     string
	Color        color.Color
	Position     string
	PlayerName   string
	OpponentName string
	Wager        float64
}

// EndParams describes a game_ended notification after coercion.
type EndParams struct {
	Reason               string
	Winner               color.Color
	OpponentDisconnected bool
	CreditsChange        *float64
}

// State is a copy of the whole session container at one revision.
type State struct {
	Phase       Phase               `json:"phase"`
	Game        *GameSnapshot       `json:"game,omitempty"`
	Result      *GameEndResult      `json:"result,omitempty"`
	Timer       *clocksync.Snapshot `json:"timer,omitempty"`
	Premove     premove.Slot        `json:"-"`
	Matchmaking MatchmakingState    `json:"matchmaking"`
	Revision    uint64              `json:"revision"`
}

func initialState() State {
	return State{Phase: PhaseIdle, Matchmaking: idleMatchmaking()}
}

// clone returns a copy that shares nothing mutable with st. Slot contents are never
// mutated in place, so copying the slot value is enough.
func (st State) clone() State {
	out := st
	if st.Game != nil {
		g := *st.Game
		out.Game = &g
	}
	if st.Result != nil {
		r := *st.Result
		if st.Result.CreditsChange != nil {
			c := *st.Result.CreditsChange
			r.CreditsChange = &c
		}
		out.Result = &r
	}
	if st.Timer != nil {
		t := *st.Timer
		out.Timer = &t
	}
	return out
}
