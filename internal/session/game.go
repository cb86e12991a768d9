package session

import (
	"strings"
	"time"

	"github.com/park285/cheese-session/internal/clocksync"
	"github.com/park285/cheese-session/internal/color"
	"github.com/park285/cheese-session/internal/premove"
)

// StartSearching moves an idle session into searching.
func (s *Service) StartSearching() bool {
	return s.mutate("start_searching", func(st *State, _ time.Time) (bool, string) {
		if st.Phase != PhaseIdle {
			return false, GuardNotIdle
		}
		st.Phase = PhaseSearching
		return true, ""
	})
}

// EnterGame starts a fresh game from any phase. Any previous result, clock snapshot
// and premove belong to the old game and are dropped.
func (s *Service) EnterGame(p EnterParams) {
	s.mutate("enter_game", func(st *State, _ time.Time) (bool, string) {
		st.Phase = PhaseInGame
		st.Game = &GameSnapshot{
			GameID:       p.GameID,
			DBGameID:     p.DBGameID,
			Color:        p.Color,
			Position:     p.Position,
			Turn:         color.White,
			IsMyTurn:     p.Color == color.White,
			PlayerName:   p.PlayerName,
			OpponentName: p.OpponentName,
			Wager:        p.Wager,
		}
		st.Result = nil
		st.Timer = nil
		st.Premove.Clear()
		return true, ""
	})
}

// ApplyPositionUpdate replaces the position and side to move of the current game.
func (s *Service) ApplyPositionUpdate(position string, turn color.Color) {
	s.mutate("position_update", func(st *State, _ time.Time) (bool, string) {
		if st.Game == nil {
			return false, GuardNoGame
		}
		st.Game.Position = position
		st.Game.Turn = turn
		st.Game.IsMyTurn = turn.Valid() && st.Game.Color == turn
		return true, ""
	})
}

// ResolveGameEnd concludes the active game. It returns false, changing nothing, when the
// notification is a duplicate, arrives outside a game, or a result already exists.
func (s *Service) ResolveGameEnd(p EndParams) bool {
	return s.mutate("resolve_game_end", func(st *State, now time.Time) (bool, string) {
		if st.Phase == PhaseGameOver {
			return false, GuardAlreadyOver
		}
		if st.Phase != PhaseInGame {
			return false, GuardNotInGame
		}
		if st.Game == nil {
			return false, GuardNoGame
		}
		if st.Result != nil {
			return false, GuardResultExists
		}

		reason := strings.TrimSpace(p.Reason)
		isWin := p.Winner.Valid() && p.Winner == st.Game.Color
		isDraw := !p.Winner.Valid() && !IsDisconnectReason(reason)
		kind := pickMessage(p.OpponentDisconnected, isDraw, isWin)

		res := &GameEndResult{
			GameID:               st.Game.GameID,
			Reason:               reason,
			Winner:               p.Winner,
			IsWin:                isWin,
			IsDraw:               isDraw,
			OpponentDisconnected: p.OpponentDisconnected,
			Message:              renderMessage(s.catalog, kind, reason, p.CreditsChange),
			EndedAt:              now,
		}
		if p.CreditsChange != nil {
			c := *p.CreditsChange
			res.CreditsChange = &c
		}

		st.Result = res
		st.Phase = PhaseGameOver
		st.Timer = nil
		st.Premove.Clear()
		return true, ""
	})
}

// Reset returns every field, matchmaking included, to its initial value.
func (s *Service) Reset() {
	s.mutate("reset", func(st *State, _ time.Time) (bool, string) {
		rev := st.Revision
		*st = initialState()
		st.Revision = rev
		return true, ""
	})
}

// ClearGameEndResult dismisses the result. The phase is left alone, so a session in
// game_over stays there until Reset or EnterGame.
func (s *Service) ClearGameEndResult() {
	s.mutate("clear_result", func(st *State, _ time.Time) (bool, string) {
		if st.Result == nil {
			return false, GuardNoResult
		}
		st.Result = nil
		return true, ""
	})
}

// SetTimerSnapshot stores a server clock reading for the active game.
func (s *Service) SetTimerSnapshot(snap clocksync.Snapshot) bool {
	return s.mutate("timer_snapshot", func(st *State, _ time.Time) (bool, string) {
		if st.Phase != PhaseInGame {
			return false, GuardNotInGame
		}
		if st.Game == nil {
			return false, GuardNoGame
		}
		st.Timer = &snap
		return true, ""
	})
}

func (s *Service) ClearTimerSnapshot() {
	s.mutate("timer_clear", func(st *State, _ time.Time) (bool, string) {
		if st.Timer == nil {
			return false, GuardEmpty
		}
		st.Timer = nil
		return true, ""
	})
}

// SetPremove queues m, replacing any earlier premove.
func (s *Service) SetPremove(m premove.Move) bool {
	return s.mutate("premove_set", func(st *State, _ time.Time) (bool, string) {
		if st.Phase != PhaseInGame {
			return false, GuardNotInGame
		}
		st.Premove.Set(m)
		return true, ""
	})
}

func (s *Service) ClearPremove() {
	s.mutate("premove_clear", func(st *State, _ time.Time) (bool, string) {
		if st.Premove.Empty() {
			return false, GuardEmpty
		}
		st.Premove.Clear()
		return true, ""
	})
}

// TakePremove removes and returns the queued premove in one step.
func (s *Service) TakePremove() (premove.Move, bool) {
	var (
		m  premove.Move
		ok bool
	)
	s.mutate("premove_take", func(st *State, _ time.Time) (bool, string) {
		m, ok = st.Premove.Take()
		if !ok {
			return false, GuardEmpty
		}
		return true, ""
	})
	return m, ok
}

// Restore loads a persisted state into a fresh session. It only applies while the
// session is idle with no game, and never restores clocks or premoves.
func (s *Service) Restore(saved State) bool {
	return s.mutate("restore", func(st *State, _ time.Time) (bool, string) {
		if st.Phase != PhaseIdle || st.Game != nil {
			return false, GuardNotIdle
		}
		if !consistent(saved) {
			return false, GuardInconsistent
		}
		restored := saved.clone()
		restored.Timer = nil
		restored.Premove.Clear()
		if !restored.Matchmaking.Status.Valid() {
			restored.Matchmaking = idleMatchmaking()
		}
		restored.Revision = st.Revision
		*st = restored
		return true, ""
	})
}

func consistent(st State) bool {
	switch st.Phase {
	case PhaseIdle, PhaseSearching:
		return st.Game == nil && st.Result == nil
	case PhaseInGame:
		return st.Game != nil && st.Result == nil
	case PhaseGameOver:
		return st.Game != nil
	}
	return false
}
