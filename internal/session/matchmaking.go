package session

import (
	"strings"
	"time"
)

const defaultMatchmakingError = "matchmaking failed"

// BeginMatchmaking starts a search for wager, clearing any previous match or error.
func (s *Service) BeginMatchmaking(wager float64) {
	s.mutate("matchmaking_begin", func(st *State, _ time.Time) (bool, string) {
		st.Matchmaking = MatchmakingState{Status: MatchConnecting, Wager: wager}
		return true, ""
	})
}

// SetMatchmakingStatus changes only the status. Unknown statuses are ignored, and
// so is matched, which only RecordMatch may set.
func (s *Service) SetMatchmakingStatus(status MatchmakingStatus) {
	s.mutate("matchmaking_status", func(st *State, _ time.Time) (bool, string) {
		if !status.Valid() || status == MatchMatched {
			return false, GuardBadStatus
		}
		st.Matchmaking.Status = status
		return true, ""
	})
}

// RecordMatch records a found opponent. Status and every match field change together.
func (s *Service) RecordMatch(m Match) {
	s.mutate("matchmaking_matched", func(st *State, _ time.Time) (bool, string) {
		next := st.Matchmaking
		next.Status = MatchMatched
		next.MatchID = m.MatchID
		next.DBMatchID = m.DBMatchID
		next.OpponentID = strings.TrimSpace(m.OpponentID)
		next.Color = m.Color
		next.Error = ""
		if m.Wager != nil {
			next.Wager = *m.Wager
		}
		st.Matchmaking = next
		return true, ""
	})
}

// RecordMatchmakingError marks the search failed. Prior match fields are kept.
func (s *Service) RecordMatchmakingError(msg string) {
	s.mutate("matchmaking_error", func(st *State, _ time.Time) (bool, string) {
		msg = strings.TrimSpace(msg)
		if msg == "" {
			msg = defaultMatchmakingError
		}
		st.Matchmaking.Status = MatchError
		st.Matchmaking.Error = msg
		return true, ""
	})
}

// ResetMatchmaking returns matchmaking to idle without touching the session phase.
func (s *Service) ResetMatchmaking() {
	s.mutate("matchmaking_reset", func(st *State, _ time.Time) (bool, string) {
		st.Matchmaking = idleMatchmaking()
		return true, ""
	})
}
