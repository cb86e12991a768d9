package session

import (
	"time"

	"github.com/park285/cheese-session/internal/clocksync"
	"github.com/park285/cheese-session/internal/color"
	"github.com/park285/cheese-session/internal/premove"
)

// Derived values are computed from a State copy on every call and never cached.

// IsMyTurn reports whether the local player is to move in an active game.
func (st State) IsMyTurn() bool {
	return st.Phase == PhaseInGame && st.Game != nil && st.Game.IsMyTurn
}

// LocalColor returns the local player's side, or None outside a game.
func (st State) LocalColor() color.Color {
	if st.Game == nil {
		return color.None
	}
	return st.Game.Color
}

// Remaining projects the clocks at now. ok is false when there is no snapshot.
func (st State) Remaining(now time.Time) (clocksync.Display, bool) {
	if st.Timer == nil {
		return clocksync.Display{}, false
	}
	return clocksync.Remaining(*st.Timer, now), true
}

// PendingPremove returns the queued premove, if any.
func (st State) PendingPremove() (premove.Move, bool) {
	return st.Premove.Peek()
}

// Terminal reports whether the session holds a concluded game.
func (st State) Terminal() bool { return st.Phase == PhaseGameOver }
