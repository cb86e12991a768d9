// Package history journals the terminal result the client displayed for each game.
// It is a local record, not settlement.
package history

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/park285/cheese-session/internal/color"
	"github.com/park285/cheese-session/internal/session"
)

// Record is one concluded game as seen by this player.
type Record struct {
	GameID               string
	DBGameID             string
	PlayerID             string
	Color                color.Color
	PlayerName           string
	OpponentName         string
	Wager                float64
	Reason               string
	Outcome              string // win, loss or draw
	PGNResult            string
	OpponentDisconnected bool
	CreditsChange        *float64
	Message              string
	FinalPosition        string
	EndedAt              time.Time
}

// Store persists records. Saving the same game twice must not create a second row.
type Store interface {
	SaveResult(ctx context.Context, rec Record) error
}

// FromState builds a record from a state holding a result. ok is false otherwise.
func FromState(player string, st session.State) (Record, bool) {
	if st.Game == nil || st.Result == nil {
		return Record{}, false
	}
	g, r := st.Game, st.Result
	rec := Record{
		GameID:               r.GameID,
		DBGameID:             g.DBGameID,
		PlayerID:             player,
		Color:                g.Color,
		PlayerName:           g.PlayerName,
		OpponentName:         g.OpponentName,
		Wager:                g.Wager,
		Reason:               r.Reason,
		Outcome:              outcome(r),
		PGNResult:            pgnResult(r.Winner, r.IsDraw),
		OpponentDisconnected: r.OpponentDisconnected,
		Message:              r.Message,
		FinalPosition:        g.Position,
		EndedAt:              r.EndedAt,
	}
	if rec.GameID == "" {
		rec.GameID = g.GameID
	}
	if r.CreditsChange != nil {
		c := *r.CreditsChange
		rec.CreditsChange = &c
	}
	return rec, true
}

func outcome(r *session.GameEndResult) string {
	switch {
	case r.IsDraw:
		return "draw"
	case r.IsWin:
		return "win"
	default:
		return "loss"
	}
}

func pgnResult(winner color.Color, isDraw bool) string {
	switch {
	case winner == color.White:
		return "1-0"
	case winner == color.Black:
		return "0-1"
	case isDraw:
		return "1/2-1/2"
	default:
		return "*"
	}
}

// MemoryStore keeps records in memory.
type MemoryStore struct {
	mu   sync.Mutex
	recs map[string]Record
	keys []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[string]Record)}
}

func (m *MemoryStore) SaveResult(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.TrimSpace(rec.GameID)
	if _, ok := m.recs[key]; ok {
		return nil
	}
	m.recs[key] = rec
	m.keys = append(m.keys, key)
	return nil
}

// All returns records in insertion order.
func (m *MemoryStore) All() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, m.recs[k])
	}
	return out
}
