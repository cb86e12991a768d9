// Package premove holds at most one move queued before it is legally the player's turn.
package premove

import "strings"

// Move is a from/to pair with an optional promotion piece (q, r, b, n).
type Move struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// UCI renders the move in long algebraic form, e.g. "e7e8q".
func (m Move) UCI() string {
	return strings.ToLower(m.From) + strings.ToLower(m.To) + strings.ToLower(m.Promotion)
}

// Valid checks the shape of the move only. Legality is the rules engine's job.
func (m Move) Valid() bool {
	if !isSquare(m.From) || !isSquare(m.To) || strings.EqualFold(m.From, m.To) {
		return false
	}
	switch strings.ToLower(m.Promotion) {
	case "", "q", "r", "b", "n":
		return true
	default:
		return false
	}
}

func isSquare(s string) bool {
	if len(s) != 2 {
		return false
	}
	f, r := s[0]|0x20, s[1]
	return f >= 'a' && f <= 'h' && r >= '1' && r <= '8'
}

// Slot is a single-entry queue. The zero value is empty.
type Slot struct {
	move *Move
}

// Set replaces whatever was queued.
func (s *Slot) Set(m Move) {
	cp := m
	s.move = &cp
}

// Clear empties the slot.
func (s *Slot) Clear() { s.move = nil }

// Peek returns the queued move without removing it.
func (s Slot) Peek() (Move, bool) {
	if s.move == nil {
		return Move{}, false
	}
	return *s.move, true
}

// Take returns the queued move and empties the slot.
func (s *Slot) Take() (Move, bool) {
	m, ok := s.Peek()
	s.move = nil
	return m, ok
}

// Empty reports whether nothing is queued.
func (s Slot) Empty() bool { return s.move == nil }
