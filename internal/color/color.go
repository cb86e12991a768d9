// Package color provides side identifiers for a two-player chess game.
package color

import "strings"

// Color represents a chess side as it travels on the wire.
type Color string

// Possible sides. None is used for "no winner" and unparseable input.
const (
	White Color = "w"
	Black Color = "b"
	None  Color = ""
)

// Opp returns the opposite side. None stays None.
func (c Color) Opp() Color {
	switch c {
	case White:
		return Black
	case Black:
		return White
	default:
		return None
	}
}

// Valid reports whether c names a side.
func (c Color) Valid() bool { return c == White || c == Black }

// Parse accepts the short and long forms of a side, case-insensitive.
func Parse(s string) Color {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "w", "white":
		return White
	case "b", "black":
		return Black
	default:
		return None
	}
}

// Name returns the long English name used in messages.
func (c Color) Name() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return ""
	}
}
