package session

import (
	"strconv"
	"strings"

	"github.com/park285/cheese-session/internal/msgcat"
)

var disconnectReasons = map[string]struct{}{
	"disconnect":            {},
	"opponent_disconnected": {},
	"opponent_left":         {},
	"abandoned":             {},
	"abandon":               {},
}

// IsDisconnectReason reports whether reason means a player left rather than a drawn game.
func IsDisconnectReason(reason string) bool {
	_, ok := disconnectReasons[strings.ToLower(strings.TrimSpace(reason))]
	return ok
}

type messageKind string

const (
	msgOpponentLeft messageKind = "opponent_left"
	msgDraw         messageKind = "draw"
	msgWin          messageKind = "win"
	msgLoss         messageKind = "loss"
)

// pickMessage applies the display priority: opponent disconnect, draw, win, loss.
func pickMessage(opponentDisconnected, isDraw, isWin bool) messageKind {
	switch {
	case opponentDisconnected:
		return msgOpponentLeft
	case isDraw:
		return msgDraw
	case isWin:
		return msgWin
	default:
		return msgLoss
	}
}

type messageData struct {
	Reason     string
	HasCredits bool
	Credits    string
}

func formatCredits(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if v > 0 {
		return "+" + s
	}
	return s
}

func reasonLabel(cat *msgcat.Catalog, reason string) string {
	r := strings.ToLower(strings.TrimSpace(reason))
	if r == "" {
		r = "unknown"
	}
	if cat != nil {
		if label, ok := cat.Lookup("reason." + r); ok {
			return label
		}
	}
	return strings.ReplaceAll(r, "_", " ")
}

func renderMessage(cat *msgcat.Catalog, kind messageKind, reason string, credits *float64) string {
	data := messageData{Reason: reasonLabel(cat, reason)}
	if credits != nil {
		data.HasCredits = true
		data.Credits = formatCredits(*credits)
	}
	if cat != nil {
		if out, err := cat.Render("gameover."+string(kind), data); err == nil {
			return out
		}
	}
	return fallbackMessage(kind, data)
}

func fallbackMessage(kind messageKind, d messageData) string {
	var b strings.Builder
	switch kind {
	case msgOpponentLeft:
		b.WriteString("Your opponent left the game. You win!")
	case msgDraw:
		b.WriteString("Draw by " + d.Reason + ".")
	case msgWin:
		b.WriteString("You won by " + d.Reason + "!")
	default:
		b.WriteString("You lost by " + d.Reason + ".")
	}
	if d.HasCredits {
		b.WriteString(" (" + d.Credits + " credits)")
	}
	return b.String()
}
