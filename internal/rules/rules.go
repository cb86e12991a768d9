// Package rules checks queued premoves against the current position before they are sent.
package rules

import (
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/cheese-session/internal/color"
	"github.com/park285/cheese-session/internal/premove"
)

var (
	ErrBadPosition = errors.New("rules: bad position")
	ErrIllegalMove = errors.New("rules: illegal move")
)

// Applied is the outcome of a legal move.
type Applied struct {
	UCI  string
	SAN  string
	FEN  string
	Turn color.Color
}

func load(position string) (*nchess.Game, error) {
	position = strings.TrimSpace(position)
	if position == "" || position == "startpos" {
		return nchess.NewGame(), nil
	}
	opt, err := nchess.FEN(position)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrBadPosition, position, err)
	}
	return nchess.NewGame(opt), nil
}

// SideToMove returns whose turn it is in position.
func SideToMove(position string) (color.Color, error) {
	game, err := load(position)
	if err != nil {
		return color.None, err
	}
	return fromLib(game.Position().Turn()), nil
}

// Apply plays m on position. Malformed or illegal moves return ErrIllegalMove.
func Apply(position string, m premove.Move) (Applied, error) {
	if !m.Valid() {
		return Applied{}, fmt.Errorf("%w: %q", ErrIllegalMove, m.UCI())
	}
	game, err := load(position)
	if err != nil {
		return Applied{}, err
	}
	before := game.Position()
	uci := m.UCI()
	if err := game.PushNotationMove(uci, nchess.UCINotation{}, nil); err != nil {
		return Applied{}, fmt.Errorf("%w: %q: %v", ErrIllegalMove, uci, err)
	}
	out := Applied{
		UCI:  uci,
		FEN:  game.FEN(),
		Turn: fromLib(game.Position().Turn()),
	}
	if moves := game.Moves(); len(moves) > 0 {
		out.SAN = nchess.AlgebraicNotation{}.Encode(before, moves[len(moves)-1])
	}
	return out, nil
}

// Legal reports whether m can be played on position.
func Legal(position string, m premove.Move) bool {
	_, err := Apply(position, m)
	return err == nil
}

func fromLib(c nchess.Color) color.Color {
	if c == nchess.Black {
		return color.Black
	}
	return color.White
}
