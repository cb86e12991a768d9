// Package dispatch routes decoded server events into the session and sends queued
// premoves once they become playable.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/park285/cheese-session/internal/clocksync"
	"github.com/park285/cheese-session/internal/color"
	"github.com/park285/cheese-session/internal/obslog"
	"github.com/park285/cheese-session/internal/rules"
	"github.com/park285/cheese-session/internal/session"
	"github.com/park285/cheese-session/pkg/sessiondto"
)

// StartPosition is used when a match_found event carries no position.
const StartPosition = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var (
	ErrNotInGame = errors.New("dispatch: no active game")
	ErrNoSink    = errors.New("dispatch: no move sink")
)

// MoveSink submits a move to the game server.
type MoveSink interface {
	SubmitMove(ctx context.Context, req sessiondto.MoveRequest) error
}

// Dispatcher applies server events to one session.
type Dispatcher struct {
	svc  *session.Service
	sink MoveSink
	log  *zap.Logger

	seqMu   sync.Mutex
	lastSeq uint64
	seenSeq bool
}

type Option func(*Dispatcher)

func WithSink(s MoveSink) Option { return func(d *Dispatcher) { d.sink = s } }

func WithLogger(l *zap.Logger) Option { return func(d *Dispatcher) { d.log = l } }

func New(svc *session.Service, opts ...Option) *Dispatcher {
	d := &Dispatcher{svc: svc}
	for _, opt := range opts {
		opt(d)
	}
	if d.log == nil {
		d.log = obslog.L()
	}
	return d
}

// HandleRaw decodes one frame and handles it. Undecodable frames are logged and dropped.
func (d *Dispatcher) HandleRaw(ctx context.Context, raw []byte) {
	var env sessiondto.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		d.log.Warn("dispatch_bad_frame", zap.Int("bytes", len(raw)), zap.Error(err))
		return
	}
	d.Handle(ctx, env)
}

// Handle applies env to the session.
func (d *Dispatcher) Handle(ctx context.Context, env sessiondto.Envelope) {
	typ := strings.ToLower(strings.TrimSpace(env.Type))
	if !d.acceptSeq(env.Seq) {
		d.log.Debug("dispatch_stale_seq", zap.String("type", typ), zap.Uint64("seq", *env.Seq))
		return
	}

	var err error
	switch typ {
	case sessiondto.TypeMatchFound:
		err = d.matchFound(env.Payload)
	case sessiondto.TypePositionUpdate:
		err = d.positionUpdate(ctx, env.Payload)
	case sessiondto.TypeTimerSnapshot:
		err = d.timerSnapshot(env.Payload)
	case sessiondto.TypeGameEnded:
		err = d.gameEnded(env.Payload)
	case sessiondto.TypeSearching:
		d.svc.SetMatchmakingStatus(session.MatchSearching)
		d.svc.StartSearching()
	case sessiondto.TypeMatched:
		err = d.matched(env.Payload)
	case sessiondto.TypeMatchmakingError:
		err = d.matchmakingError(env.Payload)
	default:
		d.log.Debug("dispatch_unknown_type", zap.String("type", env.Type))
		return
	}
	if err != nil {
		d.log.Warn("dispatch_drop", zap.String("type", typ), zap.Error(err))
	}
}

// ResetSequence forgets the last seen sequence number, e.g. after a reconnect.
func (d *Dispatcher) ResetSequence() {
	d.seqMu.Lock()
	d.lastSeq, d.seenSeq = 0, false
	d.seqMu.Unlock()
}

func (d *Dispatcher) acceptSeq(seq *uint64) bool {
	if seq == nil {
		return true
	}
	d.seqMu.Lock()
	defer d.seqMu.Unlock()
	if d.seenSeq && *seq <= d.lastSeq {
		return false
	}
	d.lastSeq, d.seenSeq = *seq, true
	return true
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func parseColor(p *string) color.Color { return color.Parse(str(p)) }

// foreign reports whether a payload names a game other than the active one.
func (d *Dispatcher) foreign(id sessiondto.ID) bool {
	if id == "" {
		return false
	}
	g := d.svc.Game()
	return g != nil && g.GameID != id.String()
}

func (d *Dispatcher) matchFound(raw json.RawMessage) error {
	var p sessiondto.MatchFound
	if err := decode(raw, &p); err != nil {
		return err
	}
	if p.GameID == "" {
		return errors.New("match_found without gameId")
	}
	c := parseColor(p.Color)
	pos := str(p.Position)
	if pos == "" {
		pos = StartPosition
	}

	if mm := d.svc.Matchmaking(); mm.Status != session.MatchMatched {
		d.svc.RecordMatch(session.Match{MatchID: p.GameID.String(), DBMatchID: p.DBGameID.String(), Color: c, Wager: p.Wager.Ptr()})
	}
	d.svc.EnterGame(session.EnterParams{
		GameID:       p.GameID.String(),
		DBGameID:     p.DBGameID.String(),
		Color:        c,
		Position:     pos,
		PlayerName:   str(p.PlayerName),
		OpponentName: str(p.OpponentName),
		Wager:        p.Wager.Value,
	})
	return nil
}

func (d *Dispatcher) positionUpdate(ctx context.Context, raw json.RawMessage) error {
	var p sessiondto.PositionUpdate
	if err := decode(raw, &p); err != nil {
		return err
	}
	if d.foreign(p.GameID) {
		return fmt.Errorf("position_update for game %s", p.GameID)
	}
	pos := str(p.Position)
	if pos == "" {
		return errors.New("position_update without position")
	}
	turn := parseColor(p.Turn)
	if !turn.Valid() {
		// fall back to the side to move encoded in the position itself
		if side, err := rules.SideToMove(pos); err == nil {
			turn = side
		}
	}
	d.svc.ApplyPositionUpdate(pos, turn)
	d.consumePremove(ctx)
	return nil
}

func (d *Dispatcher) timerSnapshot(raw json.RawMessage) error {
	var p sessiondto.TimerSnapshot
	if err := decode(raw, &p); err != nil {
		return err
	}
	if d.foreign(p.GameID) {
		return fmt.Errorf("timer_snapshot for game %s", p.GameID)
	}
	now := d.svc.Clock().Now()
	in := clocksync.Reading{
		WhiteMs:           p.WhiteMs.Int(0),
		BlackMs:           p.BlackMs.Int(0),
		Turn:              parseColor(p.Turn),
		ClockRunning:      p.ClockRunning != nil && *p.ClockRunning,
		ServerNow:         p.ServerNow.Int(now.UnixMilli()),
		LastTurnStartedAt: p.LastTurnStartedAt.Int(0),
	}
	if p.ServerTimeOffsetMs.Set {
		off := p.ServerTimeOffsetMs.Int(0)
		in.OffsetMs = &off
	}
	d.svc.SetTimerSnapshot(clocksync.NewSnapshot(in, now))
	return nil
}

func (d *Dispatcher) gameEnded(raw json.RawMessage) error {
	var p sessiondto.GameEnded
	if err := decode(raw, &p); err != nil {
		// payload is not an object; the game still ends, with default fields
		d.log.Warn("dispatch_game_ended_coerced", zap.Error(err))
		p = sessiondto.GameEnded{}
	}
	if d.foreign(p.GameID) {
		return fmt.Errorf("game_ended for game %s", p.GameID)
	}
	d.svc.ResolveGameEnd(session.EndParams{
		Reason:               p.Reason.String(),
		Winner:               color.Parse(p.WinnerColor.String()),
		OpponentDisconnected: bool(p.IsOpponentLeft),
		CreditsChange:        p.CreditsChange.Ptr(),
	})
	return nil
}

func (d *Dispatcher) matched(raw json.RawMessage) error {
	var p sessiondto.MatchmakingMatched
	if err := decode(raw, &p); err != nil {
		return err
	}
	d.svc.RecordMatch(session.Match{
		MatchID:    p.MatchID.String(),
		DBMatchID:  p.DBMatchID.String(),
		OpponentID: p.OpponentUserID.String(),
		Color:      parseColor(p.Color),
		Wager:      p.Wager.Ptr(),
	})
	return nil
}

func (d *Dispatcher) matchmakingError(raw json.RawMessage) error {
	var p sessiondto.MatchmakingError
	if err := decode(raw, &p); err != nil {
		d.log.Warn("dispatch_matchmaking_error_coerced", zap.Error(err))
	}
	d.svc.RecordMatchmakingError(str(p.Message))
	return nil
}
