package dispatch

import (
	"context"

	"go.uber.org/zap"

	"github.com/park285/cheese-session/internal/premove"
	"github.com/park285/cheese-session/internal/rules"
	"github.com/park285/cheese-session/pkg/sessiondto"
)

// Play submits m when it is the player's turn, otherwise queues it as a premove.
// queued reports which of the two happened.
func (d *Dispatcher) Play(ctx context.Context, m premove.Move) (queued bool, err error) {
	st := d.svc.Snapshot()
	if st.Game == nil || !st.IsMyTurn() {
		if !d.svc.SetPremove(m) {
			return false, ErrNotInGame
		}
		return true, nil
	}
	if _, err := rules.Apply(st.Game.Position, m); err != nil {
		return false, err
	}
	return false, d.submit(ctx, st.Game.GameID, m)
}

// consumePremove sends the queued premove if the latest position made it our turn.
// Premoves that became illegal are discarded.
func (d *Dispatcher) consumePremove(ctx context.Context) {
	st := d.svc.Snapshot()
	if !st.IsMyTurn() {
		return
	}
	if _, ok := st.PendingPremove(); !ok {
		return
	}
	m, ok := d.svc.TakePremove()
	if !ok {
		return
	}
	applied, err := rules.Apply(st.Game.Position, m)
	if err != nil {
		d.log.Info("premove_discarded", zap.String("game_id", st.Game.GameID), zap.String("move", m.UCI()), zap.Error(err))
		return
	}
	if err := d.submit(ctx, st.Game.GameID, m); err != nil {
		d.log.Warn("premove_submit_error", zap.String("game_id", st.Game.GameID), zap.String("move", applied.UCI), zap.Error(err))
		return
	}
	d.log.Info("premove_sent", zap.String("game_id", st.Game.GameID), zap.String("san", applied.SAN))
}

func (d *Dispatcher) submit(ctx context.Context, gameID string, m premove.Move) error {
	if d.sink == nil {
		return ErrNoSink
	}
	return d.sink.SubmitMove(ctx, sessiondto.MoveRequest{
		GameID:    gameID,
		From:      m.From,
		To:        m.To,
		Promotion: m.Promotion,
	})
}
