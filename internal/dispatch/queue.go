package dispatch

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/cheese-session/internal/session"
	"github.com/park285/cheese-session/pkg/sessiondto"
)

// Queue is the matchmaking side of the game API.
type Queue interface {
	JoinQueue(ctx context.Context, req sessiondto.QueueRequest) (*sessiondto.QueueResponse, error)
	LeaveQueue(ctx context.Context, req sessiondto.LeaveQueueRequest) error
}

// Search joins the matchmaking queue for wager. A failed join is recorded on the
// session and returned.
func (d *Dispatcher) Search(ctx context.Context, q Queue, playerID string, wager float64) error {
	d.svc.BeginMatchmaking(wager)
	resp, err := q.JoinQueue(ctx, sessiondto.QueueRequest{PlayerID: playerID, Wager: wager})
	if err != nil {
		d.svc.RecordMatchmakingError(err.Error())
		return err
	}
	if resp != nil && resp.Error != "" {
		d.svc.RecordMatchmakingError(resp.Error)
		return nil
	}
	status := ""
	if resp != nil {
		status = strings.ToLower(strings.TrimSpace(resp.Status))
	}
	if status == "" || status == string(session.MatchSearching) {
		d.svc.SetMatchmakingStatus(session.MatchSearching)
		d.svc.StartSearching()
	}
	return nil
}

// CancelSearch leaves the queue and returns matchmaking to idle. A session that was only
// searching goes back to idle too; an active game is left alone.
func (d *Dispatcher) CancelSearch(ctx context.Context, q Queue, playerID string) error {
	err := q.LeaveQueue(ctx, sessiondto.LeaveQueueRequest{PlayerID: playerID})
	if err != nil {
		d.log.Warn("leave_queue_error", zap.String("player_id", playerID), zap.Error(err))
	}
	if d.svc.Phase() == session.PhaseSearching {
		d.svc.Reset()
	} else {
		d.svc.ResetMatchmaking()
	}
	return err
}
