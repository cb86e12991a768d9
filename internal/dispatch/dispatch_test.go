package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/park285/cheese-session/internal/color"
	"github.com/park285/cheese-session/internal/premove"
	"github.com/park285/cheese-session/internal/session"
	"github.com/park285/cheese-session/pkg/sessiondto"
)

var epoch = time.UnixMilli(1_700_000_000_000)

type fakeSink struct {
	mu   sync.Mutex
	reqs []sessiondto.MoveRequest
	err  error
}

func (f *fakeSink) SubmitMove(_ context.Context, req sessiondto.MoveRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return f.err
}

func (f *fakeSink) sent() []sessiondto.MoveRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sessiondto.MoveRequest(nil), f.reqs...)
}

type harness struct {
	svc  *session.Service
	d    *Dispatcher
	sink *fakeSink
	clk  *clockwork.FakeClock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clk := clockwork.NewFakeClockAt(epoch)
	svc := session.New(session.WithClock(clk), session.WithID("s1"))
	sink := &fakeSink{}
	return &harness{
		svc:  svc,
		d:    New(svc, WithSink(sink), WithLogger(zap.NewNop())),
		sink: sink,
		clk:  clk,
	}
}

func (h *harness) raw(frame string) {
	h.d.HandleRaw(context.Background(), []byte(frame))
}

func TestMatchFoundEntersGame(t *testing.T) {
	h := newHarness(t)
	h.raw(`{"type":"match_found","payload":{"gameId":"g1","dbGameId":17,"color":"w","position":"startpos","playerName":"alice","opponentName":"bob","wager":100}}`)

	st := h.svc.Snapshot()
	require.Equal(t, session.PhaseInGame, st.Phase)
	require.NotNil(t, st.Game)
	assert.Equal(t, "g1", st.Game.GameID)
	assert.Equal(t, "17", st.Game.DBGameID)
	assert.Equal(t, color.White, st.Game.Color)
	assert.True(t, st.Game.IsMyTurn)
	assert.Equal(t, 100.0, st.Game.Wager)
	assert.Equal(t, session.MatchMatched, st.Matchmaking.Status)
	assert.Equal(t, "g1", st.Matchmaking.MatchID)
}

func TestMatchFoundKeepsExistingMatchRecord(t *testing.T) {
	h := newHarness(t)
	h.raw(`{"type":"matched","payload":{"matchId":"m9","opponentUserId":{"id":"u2"},"color":"b","wager":5}}`)
	h.raw(`{"type":"match_found","payload":{"gameId":"g1","color":"b"}}`)

	st := h.svc.Snapshot()
	assert.Equal(t, "m9", st.Matchmaking.MatchID)
	assert.Equal(t, "u2", st.Matchmaking.OpponentID)
	require.NotNil(t, st.Game)
	assert.Equal(t, StartPosition, st.Game.Position)
	assert.False(t, st.Game.IsMyTurn)
}

func TestMatchFoundWithoutGameIDDropped(t *testing.T) {
	h := newHarness(t)
	h.raw(`{"type":"match_found","payload":{"color":"w"}}`)
	assert.Equal(t, session.PhaseIdle, h.svc.Phase())
}

func TestPositionUpdateDerivesTurn(t *testing.T) {
	h := newHarness(t)
	h.raw(`{"type":"match_found","payload":{"gameId":"g1","color":"b"}}`)
	h.raw(`{"type":"position_update","payload":{"position":"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"}}`)

	g := h.svc.Game()
	require.NotNil(t, g)
	assert.Equal(t, color.Black, g.Turn)
	assert.True(t, g.IsMyTurn)
}

func TestForeignGameEventsDropped(t *testing.T) {
	h := newHarness(t)
	h.raw(`{"type":"match_found","payload":{"gameId":"g2","color":"w"}}`)
	h.raw(`{"type":"game_ended","payload":{"gameId":"g1","reason":"checkmate","winnerColor":"b"}}`)
	h.raw(`{"type":"position_update","payload":{"gameId":"g1","position":"8/8/8/8/8/8/8/8 w - - 0 1","turn":"w"}}`)

	st := h.svc.Snapshot()
	assert.Equal(t, session.PhaseInGame, st.Phase)
	assert.Nil(t, st.Result)
	assert.Equal(t, StartPosition, st.Game.Position)
}

func TestTimerSnapshotProjection(t *testing.T) {
	h := newHarness(t)
	h.raw(`{"type":"match_found","payload":{"gameId":"g1","color":"w"}}`)
	// server clock runs 2s ahead of the local clock
	h.raw(`{"type":"timer_snapshot","payload":{"wMs":60000,"bMs":60000,"turn":"w","clockRunning":true,"serverNow":1700000002000,"lastTurnStartedAt":1700000001000}}`)

	snap, ok := h.svc.TimerSnapshot()
	require.True(t, ok)
	assert.Equal(t, int64(2000), snap.ServerOffsetMs)

	h.clk.Advance(3 * time.Second)
	d, ok := h.svc.Remaining()
	require.True(t, ok)
	assert.Equal(t, int64(57000), d.White)
	assert.Equal(t, int64(60000), d.Black)
}

func TestTimerSnapshotExplicitOffsetAndDefaults(t *testing.T) {
	h := newHarness(t)
	h.raw(`{"type":"match_found","payload":{"gameId":"g1","color":"w"}}`)
	h.raw(`{"type":"timer_snapshot","payload":{"wMs":-5,"bMs":"1000","serverTimeOffsetMs":0}}`)

	snap, ok := h.svc.TimerSnapshot()
	require.True(t, ok)
	assert.Equal(t, int64(0), snap.WhiteMs)
	assert.Equal(t, int64(1000), snap.BlackMs)
	assert.Equal(t, color.White, snap.Turn)
	assert.False(t, snap.ClockRunning)
	assert.Equal(t, epoch.UnixMilli(), snap.ServerNow)
}

func TestTimerSnapshotIgnoredOutsideGame(t *testing.T) {
	h := newHarness(t)
	h.raw(`{"type":"timer_snapshot","payload":{"wMs":60000,"bMs":60000,"turn":"w","clockRunning":true,"serverNow":1700000000000}}`)
	_, ok := h.svc.TimerSnapshot()
	assert.False(t, ok)
}

func TestGameEndedCoercesMalformedPayload(t *testing.T) {
	h := newHarness(t)
	h.raw(`{"type":"match_found","payload":{"gameId":"g1","color":"w"}}`)
	h.raw(`{"type":"game_ended","payload":{"reason":7,"winnerColor":"purple","isOpponentLeft":"yes"}}`)

	st := h.svc.Snapshot()
	require.Equal(t, session.PhaseGameOver, st.Phase)
	require.NotNil(t, st.Result)
	assert.Equal(t, color.None, st.Result.Winner)
	assert.False(t, st.Result.OpponentDisconnected)
	assert.Nil(t, st.Result.CreditsChange)
	assert.True(t, st.Result.IsDraw)
}

func TestGameEndedBadFieldKeepsGameIDFilter(t *testing.T) {
	h := newHarness(t)
	h.raw(`{"type":"match_found","payload":{"gameId":"g2","color":"w"}}`)
	h.raw(`{"type":"game_ended","payload":{"gameId":"g1","winnerColor":"w","isOpponentLeft":"no"}}`)

	st := h.svc.Snapshot()
	assert.Equal(t, session.PhaseInGame, st.Phase)
	assert.Nil(t, st.Result)
}

func TestGameEndedBadFieldKeepsWinner(t *testing.T) {
	h := newHarness(t)
	h.raw(`{"type":"match_found","payload":{"gameId":"g1","color":"w"}}`)
	h.raw(`{"type":"game_ended","payload":{"gameId":"g1","reason":"checkmate","winnerColor":"w","isOpponentLeft":0}}`)

	res := h.svc.Result()
	require.NotNil(t, res)
	assert.Equal(t, "g1", res.GameID)
	assert.Equal(t, "checkmate", res.Reason)
	assert.Equal(t, color.White, res.Winner)
	assert.True(t, res.IsWin)
	assert.False(t, res.IsDraw)
	assert.False(t, res.OpponentDisconnected)
}

func TestGameEndedDuplicateAndLate(t *testing.T) {
	h := newHarness(t)
	h.raw(`{"type":"match_found","payload":{"gameId":"g1","color":"w"}}`)
	h.raw(`{"type":"game_ended","payload":{"reason":"checkmate","winnerColor":"w","creditsChange":10}}`)
	h.raw(`{"type":"game_ended","payload":{"reason":"timeout","winnerColor":"b","creditsChange":-10}}`)

	res := h.svc.Result()
	require.NotNil(t, res)
	assert.True(t, res.IsWin)
	assert.Equal(t, 10.0, *res.CreditsChange)

	h.svc.Reset()
	h.raw(`{"type":"searching"}`)
	h.raw(`{"type":"game_ended","payload":{"reason":"checkmate","winnerColor":"w"}}`)
	st := h.svc.Snapshot()
	assert.Equal(t, session.PhaseSearching, st.Phase)
	assert.Nil(t, st.Result)
	assert.Equal(t, session.MatchSearching, st.Matchmaking.Status)
}

func TestMatchmakingError(t *testing.T) {
	h := newHarness(t)
	h.raw(`{"type":"matched","payload":{"matchId":"m1","color":"w"}}`)
	h.raw(`{"type":"error","payload":{"message":"queue closed"}}`)
	mm := h.svc.Matchmaking()
	assert.Equal(t, session.MatchError, mm.Status)
	assert.Equal(t, "queue closed", mm.Error)
	assert.Equal(t, "m1", mm.MatchID)

	h.raw(`{"type":"error"}`)
	assert.Equal(t, "matchmaking failed", h.svc.Matchmaking().Error)
}

func TestUnknownAndBadFramesIgnored(t *testing.T) {
	h := newHarness(t)
	h.raw(`not json`)
	h.raw(`{"type":"chat","payload":{"text":"hi"}}`)
	assert.Equal(t, uint64(0), h.svc.Snapshot().Revision)
}

func TestSequenceNumbers(t *testing.T) {
	h := newHarness(t)
	h.raw(`{"type":"match_found","seq":5,"payload":{"gameId":"g1","color":"b"}}`)
	h.raw(`{"type":"position_update","seq":7,"payload":{"position":"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1","turn":"b"}}`)
	h.raw(`{"type":"position_update","seq":6,"payload":{"position":"startpos","turn":"w"}}`)

	g := h.svc.Game()
	require.NotNil(t, g)
	assert.Equal(t, color.Black, g.Turn, "older frame must not roll the position back")

	h.d.ResetSequence()
	h.raw(`{"type":"position_update","seq":1,"payload":{"position":"startpos","turn":"w"}}`)
	assert.Equal(t, color.White, h.svc.Game().Turn)
}

func TestPremoveSentWhenTurnArrives(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.raw(`{"type":"match_found","payload":{"gameId":"g1","color":"b"}}`)

	queued, err := h.d.Play(ctx, premove.Move{From: "e7", To: "e5"})
	require.NoError(t, err)
	require.True(t, queued)
	assert.Empty(t, h.sink.sent())

	h.raw(`{"type":"position_update","payload":{"position":"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1","turn":"b"}}`)
	sent := h.sink.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, sessiondto.MoveRequest{GameID: "g1", From: "e7", To: "e5"}, sent[0])
	_, ok := h.svc.Premove()
	assert.False(t, ok, "premove must be consumed")
}

func TestIllegalPremoveDiscarded(t *testing.T) {
	h := newHarness(t)
	h.raw(`{"type":"match_found","payload":{"gameId":"g1","color":"b"}}`)
	_, err := h.d.Play(context.Background(), premove.Move{From: "e7", To: "e4"})
	require.NoError(t, err)

	h.raw(`{"type":"position_update","payload":{"position":"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1","turn":"b"}}`)
	assert.Empty(t, h.sink.sent())
	_, ok := h.svc.Premove()
	assert.False(t, ok)
}

func TestPlayOnTurnSubmitsDirectly(t *testing.T) {
	h := newHarness(t)
	h.raw(`{"type":"match_found","payload":{"gameId":"g1","color":"w"}}`)

	queued, err := h.d.Play(context.Background(), premove.Move{From: "e2", To: "e4"})
	require.NoError(t, err)
	assert.False(t, queued)
	require.Len(t, h.sink.sent(), 1)

	_, err = h.d.Play(context.Background(), premove.Move{From: "e2", To: "e5"})
	assert.Error(t, err)
}

func TestPlayOutsideGame(t *testing.T) {
	h := newHarness(t)
	_, err := h.d.Play(context.Background(), premove.Move{From: "e2", To: "e4"})
	assert.True(t, errors.Is(err, ErrNotInGame))
}

func TestPremoveSubmitErrorLogged(t *testing.T) {
	h := newHarness(t)
	h.sink.err = errors.New("boom")
	h.raw(`{"type":"match_found","payload":{"gameId":"g1","color":"b"}}`)
	_, _ = h.d.Play(context.Background(), premove.Move{From: "e7", To: "e5"})
	h.raw(`{"type":"position_update","payload":{"position":"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1","turn":"b"}}`)
	assert.Len(t, h.sink.sent(), 1)
	assert.Equal(t, session.PhaseInGame, h.svc.Phase())
}
