package sessionstore

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/park285/cheese-session/internal/clocksync"
	"github.com/park285/cheese-session/internal/color"
	"github.com/park285/cheese-session/internal/session"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStore(rdb, time.Hour), mr
}

func finishedGame() *session.Service {
	svc := session.New()
	svc.EnterGame(session.EnterParams{GameID: "g1", Color: color.White, Position: "startpos", Wager: 10})
	svc.SetTimerSnapshot(clocksync.Snapshot{WhiteMs: 1000, BlackMs: 1000, Turn: color.White})
	svc.ResolveGameEnd(session.EndParams{Reason: "checkmate", Winner: color.White})
	return svc
}

func TestSaveLoad(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	svc := finishedGame()

	if err := s.Save(ctx, "p1", svc.Snapshot()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ttl := mr.TTL("session:p1"); ttl != time.Hour {
		t.Fatalf("ttl = %v", ttl)
	}
	st, err := s.Load(ctx, "p1")
	if err != nil || st == nil {
		t.Fatalf("Load: %v %v", st, err)
	}
	if st.Phase != session.PhaseGameOver || st.Game.GameID != "g1" || st.Result == nil || !st.Result.IsWin {
		t.Fatalf("loaded = %+v", st)
	}
	if st.Timer != nil {
		t.Fatalf("timer persisted")
	}
}

func TestLoadMissing(t *testing.T) {
	s, _ := newTestStore(t)
	st, err := s.Load(context.Background(), "nobody")
	if err != nil || st != nil {
		t.Fatalf("Load = %v, %v", st, err)
	}
}

func TestLoadCorrupt(t *testing.T) {
	s, mr := newTestStore(t)
	if err := mr.Set("session:p1", "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := s.Load(context.Background(), "p1"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestHydrate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	if err := s.Save(ctx, "p1", finishedGame().Snapshot()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	fresh := session.New()
	ok, err := s.Hydrate(ctx, fresh, "p1")
	if err != nil || !ok {
		t.Fatalf("Hydrate = %v, %v", ok, err)
	}
	if fresh.Phase() != session.PhaseGameOver {
		t.Fatalf("phase = %s", fresh.Phase())
	}
	// the restored result is still protected against a replayed end event
	if fresh.ResolveGameEnd(session.EndParams{Reason: "timeout", Winner: color.Black}) {
		t.Fatalf("restored result overwritten")
	}

	ok, err = s.Hydrate(ctx, session.New(), "nobody")
	if err != nil || ok {
		t.Fatalf("Hydrate missing = %v, %v", ok, err)
	}
}

func TestSyncerMirrorsAndDeletes(t *testing.T) {
	s, mr := newTestStore(t)
	svc := session.New()
	sy := s.Attach(svc, "p1")

	svc.EnterGame(session.EnterParams{GameID: "g1", Color: color.Black, Position: "startpos"})
	waitFor(t, func() bool { return mr.Exists("session:p1") })

	svc.Reset()
	waitFor(t, func() bool { return !mr.Exists("session:p1") })

	svc.EnterGame(session.EnterParams{GameID: "g2", Color: color.White, Position: "startpos"})
	sy.Close()
	sy.Close()

	st, err := s.Load(context.Background(), "p1")
	if err != nil || st == nil || st.Game.GameID != "g2" {
		t.Fatalf("after close: %+v %v", st, err)
	}

	// no writes after Close
	svc.Reset()
	time.Sleep(20 * time.Millisecond)
	if !mr.Exists("session:p1") {
		t.Fatalf("syncer still running after Close")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met")
}
