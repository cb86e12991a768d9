package history

import (
	"context"
	"testing"

	"github.com/park285/cheese-session/internal/color"
	"github.com/park285/cheese-session/internal/session"
)

func credits(v float64) *float64 { return &v }

func playGame(svc *session.Service, id string, end session.EndParams) {
	svc.EnterGame(session.EnterParams{GameID: id, DBGameID: "db-" + id, Color: color.White, Position: "startpos", PlayerName: "alice", OpponentName: "bob", Wager: 20})
	svc.ResolveGameEnd(end)
}

func TestFromState(t *testing.T) {
	svc := session.New()
	playGame(svc, "g1", session.EndParams{Reason: "checkmate", Winner: color.White, CreditsChange: credits(20)})

	rec, ok := FromState("p1", svc.Snapshot())
	if !ok {
		t.Fatalf("no record")
	}
	if rec.GameID != "g1" || rec.DBGameID != "db-g1" || rec.PlayerID != "p1" || rec.Outcome != "win" || rec.PGNResult != "1-0" {
		t.Fatalf("record = %+v", rec)
	}
	if rec.CreditsChange == nil || *rec.CreditsChange != 20 {
		t.Fatalf("credits = %v", rec.CreditsChange)
	}

	if _, ok := FromState("p1", session.New().Snapshot()); ok {
		t.Fatalf("record from idle state")
	}
}

func TestPGNResult(t *testing.T) {
	cases := []struct {
		winner color.Color
		draw   bool
		want   string
	}{
		{color.White, false, "1-0"},
		{color.Black, false, "0-1"},
		{color.None, true, "1/2-1/2"},
		{color.None, false, "*"},
	}
	for _, tc := range cases {
		if got := pgnResult(tc.winner, tc.draw); got != tc.want {
			t.Fatalf("pgnResult(%q,%v) = %q, want %q", tc.winner, tc.draw, got, tc.want)
		}
	}
}

func TestMemoryStoreIgnoresDuplicates(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	_ = m.SaveResult(ctx, Record{GameID: "g1", Outcome: "win"})
	_ = m.SaveResult(ctx, Record{GameID: "g1", Outcome: "loss"})
	all := m.All()
	if len(all) != 1 || all[0].Outcome != "win" {
		t.Fatalf("records = %+v", all)
	}
}

func TestRecorderOncePerGame(t *testing.T) {
	svc := session.New()
	store := NewMemoryStore()
	r := Attach(svc, store, "p1")

	playGame(svc, "g1", session.EndParams{Reason: "checkmate", Winner: color.White})
	svc.ResolveGameEnd(session.EndParams{Reason: "timeout", Winner: color.Black})
	svc.ApplyPositionUpdate("8/8/8/8/8/8/8/8 w - - 0 1", color.White)
	svc.ClearGameEndResult()
	playGame(svc, "g2", session.EndParams{Reason: "stalemate"})
	r.Close()
	r.Close()

	all := store.All()
	if len(all) != 2 {
		t.Fatalf("records = %d, want 2", len(all))
	}
	if all[0].GameID != "g1" || all[0].Outcome != "win" {
		t.Fatalf("first = %+v", all[0])
	}
	if all[1].GameID != "g2" || all[1].Outcome != "draw" {
		t.Fatalf("second = %+v", all[1])
	}
}

func TestRecorderRetriesAfterFullQueue(t *testing.T) {
	r := &Recorder{
		player: "p1",
		seen:   make(map[string]struct{}),
		queue:  make(chan Record, 1),
		done:   make(chan struct{}),
	}
	svc1 := session.New()
	playGame(svc1, "g1", session.EndParams{Reason: "checkmate", Winner: color.White})
	svc2 := session.New()
	playGame(svc2, "g2", session.EndParams{Reason: "timeout", Winner: color.Black})

	r.observe(svc1.Snapshot())
	r.observe(svc2.Snapshot())
	if got := (<-r.queue).GameID; got != "g1" {
		t.Fatalf("first queued = %q", got)
	}
	if _, marked := r.seen["g2"]; marked {
		t.Fatalf("dropped game marked as seen")
	}

	r.observe(svc2.Snapshot())
	select {
	case rec := <-r.queue:
		if rec.GameID != "g2" {
			t.Fatalf("retried = %q", rec.GameID)
		}
	default:
		t.Fatalf("g2 not queued on retry")
	}
}

func TestNewRepositoryRequiresURL(t *testing.T) {
	if _, err := NewRepository("  "); err == nil {
		t.Fatalf("expected error")
	}
}
