package sessiondto

import (
	"encoding/json"
	"testing"
)

func TestIDNormalizes(t *testing.T) {
	cases := map[string]ID{
		`{"opponentUserId":" u-1 "}`:                   "u-1",
		`{"opponentUserId":42}`:                        "42",
		`{"opponentUserId":{"id":"u-2","name":"bob"}}`: "u-2",
		`{"opponentUserId":{"_id":7}}`:                 "7",
		`{"opponentUserId":{"profile":{}}}`:            "",
		`{"opponentUserId":null}`:                      "",
		`{"opponentUserId":[1,2]}`:                     "",
		`{}`:                                           "",
	}
	for in, want := range cases {
		var m MatchmakingMatched
		if err := json.Unmarshal([]byte(in), &m); err != nil {
			t.Fatalf("%s: unmarshal: %v", in, err)
		}
		if m.OpponentUserID != want {
			t.Fatalf("%s: id = %q, want %q", in, m.OpponentUserID, want)
		}
	}
}

func TestNumberLenient(t *testing.T) {
	var g GameEnded
	if err := json.Unmarshal([]byte(`{"reason":"checkmate","creditsChange":"12.5"}`), &g); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p := g.CreditsChange.Ptr(); p == nil || *p != 12.5 {
		t.Fatalf("credits = %v", p)
	}

	g = GameEnded{}
	if err := json.Unmarshal([]byte(`{"creditsChange":"lots"}`), &g); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if g.CreditsChange.Set {
		t.Fatalf("garbage credits should decode as absent")
	}
	if g.Reason != "" || g.WinnerColor != "" || g.IsOpponentLeft {
		t.Fatalf("absent fields should stay nil: %+v", g)
	}
}

func TestGameEndedFieldsDecodeIndependently(t *testing.T) {
	var g GameEnded
	in := `{"gameId":"g1","reason":7,"winnerColor":"b","isOpponentLeft":"yes","creditsChange":-5}`
	if err := json.Unmarshal([]byte(in), &g); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if g.GameID != "g1" || g.WinnerColor != "b" {
		t.Fatalf("good fields lost: %+v", g)
	}
	if g.Reason != "" || g.IsOpponentLeft {
		t.Fatalf("bad fields should decode as zero: %+v", g)
	}
	if p := g.CreditsChange.Ptr(); p == nil || *p != -5 {
		t.Fatalf("credits = %v", p)
	}

	g = GameEnded{}
	if err := json.Unmarshal([]byte(`{"isOpponentLeft":true}`), &g); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !g.IsOpponentLeft {
		t.Fatalf("isOpponentLeft true lost")
	}
}

func TestNumberInt(t *testing.T) {
	var ts TimerSnapshot
	if err := json.Unmarshal([]byte(`{"wMs":59999.7,"bMs":null}`), &ts); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := ts.WhiteMs.Int(0); got != 59999 {
		t.Fatalf("wMs = %d", got)
	}
	if got := ts.BlackMs.Int(-1); got != -1 {
		t.Fatalf("bMs default = %d", got)
	}
}

func TestNumberMarshal(t *testing.T) {
	b, err := json.Marshal(struct {
		A Number `json:"a"`
		B Number `json:"b"`
	}{A: Number{Value: 3, Set: true}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"a":3,"b":null}` {
		t.Fatalf("json = %s", b)
	}
}
