package session

import (
	"time"

	"github.com/park285/cheese-session/internal/clocksync"
	"github.com/park285/cheese-session/pkg/sessiondto"
)

// View renders st for display code, projecting clocks at now.
func (st State) View(now time.Time) sessiondto.View {
	v := sessiondto.View{
		Phase:    string(st.Phase),
		Revision: st.Revision,
		Matchmaking: sessiondto.MatchmakingView{
			Status:     string(st.Matchmaking.Status),
			Wager:      st.Matchmaking.Wager,
			MatchID:    st.Matchmaking.MatchID,
			DBMatchID:  st.Matchmaking.DBMatchID,
			OpponentID: st.Matchmaking.OpponentID,
			Color:      string(st.Matchmaking.Color),
			Error:      st.Matchmaking.Error,
		},
	}
	if g := st.Game; g != nil {
		v.Game = &sessiondto.GameView{
			GameID:       g.GameID,
			DBGameID:     g.DBGameID,
			Color:        string(g.Color),
			Position:     g.Position,
			Turn:         string(g.Turn),
			IsMyTurn:     g.IsMyTurn,
			PlayerName:   g.PlayerName,
			OpponentName: g.OpponentName,
			Wager:        g.Wager,
		}
	}
	if r := st.Result; r != nil {
		v.Result = &sessiondto.ResultView{
			Reason:               r.Reason,
			Winner:               string(r.Winner),
			IsWin:                r.IsWin,
			IsDraw:               r.IsDraw,
			OpponentDisconnected: r.OpponentDisconnected,
			Message:              r.Message,
		}
		if r.CreditsChange != nil {
			c := *r.CreditsChange
			v.Result.CreditsChange = &c
		}
	}
	if d, ok := st.Remaining(now); ok {
		v.Clock = &sessiondto.ClockView{
			WhiteMs: d.White,
			BlackMs: d.Black,
			White:   clocksync.FormatClock(d.White),
			Black:   clocksync.FormatClock(d.Black),
			Active:  string(d.Active),
			Running: d.Running,
		}
	}
	if m, ok := st.PendingPremove(); ok {
		v.Premove = &sessiondto.PremoveView{From: m.From, To: m.To, Promotion: m.Promotion}
	}
	return v
}
