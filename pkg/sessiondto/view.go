package sessiondto

// View is the read surface handed to a display layer.
type View struct {
	Phase       string          `json:"phase"`
	Game        *GameView       `json:"game"`
	Result      *ResultView     `json:"result"`
	Clock       *ClockView      `json:"clock"`
	Premove     *PremoveView    `json:"premove"`
	Matchmaking MatchmakingView `json:"matchmaking"`
	Revision    uint64          `json:"revision"`
}

type GameView struct {
	GameID       string  `json:"gameId"`
	DBGameID     string  `json:"dbGameId,omitempty"`
	Color        string  `json:"color"`
	Position     string  `json:"position"`
	Turn         string  `json:"turn"`
	IsMyTurn     bool    `json:"isMyTurn"`
	PlayerName   string  `json:"playerName"`
	OpponentName string  `json:"opponentName"`
	Wager        float64 `json:"wager"`
}

type ResultView struct {
	Reason               string   `json:"reason"`
	Winner               string   `json:"winnerColor,omitempty"`
	IsWin                bool     `json:"isWin"`
	IsDraw               bool     `json:"isDraw"`
	OpponentDisconnected bool     `json:"isOpponentLeft"`
	Message              string   `json:"message"`
	CreditsChange        *float64 `json:"creditsChange,omitempty"`
}

type ClockView struct {
	WhiteMs int64  `json:"wMs"`
	BlackMs int64  `json:"bMs"`
	White   string `json:"white"`
	Black   string `json:"black"`
	Active  string `json:"active"`
	Running bool   `json:"running"`
}

type PremoveView struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

type MatchmakingView struct {
	Status     string  `json:"status"`
	Wager      float64 `json:"wager"`
	MatchID    string  `json:"matchId,omitempty"`
	DBMatchID  string  `json:"dbMatchId,omitempty"`
	OpponentID string  `json:"opponentUserId,omitempty"`
	Color      string  `json:"color,omitempty"`
	Error      string  `json:"error,omitempty"`
}
