package sessiondto

// Inbound payloads. Pointer and flex fields keep absence visible so the dispatcher can
// coerce to safe defaults.

type MatchFound struct {
	GameID       ID      `json:"gameId"`
	DBGameID     ID      `json:"dbGameId"`
	Color        *string `json:"color"`
	Position     *string `json:"position"`
	PlayerName   *string `json:"playerName"`
	OpponentName *string `json:"opponentName"`
	Wager        Number  `json:"wager"`
}

// PositionUpdate carries the board after any move. GameID is optional; when
// present it must name the active game.
type PositionUpdate struct {
	GameID   ID      `json:"gameId"`
	Position *string `json:"position"`
	Turn     *string `json:"turn"`
}

type TimerSnapshot struct {
	GameID             ID      `json:"gameId"`
	WhiteMs            Number  `json:"wMs"`
	BlackMs            Number  `json:"bMs"`
	Turn               *string `json:"turn"`
	ClockRunning       *bool   `json:"clockRunning"`
	ServerNow          Number  `json:"serverNow"`
	LastTurnStartedAt  Number  `json:"lastTurnStartedAt"`
	ServerTimeOffsetMs Number  `json:"serverTimeOffsetMs"`
}

// GameEnded decodes field by field: a badly typed field falls back to its zero
// value without losing the others.
type GameEnded struct {
	GameID         ID     `json:"gameId"`
	Reason         Text   `json:"reason"`
	WinnerColor    Text   `json:"winnerColor"`
	IsOpponentLeft Flag   `json:"isOpponentLeft"`
	CreditsChange  Number `json:"creditsChange"`
}

type MatchmakingMatched struct {
	MatchID        ID      `json:"matchId"`
	DBMatchID      ID      `json:"dbMatchId"`
	OpponentUserID ID      `json:"opponentUserId"`
	Color          *string `json:"color"`
	Wager          Number  `json:"wager"`
}

type MatchmakingError struct {
	Message *string `json:"message"`
}
