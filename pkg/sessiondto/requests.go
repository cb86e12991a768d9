package sessiondto

type MoveRequest struct {
	GameID    string `json:"gameId"`
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

type QueueRequest struct {
	PlayerID string  `json:"playerId"`
	Wager    float64 `json:"wager"`
}

type LeaveQueueRequest struct {
	PlayerID string `json:"playerId"`
}

type MoveResponse struct {
	Accepted bool   `json:"accepted"`
	Position string `json:"position,omitempty"`
	Error    string `json:"error,omitempty"`
}

type QueueResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type ServerTimeResponse struct {
	ServerNow int64 `json:"serverNow"`
}

// ErrorResponse is the body the game API returns on failure.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
