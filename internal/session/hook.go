package session

// Event describes one operation on the session, applied or not.
type Event struct {
	SessionID string
	Op        string
	Phase     Phase
	GameID    string
	Applied   bool
	// Reason names the guard that turned the operation into a no-op.
	Reason   string
	Revision uint64
}

// Hook receives every Event. It runs synchronously inside the operation and must not
// call back into the Service's write surface.
type Hook func(Event)

// Guard names reported in Event.Reason.
const (
	GuardAlreadyOver  = "already_over"
	GuardNotInGame    = "not_in_game"
	GuardNoGame       = "no_game"
	GuardResultExists = "result_exists"
	GuardNoResult     = "no_result"
	GuardNotIdle      = "not_idle"
	GuardBadStatus    = "bad_status"
	GuardEmpty        = "empty"
	GuardInconsistent = "inconsistent"
)
