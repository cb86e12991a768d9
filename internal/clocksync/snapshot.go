// Package clocksync projects a server-authoritative clock reading onto the local wall clock.
//
// A Snapshot is never mutated and never counted down in place; every displayed value is
// derived from the latest snapshot plus the current local time, so nothing drifts between
// readings.
package clocksync

import (
	"fmt"
	"time"

	"github.com/park285/cheese-session/internal/color"
)

// Reading is a raw timer reading as supplied by the transport.
// OffsetMs is optional; when nil the offset is derived at receipt.
type Reading struct {
	WhiteMs           int64
	BlackMs           int64
	Turn              color.Color
	ClockRunning      bool
	ServerNow         int64 // epoch ms
	LastTurnStartedAt int64 // epoch ms
	OffsetMs          *int64
}

// Snapshot is an immutable point-in-time clock reading.
type Snapshot struct {
	WhiteMs           int64       `json:"w_ms"`
	BlackMs           int64       `json:"b_ms"`
	Turn              color.Color `json:"turn"`
	ClockRunning      bool        `json:"clock_running"`
	ServerNow         int64       `json:"server_now"`
	LastTurnStartedAt int64       `json:"last_turn_started_at"`
	ServerOffsetMs    int64       `json:"server_offset_ms"`
}

// NewSnapshot freezes a reading. The offset is serverNow minus the local receipt time.
func NewSnapshot(in Reading, localReceipt time.Time) Snapshot {
	offset := in.ServerNow - localReceipt.UnixMilli()
	if in.OffsetMs != nil {
		offset = *in.OffsetMs
	}
	turn := in.Turn
	if !turn.Valid() {
		turn = color.White
	}
	return Snapshot{
		WhiteMs:           clamp(in.WhiteMs),
		BlackMs:           clamp(in.BlackMs),
		Turn:              turn,
		ClockRunning:      in.ClockRunning,
		ServerNow:         in.ServerNow,
		LastTurnStartedAt: in.LastTurnStartedAt,
		ServerOffsetMs:    offset,
	}
}

// Display is the derived per-side remaining time at one instant.
type Display struct {
	White   int64
	Black   int64
	Active  color.Color
	Running bool
	// Flagged names the side whose projected time reached zero. The server decides the
	// actual timeout; this is for display only.
	Flagged color.Color
}

// For returns the remaining milliseconds of one side.
func (d Display) For(c color.Color) int64 {
	if c == color.Black {
		return d.Black
	}
	return d.White
}

// String renders "w 1:30 | b 9.5" style output for logs.
func (d Display) String() string {
	return fmt.Sprintf("w %s | b %s", FormatClock(d.White), FormatClock(d.Black))
}

// EstimatedServerNow projects the server's current time from the local clock.
func (s Snapshot) EstimatedServerNow(localNow time.Time) int64 {
	return localNow.UnixMilli() + s.ServerOffsetMs
}

// Remaining derives both clocks at localNow.
func Remaining(s Snapshot, localNow time.Time) Display {
	d := Display{
		White:   s.WhiteMs,
		Black:   s.BlackMs,
		Active:  s.Turn,
		Running: s.ClockRunning,
	}
	if !s.ClockRunning {
		// before the first move both clocks are frozen
		return d
	}
	elapsed := s.EstimatedServerNow(localNow) - s.ServerNow
	if elapsed < 0 {
		elapsed = 0
	}
	if s.Turn == color.Black {
		d.Black = clamp(s.BlackMs - elapsed)
		if d.Black == 0 {
			d.Flagged = color.Black
		}
	} else {
		d.White = clamp(s.WhiteMs - elapsed)
		if d.White == 0 {
			d.Flagged = color.White
		}
	}
	return d
}

func clamp(ms int64) int64 {
	if ms < 0 {
		return 0
	}
	return ms
}

// FormatClock formats milliseconds as "m:ss", or "s.t" under ten seconds.
func FormatClock(timeMs int64) string {
	if timeMs < 0 {
		timeMs = 0
	}

	totalSeconds := timeMs / 1000
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60

	if timeMs < 10000 {
		tenths := (timeMs % 1000) / 100
		return fmt.Sprintf("%d.%d", totalSeconds, tenths)
	}

	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
