package obslog

import (
	"go.uber.org/zap"

	"github.com/park285/cheese-session/internal/session"
)

// SessionHook logs session events. Applied transitions go to Info, ignored ones to Debug.
func SessionHook(l *zap.Logger) session.Hook {
	if l == nil {
		l = L()
	}
	return func(ev session.Event) {
		fields := []zap.Field{
			zap.String("session_id", ev.SessionID),
			zap.String("phase", string(ev.Phase)),
			zap.Uint64("revision", ev.Revision),
		}
		if ev.GameID != "" {
			fields = append(fields, zap.String("game_id", ev.GameID))
		}
		if ev.Applied {
			l.Info("session_"+ev.Op, fields...)
			return
		}
		fields = append(fields, zap.String("guard", ev.Reason))
		l.Debug("session_"+ev.Op+"_ignored", fields...)
	}
}
