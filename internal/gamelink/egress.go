package gamelink

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/cheese-session/pkg/sessiondto"
)

// Egress sends moves to the server over HTTP, WebSocket, or WebSocket with HTTP fallback.
type Egress interface {
	SubmitMove(ctx context.Context, req sessiondto.MoveRequest) error
}

type transportMode string

const (
	transportHTTP transportMode = "http"
	transportWS   transportMode = "ws"
	transportAuto transportMode = "auto"
)

// NewEgress picks a transport by mode. Unknown modes use HTTP. In auto mode WS is used
// while connected and a failed WS write falls back to HTTP once.
func NewEgress(mode string, c *Client, ws *WebSocket, logger *zap.Logger) Egress {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch transportMode(mode) {
	case transportWS:
		return &wsEgress{ws: ws}
	case transportAuto:
		return &autoEgress{ws: &wsEgress{ws: ws}, http: &httpEgress{c: c}, logger: logger}
	default:
		return &httpEgress{c: c}
	}
}

type httpEgress struct{ c *Client }

func (h *httpEgress) SubmitMove(ctx context.Context, req sessiondto.MoveRequest) error {
	if h == nil || h.c == nil {
		return errors.New("http egress not available")
	}
	return h.c.SubmitMove(ctx, req)
}

// wsEgress writes move frames over the socket. The server replies asynchronously with
// a position_update.
type wsEgress struct{ ws *WebSocket }

func (w *wsEgress) SubmitMove(ctx context.Context, req sessiondto.MoveRequest) error {
	if w == nil || w.ws == nil {
		return errors.New("ws egress not available")
	}
	return w.ws.Send(ctx, sessiondto.Outbound{
		Type:      sessiondto.TypeMove,
		RequestID: uuid.NewString(),
		Payload:   req,
	})
}

type autoEgress struct {
	ws     *wsEgress
	http   *httpEgress
	logger *zap.Logger
}

func (a *autoEgress) SubmitMove(ctx context.Context, req sessiondto.MoveRequest) error {
	if a.ws != nil && a.ws.ws != nil && a.ws.ws.Connected() {
		err := a.ws.SubmitMove(ctx, req)
		if err == nil {
			return nil
		}
		a.logger.Warn("egress_fallback", zap.String("game_id", req.GameID), zap.Error(err))
	}
	return a.http.SubmitMove(ctx, req)
}
