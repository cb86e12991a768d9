package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	appcfg "github.com/park285/cheese-session/internal/config"
	"github.com/park285/cheese-session/internal/gamelink"
	"github.com/park285/cheese-session/pkg/sessiondto"
)

func main() {
	if err := appcfg.LoadDotenv(); err != nil {
		log.Fatalf("dotenv error: %v", err)
	}
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	headers := gamelink.AuthHeaders(cfg.AuthToken, cfg.PlayerID)

	client := gamelink.NewClient(cfg.GameAPIURL,
		gamelink.WithHeaderProvider(headers),
		gamelink.WithTimeout(cfg.HTTPTimeout),
	)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	sent := time.Now()
	serverNow, err := client.ServerTime(ctx)
	rtt := time.Since(sent)
	cancel()
	if err != nil {
		log.Printf("/time error: %v", err)
	} else {
		// assume the server sampled its clock halfway through the round trip
		skew := serverNow - sent.Add(rtt/2).UnixMilli()
		log.Printf("/time ok: server_now=%d rtt=%s skew_ms=%d", serverNow, rtt, skew)
	}

	ws := gamelink.NewWebSocket(cfg.GameWSURL, 0, time.Second, gamelink.WithWSHeaders(headers))
	ws.OnStateChange(func(state gamelink.State) {
		log.Printf("WS state: %s", state)
	})
	ws.OnMessage(func(raw []byte) {
		var env sessiondto.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			fmt.Printf("WS frame (undecodable, %d bytes)\n", len(raw))
			return
		}
		seq := "-"
		if env.Seq != nil {
			seq = fmt.Sprint(*env.Seq)
		}
		fmt.Printf("WS frame type=%s seq=%s payload=%d bytes\n", env.Type, seq, len(env.Payload))
	})

	cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ccancel()
	if err := ws.Connect(cctx); err != nil {
		log.Printf("WS connect error: %v", err)
		return
	}

	// Observe for a short window
	t := time.NewTimer(10 * time.Second)
	<-t.C

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer closeCancel()
	_ = ws.Close(closeCtx)
}
