package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-session/internal/clocksync"
	appcfg "github.com/park285/cheese-session/internal/config"
	"github.com/park285/cheese-session/internal/dispatch"
	"github.com/park285/cheese-session/internal/gamelink"
	"github.com/park285/cheese-session/internal/history"
	"github.com/park285/cheese-session/internal/msgcat"
	"github.com/park285/cheese-session/internal/obslog"
	"github.com/park285/cheese-session/internal/premove"
	"github.com/park285/cheese-session/internal/session"
	"github.com/park285/cheese-session/internal/sessionstore"
)

func main() {
	if err := appcfg.LoadDotenv(); err != nil {
		log.Fatalf("dotenv error: %v", err)
	}
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		log.Fatalf("message catalog error: %v", err)
	}
	svc := session.New(
		session.WithHook(obslog.SessionHook(logger)),
		session.WithCatalog(catalog),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Resume store (Redis)
	if cfg.RedisURL != "" {
		store, err := sessionstore.Open(ctx, cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			log.Fatalf("session store init error: %v", err)
		}
		defer store.Close()
		if ok, err := store.Hydrate(ctx, svc, cfg.PlayerID); err != nil {
			logger.Warn("session_hydrate_error", zap.Error(err))
		} else if ok {
			logger.Info("session_resumed", zap.String("phase", string(svc.Phase())))
		}
		syncer := store.Attach(svc, cfg.PlayerID)
		defer syncer.Close()
	}

	// Result journal (Postgres when configured)
	var results history.Store = history.NewMemoryStore()
	if cfg.DatabaseURL != "" {
		repo, err := history.NewRepository(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("history repo init error: %v", err)
		}
		defer repo.Close()
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatalf("history schema error: %v", err)
		}
		results = repo
	}
	recorder := history.Attach(svc, results, cfg.PlayerID)
	defer recorder.Close()

	headers := gamelink.AuthHeaders(cfg.AuthToken, cfg.PlayerID)
	client := gamelink.NewClient(cfg.GameAPIURL,
		gamelink.WithHeaderProvider(headers),
		gamelink.WithTimeout(cfg.HTTPTimeout),
		gamelink.WithRetry(cfg.HTTPRetry),
	)
	ws := gamelink.NewWebSocket(cfg.GameWSURL, cfg.WSMaxReconnect, cfg.WSReconnectDelay,
		gamelink.WithWSHeaders(headers),
		gamelink.WithWSLogger(logger),
	)
	egress := gamelink.NewEgress(cfg.EgressMode, client, ws, logger)
	d := dispatch.New(svc, dispatch.WithSink(egress), dispatch.WithLogger(logger))

	ws.OnStateChange(func(state gamelink.State) {
		logger.Info("ws_state", zap.String("state", string(state)))
		if state == gamelink.StateConnected {
			d.ResetSequence()
		}
	})
	// frames are handled in arrival order on the read goroutine
	ws.OnMessage(func(raw []byte) { d.HandleRaw(ctx, raw) })

	var announced string
	svc.Subscribe(func(st session.State) {
		if st.Result != nil && st.Result.GameID != announced {
			announced = st.Result.GameID
			fmt.Println(st.Result.Message)
		}
	})

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := ws.Connect(cctx); err != nil {
		logger.Warn("ws_connect_error", zap.Error(err))
	}
	cancel()

	poller := clocksync.NewPoller(
		svc.TimerSnapshot,
		func(disp clocksync.Display, ok bool) {
			if ok && disp.Running {
				logger.Debug("clock", zap.String("display", disp.String()))
			}
		},
		clocksync.WithInterval(cfg.ClockPoll),
		clocksync.WithClock(svc.Clock()),
	)
	go poller.Run(ctx)

	if cfg.AutoQueue {
		if err := d.Search(ctx, client, cfg.PlayerID, cfg.DefaultWager); err != nil {
			logger.Warn("auto_queue_error", zap.Error(err))
		}
	}

	go readCommands(ctx, d, svc, client, cfg)

	<-ctx.Done()

	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	if svc.Phase() == session.PhaseSearching {
		_ = d.CancelSearch(sctx, client, cfg.PlayerID)
	}
	_ = ws.Close(sctx)
}

// readCommands drives the session from stdin, one command per line.
func readCommands(ctx context.Context, d *dispatch.Dispatcher, svc *session.Service, client *gamelink.Client, cfg *appcfg.AppConfig) {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch strings.ToLower(fields[0]) {
		case "help":
			fmt.Println(helpText())
		case "queue":
			wager := cfg.DefaultWager
			if len(fields) > 1 {
				if v, err := strconv.ParseFloat(fields[1], 64); err == nil {
					wager = v
				}
			}
			if err := d.Search(ctx, client, cfg.PlayerID, wager); err != nil {
				fmt.Println("queue error:", err)
			}
		case "cancel":
			if err := d.CancelSearch(ctx, client, cfg.PlayerID); err != nil {
				fmt.Println("cancel error:", err)
			}
		case "move":
			if len(fields) < 2 {
				fmt.Println("usage: move e2e4")
				continue
			}
			m, ok := parseUCI(fields[1])
			if !ok {
				fmt.Println("bad move:", fields[1])
				continue
			}
			queued, err := d.Play(ctx, m)
			switch {
			case err != nil:
				fmt.Println("move error:", err)
			case queued:
				fmt.Println("premove queued:", m.UCI())
			}
		case "unpremove":
			svc.ClearPremove()
		case "dismiss":
			svc.ClearGameEndResult()
		case "reset":
			svc.Reset()
		case "view":
			fmt.Println(renderView(svc))
		default:
			fmt.Println("unknown command; try help")
		}
	}
}

func parseUCI(s string) (premove.Move, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 4 && len(s) != 5 {
		return premove.Move{}, false
	}
	m := premove.Move{From: s[0:2], To: s[2:4]}
	if len(s) == 5 {
		m.Promotion = s[4:]
	}
	return m, m.Valid()
}

func renderView(svc *session.Service) string {
	v := svc.Snapshot().View(svc.Clock().Now())
	var b strings.Builder
	fmt.Fprintf(&b, "phase=%s matchmaking=%s", v.Phase, v.Matchmaking.Status)
	if v.Game != nil {
		fmt.Fprintf(&b, " game=%s color=%s turn=%s mine=%v", v.Game.GameID, v.Game.Color, v.Game.Turn, v.Game.IsMyTurn)
	}
	if v.Clock != nil {
		fmt.Fprintf(&b, " clock=w %s | b %s", v.Clock.White, v.Clock.Black)
	}
	if v.Premove != nil {
		fmt.Fprintf(&b, " premove=%s%s", v.Premove.From, v.Premove.To)
	}
	if v.Result != nil {
		fmt.Fprintf(&b, " result=%q", v.Result.Message)
	}
	return b.String()
}

func helpText() string {
	return strings.Join([]string{
		"queue [wager]   join matchmaking",
		"cancel          leave matchmaking",
		"move e2e4       play or premove",
		"unpremove       drop the queued premove",
		"dismiss         hide the game result",
		"reset           return to idle",
		"view            show the session",
	}, "\n")
}
