package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Egress modes for outbound moves.
const (
	EgressAuto = "auto"
	EgressWS   = "ws"
	EgressHTTP = "http"
)

type AppConfig struct {
	GameAPIURL string
	GameWSURL  string

	PlayerID  string
	AuthToken string

	RedisURL    string
	DatabaseURL string
	MessagesDir string

	SessionTTL time.Duration

	ClockPoll time.Duration

	WSMaxReconnect   int
	WSReconnectDelay time.Duration
	HTTPTimeout      time.Duration
	HTTPRetry        int
	EgressMode       string

	DefaultWager float64
	AutoQueue    bool
}

// LoadDotenv seeds the environment from the given files (".env" when none). Missing files
// are not an error; variables already set are kept.
func LoadDotenv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		SessionTTL:       24 * time.Hour,
		ClockPoll:        200 * time.Millisecond,
		WSMaxReconnect:   5,
		WSReconnectDelay: time.Second,
		HTTPTimeout:      8 * time.Second,
		HTTPRetry:        3,
		EgressMode:       EgressAuto,
	}

	cfg.GameAPIURL = strings.TrimRight(strings.TrimSpace(os.Getenv("GAME_API_URL")), "/")
	cfg.GameWSURL = strings.TrimSpace(os.Getenv("GAME_WS_URL"))
	cfg.PlayerID = strings.TrimSpace(os.Getenv("PLAYER_ID"))
	cfg.AuthToken = strings.TrimSpace(os.Getenv("AUTH_TOKEN"))

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))

	if v := strings.TrimSpace(os.Getenv("SESSION_TTL_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SessionTTL = time.Duration(n) * time.Second
		}
	}
	if n, ok := positiveInt("CLOCK_POLL_MS"); ok {
		cfg.ClockPoll = time.Duration(n) * time.Millisecond
	}
	if v := strings.TrimSpace(os.Getenv("WS_MAX_RECONNECT")); v != "" {
		// zero disables reconnects
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.WSMaxReconnect = n
		}
	}
	if n, ok := positiveInt("WS_RECONNECT_DELAY_MS"); ok {
		cfg.WSReconnectDelay = time.Duration(n) * time.Millisecond
	}
	if n, ok := positiveInt("HTTP_TIMEOUT_MS"); ok {
		cfg.HTTPTimeout = time.Duration(n) * time.Millisecond
	}
	if n, ok := positiveInt("HTTP_RETRY"); ok {
		cfg.HTTPRetry = n
	}
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("EGRESS_MODE"))); v != "" {
		switch v {
		case EgressAuto, EgressWS, EgressHTTP:
			cfg.EgressMode = v
		}
	}
	if v := strings.TrimSpace(os.Getenv("DEFAULT_WAGER")); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			cfg.DefaultWager = f
		}
	}
	if v := strings.TrimSpace(os.Getenv("AUTO_QUEUE")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.AutoQueue = b
		}
	}

	if cfg.GameAPIURL == "" {
		return nil, errors.New("GAME_API_URL is required")
	}
	if cfg.GameWSURL == "" {
		return nil, errors.New("GAME_WS_URL is required")
	}
	if cfg.PlayerID == "" {
		return nil, errors.New("PLAYER_ID is required")
	}

	return cfg, nil
}

func positiveInt(key string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
