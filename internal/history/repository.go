package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

const schema = `CREATE TABLE IF NOT EXISTS session_results (
    game_id               TEXT PRIMARY KEY,
    db_game_id            TEXT,
    player_id             TEXT NOT NULL,
    color                 TEXT NOT NULL,
    player_name           TEXT,
    opponent_name         TEXT,
    wager                 DOUBLE PRECISION NOT NULL DEFAULT 0,
    reason                TEXT,
    outcome               TEXT NOT NULL,
    pgn_result            TEXT NOT NULL,
    opponent_disconnected BOOLEAN NOT NULL DEFAULT FALSE,
    credits_change        DOUBLE PRECISION,
    message               TEXT,
    final_position        TEXT,
    ended_at              TIMESTAMPTZ NOT NULL
)`

const insertResult = `INSERT INTO session_results (
    game_id, db_game_id, player_id, color, player_name, opponent_name,
    wager, reason, outcome, pgn_result, opponent_disconnected,
    credits_change, message, final_position, ended_at
  ) VALUES (
    $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15
  ) ON CONFLICT (game_id) DO NOTHING`

// Repository stores records in Postgres.
type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// EnsureSchema creates the results table if it is missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// SaveResult inserts rec. A second save for the same game is ignored.
func (r *Repository) SaveResult(ctx context.Context, rec Record) error {
	if r == nil || r.db == nil {
		return nil
	}
	var credits sql.NullFloat64
	if rec.CreditsChange != nil {
		credits = sql.NullFloat64{Float64: *rec.CreditsChange, Valid: true}
	}
	endedAt := rec.EndedAt
	if endedAt.IsZero() {
		endedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, insertResult,
		rec.GameID, nullString(rec.DBGameID), rec.PlayerID, string(rec.Color),
		rec.PlayerName, rec.OpponentName,
		rec.Wager, rec.Reason, rec.Outcome, rec.PGNResult, rec.OpponentDisconnected,
		credits, rec.Message, rec.FinalPosition, endedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert result %s: %w", rec.GameID, err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
