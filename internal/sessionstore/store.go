// Package sessionstore keeps a resumable copy of a player's session in Redis.
package sessionstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/cheese-session/internal/obslog"
	"github.com/park285/cheese-session/internal/session"
)

const (
	DefaultTTL  = 24 * time.Hour
	saveTimeout = 2 * time.Second
	keyPrefix   = "session:"
)

// record is the persisted subset of session.State. Clocks and premoves are transient.
type record struct {
	Phase       session.Phase            `json:"phase"`
	Game        *session.GameSnapshot    `json:"game,omitempty"`
	Result      *session.GameEndResult   `json:"result,omitempty"`
	Matchmaking session.MatchmakingState `json:"matchmaking"`
	SavedAt     time.Time                `json:"saved_at"`
}

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// Open connects to redisURL and pings it.
func Open(ctx context.Context, redisURL string, ttl time.Duration) (*Store, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewStore(rdb, ttl), nil
}

func (s *Store) Close() error { return s.rdb.Close() }

func (s *Store) key(player string) string { return keyPrefix + strings.TrimSpace(player) }

// Save stores st for player, refreshing the TTL.
func (s *Store) Save(ctx context.Context, player string, st session.State) error {
	raw, err := json.Marshal(record{
		Phase:       st.Phase,
		Game:        st.Game,
		Result:      st.Result,
		Matchmaking: st.Matchmaking,
		SavedAt:     time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(player), raw, s.ttl).Err()
}

// Load returns nil without error when nothing is stored.
func (s *Store) Load(ctx context.Context, player string) (*session.State, error) {
	raw, err := s.rdb.Get(ctx, s.key(player)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", player, err)
	}
	return &session.State{
		Phase:       rec.Phase,
		Game:        rec.Game,
		Result:      rec.Result,
		Matchmaking: rec.Matchmaking,
	}, nil
}

func (s *Store) Delete(ctx context.Context, player string) error {
	return s.rdb.Del(ctx, s.key(player)).Err()
}

// Hydrate restores the stored session into svc. It reports whether anything was restored.
func (s *Store) Hydrate(ctx context.Context, svc *session.Service, player string) (bool, error) {
	st, err := s.Load(ctx, player)
	if err != nil || st == nil {
		return false, err
	}
	return svc.Restore(*st), nil
}

// empty reports whether there is nothing worth resuming.
func empty(st session.State) bool {
	return st.Phase == session.PhaseIdle && st.Game == nil && st.Result == nil &&
		st.Matchmaking.Status == session.MatchIdle
}

// Syncer mirrors every session change into the store. Saves run on one goroutine and
// only the latest state is written.
type Syncer struct {
	store  *Store
	player string
	unsub  func()

	pending chan session.State
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// Attach starts mirroring svc for player.
func (s *Store) Attach(svc *session.Service, player string) *Syncer {
	sy := &Syncer{
		store:   s,
		player:  player,
		pending: make(chan session.State, 1),
		done:    make(chan struct{}),
	}
	sy.wg.Add(1)
	go sy.run()
	sy.unsub = svc.Subscribe(sy.offer)
	return sy
}

// offer replaces any unsaved state with st. It never blocks.
func (sy *Syncer) offer(st session.State) {
	for {
		select {
		case sy.pending <- st:
			return
		default:
		}
		select {
		case <-sy.pending:
		default:
		}
	}
}

func (sy *Syncer) run() {
	defer sy.wg.Done()
	for {
		select {
		case st := <-sy.pending:
			sy.write(st)
		case <-sy.done:
			select {
			case st := <-sy.pending:
				sy.write(st)
			default:
			}
			return
		}
	}
}

func (sy *Syncer) write(st session.State) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	var err error
	if empty(st) {
		err = sy.store.Delete(ctx, sy.player)
	} else {
		err = sy.store.Save(ctx, sy.player, st)
	}
	if err != nil {
		obslog.L().Warn("session_store_error", zap.String("player_id", sy.player), zap.Uint64("revision", st.Revision), zap.Error(err))
	}
}

// Close stops mirroring and flushes the last pending state.
func (sy *Syncer) Close() {
	sy.once.Do(func() {
		sy.unsub()
		close(sy.done)
		sy.wg.Wait()
	})
}
