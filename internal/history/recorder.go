package history

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-session/internal/obslog"
	"github.com/park285/cheese-session/internal/session"
)

const (
	queueSize   = 16
	saveTimeout = 5 * time.Second
)

// Recorder writes one record per concluded game observed on a session.
type Recorder struct {
	store  Store
	player string
	unsub  func()

	mu   sync.Mutex
	seen map[string]struct{}

	queue chan Record
	done  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

// Attach starts recording results from svc.
func Attach(svc *session.Service, store Store, player string) *Recorder {
	r := &Recorder{
		store:  store,
		player: player,
		seen:   make(map[string]struct{}),
		queue:  make(chan Record, queueSize),
		done:   make(chan struct{}),
	}
	r.wg.Add(1)
	go r.run()
	r.unsub = svc.Subscribe(r.observe)
	return r
}

func (r *Recorder) observe(st session.State) {
	rec, ok := FromState(r.player, st)
	if !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.seen[rec.GameID]; dup {
		return
	}
	// a game is only marked seen once queued, so a full queue retries on the next update
	select {
	case r.queue <- rec:
		r.seen[rec.GameID] = struct{}{}
	case <-r.done:
	default:
		obslog.L().Warn("history_queue_full", zap.String("game_id", rec.GameID))
	}
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for {
		select {
		case rec := <-r.queue:
			r.save(rec)
		case <-r.done:
			for {
				select {
				case rec := <-r.queue:
					r.save(rec)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) save(rec Record) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := r.store.SaveResult(ctx, rec); err != nil {
		obslog.L().Warn("history_save_error", zap.String("game_id", rec.GameID), zap.Error(err))
		return
	}
	obslog.L().Info("history_saved", zap.String("game_id", rec.GameID), zap.String("outcome", rec.Outcome))
}

// Close stops recording and writes anything still queued.
func (r *Recorder) Close() {
	r.once.Do(func() {
		r.unsub()
		close(r.done)
		r.wg.Wait()
	})
}
