package session

import (
	"context"
	"errors"
	"hash/maphash"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func createRand() *rand.Rand {
	return rand.New(rand.NewPCG(
		new(maphash.Hash).Sum64(), new(maphash.Hash).Sum64(),
	))
}

// Registry runs sessions and finds them by id. It is safe for concurrent
// use.
type Registry struct {
	ctx      context.Context
	cancel   context.CancelFunc
	cfg      Config
	recorder Recorder

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	wg       sync.WaitGroup
}

// NewRegistry returns a registry whose sessions all stop when ctx is
// cancelled or [Registry.Close] is called. recorder may be nil.
func NewRegistry(ctx context.Context, cfg Config, recorder Recorder) *Registry {
	ctx, cancel := context.WithCancel(ctx)
	return &Registry{
		ctx:      ctx,
		cancel:   cancel,
		cfg:      cfg,
		recorder: recorder,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Create starts a new session. Invalid params are reported here, before
// anything runs.
func (r *Registry) Create(opts Options) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ctx.Err(); err != nil {
		return nil, ErrClosed
	}
	if r.cfg.MaxSessions > 0 && len(r.sessions) >= r.cfg.MaxSessions {
		return nil, ErrTooManySessions
	}

	s, err := New(opts, r.cfg, createRand(), r.recorder)
	if err != nil {
		return nil, err
	}
	r.sessions[s.id] = s

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		err := s.Run(r.ctx)
		r.remove(s.id)
		if err != nil && !errors.Is(err, context.Canceled) {
			Log.WithFields(s.fields()).Warn("session stopped: ", err)
		}
	}()

	Log.WithFields(s.fields()).WithFields(logrus.Fields{
		"solver": opts.Solver,
		"name":   opts.Name,
	}).Info("session created")
	return s, nil
}

func (r *Registry) Get(id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Close stops every session and waits for them to finish.
func (r *Registry) Close() {
	r.mu.Lock()
	r.cancel()
	r.mu.Unlock()
	r.wg.Wait()
}
