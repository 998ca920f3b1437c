package session

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vancomm/minesweeper-engine/internal/mines"
)

var Log = logrus.New()

var (
	ErrNotFound        = errors.New("session not found")
	ErrClosed          = errors.New("session closed")
	ErrTooManySessions = errors.New("too many sessions")
)

// Result is a won game, handed to the [Recorder].
type Result struct {
	GameID    uuid.UUID // one per board; a reset starts a new game
	SessionID uuid.UUID
	Name      string
	Params    mines.GameParams
	Elapsed   time.Duration
	WonAt     time.Time
}

type Recorder interface {
	Record(ctx context.Context, result Result) error
}

type Config struct {
	TickInterval time.Duration
	IdleTimeout  time.Duration
	MaxSessions  int // 0 means no limit
}

type Options struct {
	Params mines.GameParams
	Solver bool
	Name   string

	// Generator replaces the default first-click generator when set.
	Generator mines.Generator
}

func (o Options) boardOptions() []mines.Option {
	opts := []mines.Option{mines.WithSolver(o.Solver)}
	if o.Generator != nil {
		opts = append(opts, mines.WithGenerator(o.Generator))
	}
	return opts
}

/*
Session hosts one [mines.Board]. The board is only touched by the goroutine
running [Session.Run]; everyone else talks to it through Send and Reset and
watches it through Snapshot and Subscribe.
*/
type Session struct {
	id       uuid.UUID
	gameID   uuid.UUID
	opts     Options
	cfg      Config
	rnd      *rand.Rand
	recorder Recorder
	board    *mines.Board

	inputs chan mines.Input
	resets chan struct{}
	done   chan struct{}

	mu       sync.Mutex
	snapshot mines.Snapshot
	subs     map[chan mines.Snapshot]struct{}
	closed   bool
}

func New(opts Options, cfg Config, r *rand.Rand, recorder Recorder) (*Session, error) {
	board, err := mines.NewBoard(opts.Params, r, opts.boardOptions()...)
	if err != nil {
		return nil, err
	}
	s := &Session{
		id:       uuid.New(),
		gameID:   uuid.New(),
		opts:     opts,
		cfg:      cfg,
		rnd:      r,
		recorder: recorder,
		board:    board,
		inputs:   make(chan mines.Input),
		resets:   make(chan struct{}),
		done:     make(chan struct{}),
		snapshot: board.Snapshot(),
		subs:     make(map[chan mines.Snapshot]struct{}),
	}
	return s, nil
}

func (s *Session) ID() uuid.UUID            { return s.id }
func (s *Session) Params() mines.GameParams { return s.opts.Params }
func (s *Session) Done() <-chan struct{}    { return s.done }

func (s *Session) fields() logrus.Fields {
	return logrus.Fields{
		"session": s.id.String(),
		"params":  s.opts.Params.String(),
	}
}

/*
Run drives the board until ctx is cancelled or nothing has been sent for
IdleTimeout. Inputs are applied in the order they arrive; between them the
ticker feeds empty inputs so the clock keeps running. Every tick gets the
wall time elapsed since the previous one.
*/
func (s *Session) Run(ctx context.Context) error {
	defer s.close()

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()
	idle := time.NewTimer(s.cfg.IdleTimeout)
	defer idle.Stop()

	last := time.Now()
	since := func(now time.Time) time.Duration {
		if now.Before(last) {
			return 0
		}
		d := now.Sub(last)
		last = now
		return d
	}

	Log.WithFields(s.fields()).Debug("session started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-idle.C:
			Log.WithFields(s.fields()).Info("session idle, closing")
			return nil
		case in := <-s.inputs:
			in.Elapsed = since(time.Now())
			s.tick(ctx, in)
			idle.Reset(s.cfg.IdleTimeout)
		case <-s.resets:
			s.reset()
			last = time.Now()
			idle.Reset(s.cfg.IdleTimeout)
		case now := <-ticker.C:
			s.tick(ctx, mines.Input{Elapsed: since(now)})
		}
	}
}

func (s *Session) tick(ctx context.Context, in mines.Input) {
	before := s.board.State()
	if !s.board.Tick(in) {
		return
	}
	s.publish(s.board.Snapshot())

	after := s.board.State()
	if after == before {
		return
	}
	Log.WithFields(s.fields()).WithFields(logrus.Fields{
		"from": before.String(),
		"to":   after.String(),
	}).Debug("state changed")
	if after == mines.Won {
		s.record(ctx)
	}
}

func (s *Session) record(ctx context.Context) {
	if s.recorder == nil {
		return
	}
	result := Result{
		GameID:    s.gameID,
		SessionID: s.id,
		Name:      s.opts.Name,
		Params:    s.opts.Params,
		Elapsed:   s.board.Elapsed(),
		WonAt:     time.Now().UTC(),
	}
	if err := s.recorder.Record(ctx, result); err != nil {
		Log.WithFields(s.fields()).Error("unable to record result: ", err)
		return
	}
	Log.WithFields(s.fields()).WithField("elapsed", result.Elapsed.String()).Info("result recorded")
}

// reset replaces the board with a fresh one of the same configuration.
func (s *Session) reset() {
	board, err := mines.NewBoard(s.opts.Params, s.rnd, s.opts.boardOptions()...)
	if err != nil {
		// the same params were accepted in New
		Log.WithFields(s.fields()).Error("unable to reset board: ", err)
		return
	}
	s.board = board
	s.gameID = uuid.New()
	s.publish(board.Snapshot())
	Log.WithFields(s.fields()).Debug("board reset")
}

// Send queues in for the next tick. Elapsed is ignored; the session
// measures time itself.
func (s *Session) Send(ctx context.Context, in mines.Input) error {
	select {
	case s.inputs <- in:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset starts a new game on the same session.
func (s *Session) Reset(ctx context.Context) error {
	select {
	case s.resets <- struct{}{}:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) Snapshot() mines.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

/*
Subscribe returns a channel that holds the latest snapshot, starting with
the current one. Slow readers only miss intermediate snapshots. The channel
is closed when the session ends or cancel is called.
*/
func (s *Session) Subscribe() (snapshots <-chan mines.Snapshot, cancel func()) {
	ch := make(chan mines.Snapshot, 1)

	s.mu.Lock()
	ch <- s.snapshot
	if s.closed {
		close(ch)
	} else {
		s.subs[ch] = struct{}{}
	}
	s.mu.Unlock()

	cancel = func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
	}
	return ch, cancel
}

func (s *Session) publish(snapshot mines.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot
	for ch := range s.subs {
		// only publish sends, so after draining there is room
		select {
		case <-ch:
		default:
		}
		ch <- snapshot
	}
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for ch := range s.subs {
		delete(s.subs, ch)
		close(ch)
	}
	close(s.done)
	Log.WithFields(s.fields()).Debug("session closed")
}
