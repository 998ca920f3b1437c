package mines

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

type GameState int8

const (
	NewGame GameState = iota
	Playing
	Dead
	Won
)

func (s GameState) String() string {
	switch s {
	case NewGame:
		return "new"
	case Playing:
		return "playing"
	case Dead:
		return "dead"
	case Won:
		return "won"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// [GameState] implements [encoding.TextMarshaler]
func (s GameState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *GameState) UnmarshalText(text []byte) error {
	for _, candidate := range []GameState{NewGame, Playing, Dead, Won} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown game state %q", text)
}

func (s GameState) Over() bool {
	return s == Dead || s == Won
}

// Generator populates a grid for a first click at start.
type Generator func(params GameParams, start Point, r *rand.Rand) (*Grid, error)

type Option func(*Board)

// WithSolver runs one solver pass at the end of every tick while playing.
func WithSolver(enabled bool) Option {
	return func(b *Board) {
		b.solver = enabled
	}
}

// WithGenerator replaces [GenerateFair] for the first click.
func WithGenerator(gen Generator) Option {
	return func(b *Board) {
		b.generate = gen
	}
}

/*
Board is one game: the grid, its state and the counters shown next to it.
It is driven exclusively through [Board.Tick] by a single owner and is not
safe for concurrent use. A new game is a new Board.
*/
type Board struct {
	params     GameParams
	grid       *Grid
	state      GameState
	flagged    int
	elapsed    time.Duration
	detonated  []Point
	misflagged []Point

	solver   bool
	generate Generator
	rnd      *rand.Rand
}

func NewBoard(params GameParams, r *rand.Rand, opts ...Option) (*Board, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	b := &Board{
		params:   params,
		grid:     NewGrid(params),
		state:    NewGame,
		generate: GenerateFair,
		rnd:      r,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *Board) Params() GameParams { return b.params }
func (b *Board) State() GameState   { return b.state }
func (b *Board) FlaggedCount() int  { return b.flagged }
func (b *Board) Solver() bool       { return b.solver }

// Tile returns a copy of the tile at p.
func (b *Board) Tile(p Point) Tile {
	return *b.grid.At(p)
}

// MinesRemaining is the mine counter. It goes negative when the player has
// placed more flags than there are mines.
func (b *Board) MinesRemaining() int {
	return b.params.MineCount - b.flagged
}

func (b *Board) Elapsed() time.Duration {
	return b.elapsed
}

func (b *Board) ElapsedSeconds() int {
	return int(b.elapsed / time.Second)
}

func (b *Board) Detonated() []Point {
	return slices.Clone(b.detonated)
}

func (b *Board) Misflagged() []Point {
	return slices.Clone(b.misflagged)
}

// String draws the player's view of the board.
func (b *Board) String() string {
	return b.grid.String()
}

/*
Tick advances the game by one step: the clock, then the gesture in `in',
then a solver pass if enabled, then the end-of-game checks. It reports
whether anything visible changed. Finished games ignore every input.
*/
func (b *Board) Tick(in Input) bool {
	if b.state.Over() {
		return false
	}

	changed := false
	if b.state == Playing && in.Elapsed > 0 {
		before := b.ElapsedSeconds()
		b.elapsed += in.Elapsed
		changed = b.ElapsedSeconds() != before
	}

	out := Outcome{Kind: NoOp}
	if gesture := in.Gesture(); gesture != NoGesture && b.params.InBounds(in.Cursor) {
		var acted bool
		out, acted = b.apply(gesture, in.Cursor)
		changed = changed || acted
	}

	if b.solver && b.state == Playing && out.Kind != Detonated {
		sol := Solve(b.grid)
		if sol.Changed() {
			Log.WithFields(logrus.Fields{
				"flagged":  sol.Flagged,
				"revealed": sol.Revealed,
			}).Debug("solver pass")
		}
		out.merge(sol.Outcome)
		changed = changed || sol.Changed()
	}

	if b.state != Playing {
		return changed
	}

	b.flagged = b.grid.Count(Flagged)
	if out.Kind == Detonated {
		b.die(out.Mines)
		return true
	}
	if b.grid.Cleared() {
		b.state = Won
		Log.WithFields(logrus.Fields{
			"params":  b.params.String(),
			"elapsed": b.elapsed.String(),
		}).Debug("game won")
		return true
	}
	return changed
}

func (b *Board) apply(gesture Gesture, p Point) (Outcome, bool) {
	switch gesture {
	case Open:
		return b.open(p)
	case Flag:
		return Outcome{Kind: NoOp}, b.toggleFlag(p)
	case Chord:
		if b.state != Playing {
			return Outcome{Kind: NoOp}, false
		}
		out := b.grid.Chord(p)
		return out, out.Kind != NoOp
	}
	return Outcome{Kind: NoOp}, false
}

func (b *Board) open(p Point) (Outcome, bool) {
	switch b.state {
	case NewGame:
		grid, err := b.generate(b.params, p, b.rnd)
		if errors.Is(err, ErrNoFairStart) {
			Log.WithFields(logrus.Fields{
				"params": b.params.String(),
				"start":  p,
			}).Warn("no fair layout around start, only keeping it safe")
			grid, err = GenerateSafe(b.params, p, b.rnd)
		}
		if err != nil {
			// params were validated in NewBoard
			Log.WithFields(logrus.Fields{
				"params": b.params.String(),
				"start":  p,
			}).Error("unable to generate grid: ", err)
			return Outcome{Kind: NoOp}, false
		}
		b.grid = grid
		b.state = Playing
		b.elapsed = 0
		Log.WithFields(logrus.Fields{
			"params": b.params.String(),
			"start":  p,
		}).Debug("game started")
		return b.grid.Reveal(p), true
	case Playing:
		if b.grid.At(p).Visibility != Hidden {
			return Outcome{Kind: NoOp}, false
		}
		return b.grid.Reveal(p), true
	}
	return Outcome{Kind: NoOp}, false
}

func (b *Board) toggleFlag(p Point) bool {
	if b.state != Playing {
		return false
	}
	t := b.grid.At(p)
	switch t.Visibility {
	case Hidden:
		t.Visibility = Flagged
		b.flagged++
	case Flagged:
		t.Visibility = Hidden
		b.flagged--
	default:
		return false
	}
	return true
}

/*
die ends the game. Every mine that isn't flagged is shown; flags on safe
tiles are opened and marked as wrong. Correct flags stay as they are.
*/
func (b *Board) die(mines []Point) {
	b.state = Dead
	for _, p := range mines {
		if !slices.Contains(b.detonated, p) {
			b.detonated = append(b.detonated, p)
		}
	}
	for i := range b.grid.Tiles {
		t := &b.grid.Tiles[i]
		switch {
		case t.Mine && t.Visibility == Hidden:
			t.Visibility = Revealed
		case !t.Mine && t.Visibility == Flagged:
			t.Visibility = Revealed
			t.Misflag = true
			b.misflagged = append(b.misflagged, b.grid.point(i))
		}
	}
	Log.WithFields(logrus.Fields{
		"params":     b.params.String(),
		"detonated":  b.detonated,
		"misflagged": len(b.misflagged),
		"elapsed":    b.elapsed.String(),
	}).Debug("game lost")
}
