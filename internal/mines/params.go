package mines

import (
	"fmt"
	"strconv"
	"strings"
)

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type GameParams struct {
	Width     int `json:"width"`
	Height    int `json:"height"`
	MineCount int `json:"mine_count"`
}

var (
	Beginner     = GameParams{Width: 9, Height: 9, MineCount: 10}
	Intermediate = GameParams{Width: 16, Height: 16, MineCount: 40}
	Expert       = GameParams{Width: 30, Height: 16, MineCount: 99}
	Easy         = GameParams{Width: 30, Height: 16, MineCount: 40}
)

// MaxArea bounds the number of tiles on a board.
const MaxArea = 100_000

var presets = map[string]GameParams{
	"beginner":     Beginner,
	"intermediate": Intermediate,
	"expert":       Expert,
	"easy":         Easy,
}

func (p GameParams) Unpack() (w int, h int, mc int) {
	return p.Width, p.Height, p.MineCount
}

// String returns the params in the form accepted by [ParseParams].
func (p GameParams) String() string {
	return fmt.Sprintf("%dx%d:%d", p.Width, p.Height, p.MineCount)
}

// ParseParams accepts either a preset name ("expert") or "WxH:M".
func ParseParams(s string) (GameParams, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	if p, ok := presets[norm]; ok {
		return p, nil
	}
	size, mc, ok := strings.Cut(norm, ":")
	w, h, ok2 := strings.Cut(size, "x")
	if !ok || !ok2 {
		return GameParams{}, fmt.Errorf("%w: %q", ErrInvalidParams, s)
	}
	var p GameParams
	for _, field := range []struct {
		dst *int
		src string
	}{{&p.Width, w}, {&p.Height, h}, {&p.MineCount, mc}} {
		n, err := strconv.Atoi(field.src)
		if err != nil {
			return GameParams{}, fmt.Errorf("%w: %q: %w", ErrInvalidParams, s, err)
		}
		*field.dst = n
	}
	if err := p.Validate(); err != nil {
		return GameParams{}, err
	}
	return p, nil
}

// Validate reports configuration errors. A valid configuration has at most
// [MaxArea] tiles and leaves room for at least one fair start: a corner with
// no mine in or next to it.
func (p GameParams) Validate() error {
	w, h, mc := p.Unpack()
	if w < 1 || h < 1 || mc < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidParams, p)
	}
	if w > MaxArea/h {
		return fmt.Errorf("%w: %s has more than %d tiles", ErrInvalidParams, p, MaxArea)
	}
	if mc >= w*h {
		return fmt.Errorf("%w: %s", ErrTooManyMines, p)
	}
	if mc > w*h-min(2, w)*min(2, h) {
		return fmt.Errorf("%w: %s", ErrNoFairStart, p)
	}
	return nil
}

func (p GameParams) Area() int {
	return p.Width * p.Height
}

func (p GameParams) InBounds(pt Point) bool {
	return 0 <= pt.X && pt.X < p.Width && 0 <= pt.Y && pt.Y < p.Height
}

// Clamp moves pt onto the nearest cell of the board.
func (p GameParams) Clamp(pt Point) Point {
	return Point{
		X: max(0, min(pt.X, p.Width-1)),
		Y: max(0, min(pt.Y, p.Height-1)),
	}
}

func (p GameParams) index(pt Point) int {
	return pt.Y*p.Width + pt.X
}

func (p GameParams) point(i int) Point {
	return Point{X: i % p.Width, Y: i / p.Width}
}

// Neighbours returns the cells within one step of pt (diagonals included),
// clipped to the board. pt itself is excluded.
func (p GameParams) Neighbours(pt Point) []Point {
	ns := make([]Point, 0, 8)
	for dy := -1; dy <= +1; dy++ {
		for dx := -1; dx <= +1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			n := Point{X: pt.X + dx, Y: pt.Y + dy}
			if p.InBounds(n) {
				ns = append(ns, n)
			}
		}
	}
	return ns
}

func (p GameParams) neighbourIndices(i int) []int {
	pt := p.point(i)
	is := make([]int, 0, 8)
	for _, n := range p.Neighbours(pt) {
		is = append(is, p.index(n))
	}
	return is
}
