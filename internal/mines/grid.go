package mines

import (
	"fmt"
	"strconv"
	"strings"
)

type Visibility int8

const (
	Hidden Visibility = iota
	Revealed
	Flagged
)

func (v Visibility) String() string {
	switch v {
	case Hidden:
		return "hidden"
	case Revealed:
		return "revealed"
	case Flagged:
		return "flagged"
	default:
		return "visibility(" + strconv.Itoa(int(v)) + ")"
	}
}

// [Visibility] implements [encoding.TextMarshaler]
func (v Visibility) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Visibility) UnmarshalText(text []byte) error {
	for _, candidate := range []Visibility{Hidden, Revealed, Flagged} {
		if candidate.String() == string(text) {
			*v = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown visibility %q", text)
}

type Tile struct {
	Mine       bool
	Count      int8 // mined neighbours, 0-8
	Visibility Visibility
	Misflag    bool // flagged but not a mine; only set once the game is lost
}

/*
Grid is the board in row-major order: the tile at (x, y) lives at
Tiles[y*Width+x]. Tiles never reference each other; neighbourhoods are
computed from indices.
*/
type Grid struct {
	GameParams
	Tiles []Tile
}

// NewGrid returns an unpopulated grid: every tile hidden, no mines.
func NewGrid(params GameParams) *Grid {
	return &Grid{
		GameParams: params,
		Tiles:      make([]Tile, params.Area()),
	}
}

func (g *Grid) At(p Point) *Tile {
	return &g.Tiles[g.index(p)]
}

// Mines returns the number of mined tiles.
func (g *Grid) Mines() (count int) {
	for _, t := range g.Tiles {
		if t.Mine {
			count++
		}
	}
	return
}

// Count returns the number of tiles with the given visibility.
func (g *Grid) Count(v Visibility) (count int) {
	for _, t := range g.Tiles {
		if t.Visibility == v {
			count++
		}
	}
	return
}

// Cleared reports whether every safe tile is revealed. Flags don't count.
func (g *Grid) Cleared() bool {
	for _, t := range g.Tiles {
		if !t.Mine && t.Visibility != Revealed {
			return false
		}
	}
	return true
}

func (g *Grid) countAround(i int, pred func(Tile) bool) (n int) {
	for _, j := range g.neighbourIndices(i) {
		if pred(g.Tiles[j]) {
			n++
		}
	}
	return
}

func (g *Grid) flagsAround(i int) int {
	return g.countAround(i, func(t Tile) bool { return t.Visibility == Flagged })
}

func (g *Grid) computeCounts() {
	for i := range g.Tiles {
		g.Tiles[i].Count = int8(g.countAround(i, func(t Tile) bool { return t.Mine }))
	}
}

func (t Tile) String() string {
	switch t.Visibility {
	case Flagged:
		return "*"
	case Revealed:
		switch {
		case t.Misflag:
			return "x"
		case t.Mine:
			return "!"
		case t.Count == 0:
			return "."
		default:
			return strconv.Itoa(int(t.Count))
		}
	default:
		return "#"
	}
}

// String draws the player's view of the grid, one row per line.
func (g *Grid) String() string {
	var b strings.Builder
	for y := range g.Height {
		for x := range g.Width {
			fmt.Fprint(&b, g.Tiles[y*g.Width+x].String()+" ")
		}
		fmt.Fprint(&b, "\n")
	}
	return b.String()
}

// Layout draws the mine layout: '*' for mines, neighbour counts elsewhere.
func (g *Grid) Layout() string {
	var b strings.Builder
	for y := range g.Height {
		for x := range g.Width {
			t := g.Tiles[y*g.Width+x]
			if t.Mine {
				fmt.Fprint(&b, "* ")
			} else {
				fmt.Fprint(&b, strconv.Itoa(int(t.Count))+" ")
			}
		}
		fmt.Fprint(&b, "\n")
	}
	return b.String()
}
