package mines

type OutcomeKind int8

const (
	NoOp OutcomeKind = iota
	Opened
	Detonated
)

func (k OutcomeKind) String() string {
	switch k {
	case NoOp:
		return "no-op"
	case Opened:
		return "opened"
	case Detonated:
		return "detonated"
	default:
		return "!"
	}
}

// Outcome reports what a reveal did. Mines lists every mine that was
// revealed by it, in reveal order.
type Outcome struct {
	Kind  OutcomeKind
	Mines []Point
}

func (o *Outcome) merge(other Outcome) {
	if other.Kind > o.Kind {
		o.Kind = other.Kind
	}
	o.Mines = append(o.Mines, other.Mines...)
}

/*
Reveal opens the tile at p. A mine is revealed and reported as detonated;
a tile with no mined neighbours floods outward.
*/
func (g *Grid) Reveal(p Point) Outcome {
	t := g.At(p)
	t.Visibility = Revealed
	if t.Mine {
		return Outcome{Kind: Detonated, Mines: []Point{p}}
	}
	if t.Count == 0 {
		g.Flood(p)
	}
	return Outcome{Kind: Opened}
}

/*
Flood reveals the region of zero-count tiles connected to start together
with their numbered border. Mines are never revealed. A flagged safe tile
touching a zero is revealed too: the zero proves it safe.
*/
func (g *Grid) Flood(start Point) {
	i0 := g.index(start)
	seen := make([]bool, len(g.Tiles))
	seen[i0] = true
	queue := []int{i0}

	for qi := 0; qi < len(queue); qi++ {
		for _, j := range g.neighbourIndices(queue[qi]) {
			t := &g.Tiles[j]
			if t.Mine {
				continue
			}
			t.Visibility = Revealed
			if t.Count == 0 && !seen[j] {
				seen[j] = true
				queue = append(queue, j)
			}
		}
	}
}

// Satisfied reports whether p is revealed and has exactly as many flagged
// neighbours as mined ones.
func (g *Grid) Satisfied(p Point) bool {
	i := g.index(p)
	t := g.Tiles[i]
	return t.Visibility == Revealed && !t.Mine && g.flagsAround(i) == int(t.Count)
}

/*
Chord reveals every unflagged neighbour of a satisfied tile. It is a no-op
on tiles that are not satisfied.

Every unflagged mine among the neighbours is revealed and reported; once
one has gone off, the remaining neighbours are still revealed but no longer
flood.
*/
func (g *Grid) Chord(p Point) Outcome {
	if !g.Satisfied(p) {
		return Outcome{Kind: NoOp}
	}

	out := Outcome{Kind: NoOp}
	for _, n := range g.Neighbours(p) {
		t := g.At(n)
		if t.Visibility != Hidden {
			continue
		}
		if out.Kind == Detonated {
			t.Visibility = Revealed
			if t.Mine {
				out.Mines = append(out.Mines, n)
			}
			continue
		}
		out.merge(g.Reveal(n))
	}
	return out
}
