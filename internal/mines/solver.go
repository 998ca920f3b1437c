package mines

/* ----------------------------------------------------------------------
 * Local deduction solver. It only acts on what a single revealed tile
 * (or a row of three) proves, and makes exactly one pass per call; the
 * board calls it once per tick, so deductions unlocked by this pass are
 * picked up by the next one.
 */

// Solution counts what one solver pass did.
type Solution struct {
	Flagged  int // tiles flagged
	Revealed int // reveals issued (each may flood further)
	Outcome
}

func (s Solution) Changed() bool {
	return s.Flagged > 0 || s.Revealed > 0
}

/*
Solve makes one pass over the revealed tiles in row-major order and, for
each, applies in turn:

  - certain mines: as many unrevealed neighbours as the count, so all of
    them are mines and get flagged;
  - certain safe: as many flagged neighbours as the count, so every other
    hidden neighbour is revealed;
  - 1-2-1: three revealed tiles in a line with remaining counts 1, 2, 1 and
    a fully hidden line of three alongside; the outer two of that line are
    flagged and the middle one revealed.

The grid is mutated in place, so later tiles in the pass see earlier
deductions. The pass stops at the first detonation, which only happens when
the flags it trusted were wrong.

The 1-2-1 rule does not check the 2's other hidden neighbours. When the
opposite side of the line is hidden too, its mines may sit there and the
rule can flag a safe tile.
*/
func Solve(g *Grid) Solution {
	var sol Solution
	for i := range g.Tiles {
		if t := g.Tiles[i]; t.Visibility != Revealed || t.Mine {
			continue
		}
		p := g.point(i)
		sol.certainMines(g, i)
		sol.certainSafe(g, i)
		if sol.Kind == Detonated {
			break
		}
		for _, o := range orientations {
			sol.oneTwoOne(g, p, o)
		}
		if sol.Kind == Detonated {
			break
		}
	}
	return sol
}

func (s *Solution) certainMines(g *Grid, i int) {
	n := int(g.Tiles[i].Count)
	unrevealed := g.countAround(i, func(t Tile) bool { return t.Visibility != Revealed })
	if n == 0 || unrevealed != n {
		return
	}
	for _, j := range g.neighbourIndices(i) {
		if g.Tiles[j].Visibility == Hidden {
			g.Tiles[j].Visibility = Flagged
			s.Flagged++
		}
	}
}

func (s *Solution) certainSafe(g *Grid, i int) {
	if g.flagsAround(i) != int(g.Tiles[i].Count) {
		return
	}
	for _, j := range g.neighbourIndices(i) {
		t := &g.Tiles[j]
		if t.Visibility != Hidden {
			continue
		}
		s.Revealed++
		if s.Kind != Detonated {
			s.merge(g.Reveal(g.point(j)))
			continue
		}
		// no flooding once a mine has gone off
		t.Visibility = Revealed
		if t.Mine {
			s.Mines = append(s.Mines, g.point(j))
		}
	}
}

// orientation describes a line of three tiles starting at an anchor (step)
// and the side to look at (side).
type orientation struct {
	step, side Point
}

var orientations = [...]orientation{
	{step: Point{1, 0}, side: Point{0, 1}},  // row, below
	{step: Point{1, 0}, side: Point{0, -1}}, // row, above
	{step: Point{0, 1}, side: Point{-1, 0}}, // column, left
	{step: Point{0, 1}, side: Point{1, 0}},  // column, right
}

func (s *Solution) oneTwoOne(g *Grid, anchor Point, o orientation) {
	var line, beside [3]Point
	for k := range 3 {
		line[k] = Point{X: anchor.X + k*o.step.X, Y: anchor.Y + k*o.step.Y}
		beside[k] = Point{X: line[k].X + o.side.X, Y: line[k].Y + o.side.Y}
		if !g.InBounds(line[k]) || !g.InBounds(beside[k]) {
			return
		}
		if t := g.At(line[k]); t.Visibility != Revealed || t.Mine {
			return
		}
		if g.At(beside[k]).Visibility != Hidden {
			return
		}
	}

	want := [3]int{1, 2, 1}
	for k := range 3 {
		if g.remaining(line[k]) != want[k] {
			return
		}
	}

	g.At(beside[0]).Visibility = Flagged
	g.At(beside[2]).Visibility = Flagged
	s.Flagged += 2
	s.merge(g.Reveal(beside[1]))
	s.Revealed++
}

// remaining is the effective count of p: its count minus flagged neighbours.
func (g *Grid) remaining(p Point) int {
	i := g.index(p)
	return int(g.Tiles[i].Count) - g.flagsAround(i)
}
