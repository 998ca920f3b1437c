package mines

import (
	"fmt"
	"math/rand/v2"

	"github.com/sirupsen/logrus"
)

// Past this many rejected layouts the generators stop rejecting and draw the
// mines directly from the cells they have to keep clear.
const maxFairAttempts = 1000

/*
Generate places params.MineCount mines by picking uniformly random cells
until enough distinct ones are mined, then fills in every tile's count.

The caller validates params; Generate never terminates if MineCount
exceeds the number of cells.
*/
func Generate(params GameParams, r *rand.Rand) *Grid {
	grid := NewGrid(params)
	for placed := 0; placed < params.MineCount; {
		i := r.IntN(params.Area())
		if !grid.Tiles[i].Mine {
			grid.Tiles[i].Mine = true
			placed++
		}
	}
	grid.computeCounts()
	return grid
}

/*
GenerateFair returns a grid in which start is safe and has no mined
neighbours, so the first reveal always opens a region.

Layouts are drawn with [Generate] and rejected until one fits. Dense boards
can reject for a very long time, so after maxFairAttempts the mines are
drawn directly from the cells outside start's neighbourhood; both ways
produce a uniformly random layout among the fair ones.
*/
func GenerateFair(params GameParams, start Point, r *rand.Rand) (*Grid, error) {
	if err := checkStart(params, start); err != nil {
		return nil, err
	}
	w, h, mc := params.Unpack()
	if mc > w*h-len(params.Neighbours(start))-1 {
		return nil, fmt.Errorf("%w: %s @ %d:%d", ErrNoFairStart, params, start.X, start.Y)
	}
	return generateAvoiding(params, start, 1, r), nil
}

/*
GenerateSafe only guarantees that start is not a mine. [Board] falls back to
it when the first click lands where no fair layout exists, such as the
middle of a small crowded board.
*/
func GenerateSafe(params GameParams, start Point, r *rand.Rand) (*Grid, error) {
	if err := checkStart(params, start); err != nil {
		return nil, err
	}
	return generateAvoiding(params, start, 0, r), nil
}

func checkStart(params GameParams, start Point) error {
	w, h, mc := params.Unpack()
	if w < 1 || h < 1 || mc < 0 || !params.InBounds(start) {
		return fmt.Errorf("%w: %s @ %d:%d", ErrInvalidParams, params, start.X, start.Y)
	}
	if mc >= w*h {
		return fmt.Errorf("%w: %s", ErrTooManyMines, params)
	}
	return nil
}

// generateAvoiding returns a layout with no mine within radius of start.
// Callers make sure the mines fit outside that square.
func generateAvoiding(params GameParams, start Point, radius int, r *rand.Rand) *Grid {
	fits := func(g *Grid) bool {
		if radius == 0 {
			return !g.At(start).Mine
		}
		return !g.At(start).Mine && g.At(start).Count == 0
	}

	for attempt := 1; attempt <= maxFairAttempts; attempt++ {
		grid := Generate(params, r)
		if fits(grid) {
			Log.WithFields(logrus.Fields{
				"params":   params.String(),
				"start":    start,
				"radius":   radius,
				"attempts": attempt,
			}).Debug("generated grid")
			return grid
		}
	}

	Log.WithFields(logrus.Fields{
		"params": params.String(),
		"start":  start,
		"radius": radius,
	}).Debug("rejection limit reached, placing around start")

	width, height, mineCount := params.Unpack()
	grid := NewGrid(params)

	/*
	 * Write down the list of possible mine locations.
	 */
	candidates := make([]int, 0, width*height)
	for y := range height {
		for x := range width {
			if absDiff(start.Y, y) > radius || absDiff(start.X, x) > radius {
				candidates = append(candidates, y*width+x)
			}
		}
	}

	/*
	 * Now pick n off the list at random.
	 */
	k := len(candidates)
	for range mineCount {
		i := r.IntN(k)
		grid.Tiles[candidates[i]].Mine = true
		k--
		candidates[i] = candidates[k]
	}

	grid.computeCounts()
	return grid
}

// FromMines builds a populated grid with mines at exactly the given points.
func FromMines(params GameParams, mines ...Point) (*Grid, error) {
	grid := NewGrid(params)
	for _, p := range mines {
		if !params.InBounds(p) {
			return nil, fmt.Errorf("%w: mine %d:%d outside %s", ErrInvalidParams, p.X, p.Y, params)
		}
		grid.At(p).Mine = true
	}
	grid.MineCount = grid.Mines()
	grid.computeCounts()
	return grid, nil
}
