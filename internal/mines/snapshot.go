package mines

// Cell is what a renderer may know about one tile. Mine and Count are only
// filled in for revealed tiles, and Count only for safe ones.
type Cell struct {
	Visibility Visibility `json:"visibility"`
	Mine       bool       `json:"mine,omitempty"`
	Count      int8       `json:"count,omitempty"`
	Misflag    bool       `json:"misflag,omitempty"`
	Detonated  bool       `json:"detonated,omitempty"`
}

type Snapshot struct {
	State          GameState `json:"state"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	MineCount      int       `json:"mine_count"`
	FlaggedCount   int       `json:"flagged_count"`
	MinesRemaining int       `json:"mines_remaining"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	Solver         bool      `json:"solver"`
	Cells          []Cell    `json:"cells"` // row-major
	Detonated      []Point   `json:"detonated,omitempty"`
	Misflagged     []Point   `json:"misflagged,omitempty"`
}

func (b *Board) Snapshot() Snapshot {
	cells := make([]Cell, len(b.grid.Tiles))
	for i, t := range b.grid.Tiles {
		cells[i].Visibility = t.Visibility
		if t.Visibility == Revealed {
			cells[i].Mine = t.Mine
			cells[i].Misflag = t.Misflag
			if !t.Mine {
				cells[i].Count = t.Count
			}
		}
	}
	for _, p := range b.detonated {
		cells[b.params.index(p)].Detonated = true
	}
	return Snapshot{
		State:          b.state,
		Width:          b.params.Width,
		Height:         b.params.Height,
		MineCount:      b.params.MineCount,
		FlaggedCount:   b.flagged,
		MinesRemaining: b.MinesRemaining(),
		ElapsedSeconds: b.ElapsedSeconds(),
		Solver:         b.solver,
		Cells:          cells,
		Detonated:      b.Detonated(),
		Misflagged:     b.Misflagged(),
	}
}

// At returns the cell at p.
func (s Snapshot) At(p Point) Cell {
	return s.Cells[p.Y*s.Width+p.X]
}
