package mines

import (
	"math/rand/v2"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// Log.SetLevel(logrus.DebugLevel)
	Log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	m.Run()
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func layout(t *testing.T, w, h int, mines ...Point) *Grid {
	t.Helper()
	g, err := FromMines(GameParams{Width: w, Height: h}, mines...)
	require.NoError(t, err)
	return g
}

func reveal(g *Grid, ps ...Point) {
	for _, p := range ps {
		g.At(p).Visibility = Revealed
	}
}

func flag(g *Grid, ps ...Point) {
	for _, p := range ps {
		g.At(p).Visibility = Flagged
	}
}

// fixed hands the board a prepared layout instead of generating one.
func fixed(g *Grid) Generator {
	return func(GameParams, Point, *rand.Rand) (*Grid, error) {
		return g, nil
	}
}
