package main

import (
	"flag"
	"fmt"
	"hash/maphash"
	"io"
	"math/rand/v2"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/minesweeper-engine/internal/mines"
)

var log = logrus.New()

type options struct {
	params  string
	seed    uint64
	x, y    int
	ticks   int
	verbose bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("autoplay", flag.ContinueOnError)
	fs.StringVar(&opts.params, "params", "expert", "board: preset name or WxH:M")
	fs.Uint64Var(&opts.seed, "seed", 0, "random seed (0 picks one)")
	fs.IntVar(&opts.x, "x", -1, "first click column (-1 for the centre)")
	fs.IntVar(&opts.y, "y", -1, "first click row (-1 for the centre)")
	fs.IntVar(&opts.ticks, "ticks", 1000, "give up after this many ticks")
	fs.BoolVar(&opts.verbose, "v", false, "debug logging")
	err := fs.Parse(args)
	return opts, err
}

type result struct {
	state mines.GameState
	ticks int
	seed  uint64
}

/*
run opens the first cell and then ticks the board with no input, letting
the solver play, until the game ends, a tick changes nothing or the tick
budget runs out. The final board is drawn to w.
*/
func run(opts options, w io.Writer) (result, error) {
	params, err := mines.ParseParams(opts.params)
	if err != nil {
		return result{}, err
	}

	seed := opts.seed
	if seed == 0 {
		seed = new(maphash.Hash).Sum64()
	}
	r := rand.New(rand.NewPCG(seed, seed))

	board, err := mines.NewBoard(params, r, mines.WithSolver(true))
	if err != nil {
		return result{}, err
	}

	start := mines.Point{X: opts.x, Y: opts.y}
	if start.X < 0 {
		start.X = params.Width / 2
	}
	if start.Y < 0 {
		start.Y = params.Height / 2
	}
	start = params.Clamp(start)

	board.Tick(mines.Click(mines.Open, start))
	ticks := 1
	for ; ticks < opts.ticks && board.State() == mines.Playing; ticks++ {
		if !board.Tick(mines.Input{}) {
			break
		}
	}

	fmt.Fprint(w, board)
	fmt.Fprintf(w, "%s after %d ticks, %d of %d mines flagged (seed %d)\n",
		board.State(), ticks, board.FlaggedCount(), params.MineCount, seed)

	return result{state: board.State(), ticks: ticks, seed: seed}, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if opts.verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	mines.Log = log

	res, err := run(opts, os.Stdout)
	if err != nil {
		log.Fatal(err)
	}
	log.WithFields(logrus.Fields{
		"state": res.state.String(),
		"ticks": res.ticks,
		"seed":  res.seed,
	}).Debug("done")
	if res.state == mines.Dead {
		os.Exit(1)
	}
}
