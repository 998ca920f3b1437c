package handlers

import (
	"errors"

	"github.com/vancomm/minesweeper-engine/internal/mines"
)

var ErrPartialParams = errors.New("width, height and mine_count go together")

// ParamsQuery is the board part of a query string: either a preset or
// "WxH:M" in params, or all of width, height and mine_count.
type ParamsQuery struct {
	Params    string `schema:"params"`
	Width     *int   `schema:"width"`
	Height    *int   `schema:"height"`
	MineCount *int   `schema:"mine_count"`
}

// GameParams returns the requested params, or ok == false when the query
// names none.
func (q ParamsQuery) GameParams() (params mines.GameParams, ok bool, err error) {
	if q.Params != "" {
		params, err = mines.ParseParams(q.Params)
		return params, err == nil, err
	}
	switch {
	case q.Width == nil && q.Height == nil && q.MineCount == nil:
		return mines.GameParams{}, false, nil
	case q.Width == nil || q.Height == nil || q.MineCount == nil:
		return mines.GameParams{}, false, ErrPartialParams
	}
	params = mines.GameParams{Width: *q.Width, Height: *q.Height, MineCount: *q.MineCount}
	if err := params.Validate(); err != nil {
		return mines.GameParams{}, false, err
	}
	return params, true, nil
}

type NewGameQuery struct {
	ParamsQuery
	Solver *bool  `schema:"solver"`
	Name   string `schema:"name"`
}

type HighscoresQuery struct {
	ParamsQuery
	Limit int `schema:"limit"`
}

type GameResponse struct {
	GameId   string         `json:"game_id"`
	Snapshot mines.Snapshot `json:"snapshot"`
}

// Frame is one websocket message from the client: the pointer position and
// buttons for one tick, or a request to start over.
type Frame struct {
	X      int               `json:"x"`
	Y      int               `json:"y"`
	Left   mines.ButtonState `json:"left"`
	Right  mines.ButtonState `json:"right"`
	Middle mines.ButtonState `json:"middle"`
	Reset  bool              `json:"reset,omitempty"`
}

// Input maps the frame onto params' board; positions outside it are
// clamped to the nearest edge cell.
func (f Frame) Input(params mines.GameParams) mines.Input {
	return mines.Input{
		Cursor: params.Clamp(mines.Point{X: f.X, Y: f.Y}),
		Left:   f.Left,
		Right:  f.Right,
		Middle: f.Middle,
	}
}
