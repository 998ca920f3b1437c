package app

import (
	"context"
	"errors"

	"github.com/vancomm/minesweeper-engine/internal/repository"
	"github.com/vancomm/minesweeper-engine/internal/session"
)

type highscoreCreator interface {
	CreateHighscore(ctx context.Context, params repository.CreateHighscoreParams) (*repository.Highscore, error)
}

// HighscoreRecorder stores won games as highscores.
type HighscoreRecorder struct {
	repo highscoreCreator
}

func (h HighscoreRecorder) Record(ctx context.Context, result session.Result) error {
	_, err := h.repo.CreateHighscore(ctx, repository.CreateHighscoreParams{
		GameId:    result.GameID,
		Name:      result.Name,
		Params:    result.Params,
		Elapsed:   result.Elapsed,
		CreatedAt: result.WonAt,
	})
	if errors.Is(err, repository.ErrAlreadyRecorded) {
		session.Log.WithField("game", result.GameID.String()).Debug("result already recorded")
		return nil
	}
	return err
}
