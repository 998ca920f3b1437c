package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vancomm/minesweeper-engine/internal/mines"
)

var ErrAlreadyRecorded = errors.New("game already recorded")

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

type Highscore struct {
	GameId    uuid.UUID `json:"game_id" db:"game_id"`
	Name      string    `json:"name" db:"name"`
	Width     int       `json:"width" db:"width"`
	Height    int       `json:"height" db:"height"`
	MineCount int       `json:"mine_count" db:"mine_count"`
	ElapsedMs int64     `json:"elapsed_ms" db:"elapsed_ms"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type HighscoreFilter struct {
	GameParams *mines.GameParams
	Limit      int
}

func (f HighscoreFilter) WhereClause() (string, pgx.NamedArgs) {
	clauses := make([]string, 0)
	args := pgx.NamedArgs{}
	if f.GameParams != nil {
		clauses = append(
			clauses,
			"width = @width",
			"height = @height",
			"mine_count = @mineCount",
		)
		args["width"] = f.GameParams.Width
		args["height"] = f.GameParams.Height
		args["mineCount"] = f.GameParams.MineCount
	}
	return strings.Join(clauses, " AND "), args
}

// limit clamps the requested page size to [1, MaxLimit].
func (f HighscoreFilter) limit() int {
	switch {
	case f.Limit <= 0:
		return DefaultLimit
	case f.Limit > MaxLimit:
		return MaxLimit
	default:
		return f.Limit
	}
}

type CreateHighscoreParams struct {
	GameId    uuid.UUID
	Name      string
	Params    mines.GameParams
	Elapsed   time.Duration
	CreatedAt time.Time
}

// CreateHighscore stores one won game. A second record for the same game
// fails with [ErrAlreadyRecorded].
func (q Queries) CreateHighscore(
	ctx context.Context, params CreateHighscoreParams,
) (*Highscore, error) {
	rows, _ := q.db.Query(
		ctx,
		`INSERT INTO highscore (
			game_id, name, width, height, mine_count, elapsed_ms, created_at
		) VALUES (
			@gameId, @name, @width, @height, @mineCount, @elapsedMs, @createdAt
		) RETURNING *`,
		pgx.NamedArgs{
			"gameId":    params.GameId,
			"name":      params.Name,
			"width":     params.Params.Width,
			"height":    params.Params.Height,
			"mineCount": params.Params.MineCount,
			"elapsedMs": params.Elapsed.Milliseconds(),
			"createdAt": params.CreatedAt,
		},
	)
	highscore, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Highscore])
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRecorded, params.GameId)
	}
	return highscore, err
}

func (q Queries) GetHighscores(
	ctx context.Context, filter HighscoreFilter,
) ([]Highscore, error) {
	query := `
	SELECT
		game_id,
		name,
		width,
		height,
		mine_count,
		elapsed_ms,
		created_at
	FROM highscore
	`

	whereClause, args := filter.WhereClause()
	if whereClause != "" {
		query += " WHERE " + whereClause
	}

	query += " ORDER BY elapsed_ms, created_at LIMIT @limit;"
	args["limit"] = filter.limit()

	rows, err := q.db.Query(ctx, query, args)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Highscore])
}
