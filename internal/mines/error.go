package mines

import "errors"

var (
	ErrInvalidParams = errors.New("invalid game params")
	ErrTooManyMines  = errors.New("mine count leaves no safe cell")
	ErrNoFairStart   = errors.New("mine count leaves no room for a fair start")
)
