package app

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/minesweeper-engine/internal/handlers"
	"github.com/vancomm/minesweeper-engine/internal/middleware"
	"github.com/vancomm/minesweeper-engine/internal/session"
)

func NewHandler(
	log *logrus.Logger,
	registry *session.Registry,
	store handlers.HighscoreStore,
	defaults handlers.Defaults,
	corsOrigins []string,
) http.Handler {
	router := http.NewServeMux()
	game := handlers.NewGameHandler(log, registry, store, defaults)

	router.HandleFunc("POST /game", game.NewGame)
	router.HandleFunc("GET /game/{id}", game.Fetch)
	router.HandleFunc("GET /game/{id}/connect", game.Connect)
	router.HandleFunc("GET /highscores", game.Highscores)

	return middleware.Wrap(
		router,
		middleware.Recover(log),
		middleware.Logging(log),
		middleware.Cors(corsOrigins...),
	)
}
