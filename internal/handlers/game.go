package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/schema"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vancomm/minesweeper-engine/internal/mines"
	"github.com/vancomm/minesweeper-engine/internal/repository"
	"github.com/vancomm/minesweeper-engine/internal/session"
)

var ErrNoHighscores = errors.New("highscores are not available")

// maxFrameSize bounds a client message; a [Frame] is well under it.
const maxFrameSize = 1024

type HighscoreStore interface {
	GetHighscores(ctx context.Context, filter repository.HighscoreFilter) ([]repository.Highscore, error)
}

type Defaults struct {
	Params mines.GameParams
	Solver bool
}

type GameHandler struct {
	log        *logrus.Logger
	registry   *session.Registry
	highscores HighscoreStore
	defaults   Defaults
	decoder    *schema.Decoder
	upgrader   websocket.Upgrader
}

// NewGameHandler returns the game endpoints. highscores may be nil, in
// which case the highscore endpoint answers 503.
func NewGameHandler(
	log *logrus.Logger,
	registry *session.Registry,
	highscores HighscoreStore,
	defaults Defaults,
) *GameHandler {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)

	handler := &GameHandler{
		log:        log,
		registry:   registry,
		highscores: highscores,
		defaults:   defaults,
		decoder:    dec,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	return handler
}

func (g *GameHandler) NewGame(w http.ResponseWriter, r *http.Request) {
	var query NewGameQuery
	if err := g.decoder.Decode(&query, r.URL.Query()); err != nil {
		sendError(w, g.log, http.StatusBadRequest, err)
		return
	}

	params, ok, err := query.GameParams()
	if err != nil {
		sendError(w, g.log, http.StatusBadRequest, err)
		return
	}
	if !ok {
		params = g.defaults.Params
	}

	solver := g.defaults.Solver
	if query.Solver != nil {
		solver = *query.Solver
	}

	s, err := g.registry.Create(session.Options{
		Params: params,
		Solver: solver,
		Name:   query.Name,
	})
	switch {
	case errors.Is(err, session.ErrTooManySessions), errors.Is(err, session.ErrClosed):
		sendError(w, g.log, http.StatusServiceUnavailable, err)
		return
	case errors.Is(err, mines.ErrInvalidParams),
		errors.Is(err, mines.ErrTooManyMines),
		errors.Is(err, mines.ErrNoFairStart):
		sendError(w, g.log, http.StatusBadRequest, err)
		return
	case err != nil:
		w.WriteHeader(http.StatusInternalServerError)
		g.log.Error("unable to create session: ", err)
		return
	}

	sendJSONOrLog(w, g.log, GameResponse{
		GameId:   s.ID().String(),
		Snapshot: s.Snapshot(),
	})
}

// lookup finds the session named by the {id} path value, answering 400 or
// 404 itself when there is none.
func (g *GameHandler) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		sendError(w, g.log, http.StatusBadRequest, err)
		return nil, false
	}
	s, err := g.registry.Get(id)
	if errors.Is(err, session.ErrNotFound) {
		sendError(w, g.log, http.StatusNotFound, err)
		return nil, false
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		g.log.Error("unable to get session: ", err)
		return nil, false
	}
	return s, true
}

func (g *GameHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	s, ok := g.lookup(w, r)
	if !ok {
		return
	}
	sendJSONOrLog(w, g.log, GameResponse{
		GameId:   s.ID().String(),
		Snapshot: s.Snapshot(),
	})
}

/*
Connect streams a session over a websocket. Every text message from the
client is a [Frame] that becomes the input of one tick; every snapshot the
session publishes is written back as JSON. Messages that don't parse are
skipped. The connection ends when either side closes it or the session
ends.
*/
func (g *GameHandler) Connect(w http.ResponseWriter, r *http.Request) {
	s, ok := g.lookup(w, r)
	if !ok {
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Error("upgrade: ", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameSize)

	log := g.log.WithField("session", s.ID().String())
	log.Debug("websocket connected")

	snapshots, cancel := s.Subscribe()
	defer cancel()

	eg, ctx := errgroup.WithContext(r.Context())
	eg.Go(func() error {
		<-ctx.Done()
		return conn.Close()
	})
	eg.Go(func() error {
		for {
			mt, message, err := conn.ReadMessage()
			if err != nil {
				return err
			}
			if mt != websocket.TextMessage {
				continue
			}
			var frame Frame
			if err := json.Unmarshal(message, &frame); err != nil {
				log.Warn("bad frame: ", err)
				continue
			}
			if frame.Reset {
				err = s.Reset(ctx)
			} else {
				err = s.Send(ctx, frame.Input(s.Params()))
			}
			if err != nil {
				return err
			}
		}
	})
	eg.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case snapshot, ok := <-snapshots:
				if !ok {
					conn.WriteMessage(
						websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
					)
					return session.ErrClosed
				}
				if err := conn.WriteJSON(snapshot); err != nil {
					return err
				}
			}
		}
	})

	err = eg.Wait()
	switch {
	case err == nil,
		websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway),
		errors.Is(err, session.ErrClosed),
		errors.Is(err, context.Canceled):
		log.Debug("websocket closed: ", err)
	default:
		log.Warn("websocket: ", err)
	}
}

func (g *GameHandler) Highscores(w http.ResponseWriter, r *http.Request) {
	if g.highscores == nil {
		sendError(w, g.log, http.StatusServiceUnavailable, ErrNoHighscores)
		return
	}

	var query HighscoresQuery
	if err := g.decoder.Decode(&query, r.URL.Query()); err != nil {
		sendError(w, g.log, http.StatusBadRequest, err)
		return
	}

	filter := repository.HighscoreFilter{Limit: query.Limit}
	params, ok, err := query.GameParams()
	if err != nil {
		sendError(w, g.log, http.StatusBadRequest, err)
		return
	}
	if ok {
		filter.GameParams = &params
	}

	highscores, err := g.highscores.GetHighscores(r.Context(), filter)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		g.log.Error("unable to fetch highscores: ", err)
		return
	}
	if highscores == nil {
		highscores = []repository.Highscore{}
	}

	sendJSONOrLog(w, g.log, highscores)
}
