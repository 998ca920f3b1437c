package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/minesweeper-engine/internal/mines"
	"github.com/vancomm/minesweeper-engine/internal/repository"
	"github.com/vancomm/minesweeper-engine/internal/session"
)

type fakeHighscores struct {
	mu     sync.Mutex
	filter repository.HighscoreFilter
	scores []repository.Highscore
	err    error
}

func (f *fakeHighscores) GetHighscores(_ context.Context, filter repository.HighscoreFilter) ([]repository.Highscore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter = filter
	return f.scores, f.err
}

func (f *fakeHighscores) set(scores []repository.Highscore, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scores, f.err = scores, err
}

func (f *fakeHighscores) lastFilter() repository.HighscoreFilter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filter
}

func newServer(t *testing.T, highscores HighscoreStore) *httptest.Server {
	t.Helper()

	registry := session.NewRegistry(context.Background(), session.Config{
		TickInterval: time.Hour,
		IdleTimeout:  time.Minute,
		MaxSessions:  3,
	}, nil)
	t.Cleanup(registry.Close)

	log := logrus.New()
	log.SetOutput(io.Discard)

	h := NewGameHandler(log, registry, highscores, Defaults{Params: mines.Beginner})
	mux := http.NewServeMux()
	mux.HandleFunc("POST /game", h.NewGame)
	mux.HandleFunc("GET /game/{id}", h.Fetch)
	mux.HandleFunc("GET /game/{id}/connect", h.Connect)
	mux.HandleFunc("GET /highscores", h.Highscores)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func decode[T any](t *testing.T, res *http.Response) T {
	t.Helper()
	defer res.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(res.Body).Decode(&v))
	return v
}

func newGame(t *testing.T, srv *httptest.Server, query string) *http.Response {
	t.Helper()
	res, err := http.Post(srv.URL+"/game?"+query, "", nil)
	require.NoError(t, err)
	return res
}

func TestNewGame(t *testing.T) {
	srv := newServer(t, nil)

	tests := []struct {
		name   string
		query  string
		params mines.GameParams
		solver bool
	}{
		{"defaults", "", mines.Beginner, false},
		{"preset", "params=expert", mines.Expert, false},
		{"textual", "params=5x4:3&solver=true", mines.GameParams{Width: 5, Height: 4, MineCount: 3}, true},
		{"fields", "width=3&height=3&mine_count=1&name=ann", mines.GameParams{Width: 3, Height: 3, MineCount: 1}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			res := newGame(t, srv, test.query)
			require.Equal(t, http.StatusOK, res.StatusCode)
			game := decode[GameResponse](t, res)

			_, err := uuid.Parse(game.GameId)
			assert.NoError(t, err)
			s := game.Snapshot
			assert.Equal(t, mines.NewGame, s.State)
			assert.Equal(t, test.params.Width, s.Width)
			assert.Equal(t, test.params.Height, s.Height)
			assert.Equal(t, test.params.MineCount, s.MineCount)
			assert.Equal(t, test.params.MineCount, s.MinesRemaining)
			assert.Equal(t, test.solver, s.Solver)
			assert.Len(t, s.Cells, test.params.Width*test.params.Height)
		})
	}
}

func TestNewGameBadRequest(t *testing.T) {
	srv := newServer(t, nil)

	for _, query := range []string{
		"params=3x3:9",
		"params=gigantic",
		"width=5",
		"width=abc&height=1&mine_count=1",
		"width=0&height=4&mine_count=0",
		"width=100000&height=100000&mine_count=0",
		"params=100000x100000:0",
		"solver=maybe",
	} {
		t.Run(query, func(t *testing.T) {
			res := newGame(t, srv, query)
			assert.Equal(t, http.StatusBadRequest, res.StatusCode)
			body := decode[map[string]string](t, res)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestNewGameTooManySessions(t *testing.T) {
	srv := newServer(t, nil)
	for range 3 {
		res := newGame(t, srv, "")
		res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)
	}
	res := newGame(t, srv, "")
	res.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
}

func TestFetch(t *testing.T) {
	srv := newServer(t, nil)
	created := decode[GameResponse](t, newGame(t, srv, "params=beginner"))

	res, err := http.Get(srv.URL + "/game/" + created.GameId)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	fetched := decode[GameResponse](t, res)
	assert.Equal(t, created, fetched)

	res, err = http.Get(srv.URL + "/game/" + uuid.NewString())
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, err = http.Get(srv.URL + "/game/42")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func dial(t *testing.T, srv *httptest.Server, id string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/game/" + id + "/connect"
	return websocket.DefaultDialer.Dial(url, nil)
}

func readSnapshot(t *testing.T, conn *websocket.Conn) mines.Snapshot {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var s mines.Snapshot
	require.NoError(t, conn.ReadJSON(&s))
	return s
}

func TestConnect(t *testing.T) {
	srv := newServer(t, nil)
	created := decode[GameResponse](t, newGame(t, srv, "params=beginner"))

	conn, _, err := dial(t, srv, created.GameId)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, mines.NewGame, readSnapshot(t, conn).State)

	press := mines.ButtonState{Pressed: true, Down: true}
	require.NoError(t, conn.WriteJSON(Frame{X: 4, Y: 4, Left: press}))
	s := readSnapshot(t, conn)
	assert.Contains(t, []mines.GameState{mines.Playing, mines.Won}, s.State)
	assert.Equal(t, mines.Cell{Visibility: mines.Revealed}, s.At(mines.Point{X: 4, Y: 4}))

	// garbage is skipped, the connection stays up
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not a frame")))

	require.NoError(t, conn.WriteJSON(Frame{Reset: true}))
	s = readSnapshot(t, conn)
	assert.Equal(t, mines.NewGame, s.State)

	// off-board positions land on the nearest cell
	require.NoError(t, conn.WriteJSON(Frame{X: 100, Y: -3, Left: press}))
	s = readSnapshot(t, conn)
	assert.NotEqual(t, mines.NewGame, s.State)
	assert.Equal(t, mines.Revealed, s.At(mines.Point{X: 8, Y: 0}).Visibility)

	res, err := http.Get(srv.URL + "/game/" + created.GameId)
	require.NoError(t, err)
	fetched := decode[GameResponse](t, res)
	assert.Equal(t, s, fetched.Snapshot)
}

func TestConnectOversizedFrame(t *testing.T) {
	srv := newServer(t, nil)
	created := decode[GameResponse](t, newGame(t, srv, "params=beginner"))

	conn, _, err := dial(t, srv, created.GameId)
	require.NoError(t, err)
	defer conn.Close()
	readSnapshot(t, conn)

	frame := `{"x":1,"y":1,"pad":"` + strings.Repeat("a", 4*maxFrameSize) + `"}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		if _, _, err = conn.ReadMessage(); err != nil {
			break
		}
	}
	assert.True(t, websocket.IsCloseError(err, websocket.CloseMessageTooBig), "%v", err)
}

func TestConnectUnknownGame(t *testing.T) {
	srv := newServer(t, nil)
	_, res, err := dial(t, srv, uuid.NewString())
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestHighscores(t *testing.T) {
	store := &fakeHighscores{
		scores: []repository.Highscore{
			{GameId: uuid.New(), Name: "ann", Width: 30, Height: 16, MineCount: 99, ElapsedMs: 61000},
		},
	}
	srv := newServer(t, store)

	res, err := http.Get(srv.URL + "/highscores?params=expert&limit=5")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	scores := decode[[]repository.Highscore](t, res)
	require.Len(t, scores, 1)
	assert.Equal(t, "ann", scores[0].Name)
	filter := store.lastFilter()
	assert.Equal(t, 5, filter.Limit)
	require.NotNil(t, filter.GameParams)
	assert.Equal(t, mines.Expert, *filter.GameParams)

	store.set(nil, nil)
	res, err = http.Get(srv.URL + "/highscores")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Empty(t, decode[[]repository.Highscore](t, res))
	assert.Nil(t, store.lastFilter().GameParams)

	res, err = http.Get(srv.URL + "/highscores?width=9")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	store.set(nil, errors.New("connection refused"))
	res, err = http.Get(srv.URL + "/highscores")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
}

func TestHighscoresUnavailable(t *testing.T) {
	srv := newServer(t, nil)
	res, err := http.Get(srv.URL + "/highscores")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
}

func TestFrameInput(t *testing.T) {
	params := mines.GameParams{Width: 5, Height: 4, MineCount: 3}
	press := mines.ButtonState{Pressed: true, Down: true}

	tests := []struct {
		frame Frame
		want  mines.Point
	}{
		{Frame{X: 2, Y: 1}, mines.Point{X: 2, Y: 1}},
		{Frame{X: -1, Y: -1}, mines.Point{X: 0, Y: 0}},
		{Frame{X: 5, Y: 4}, mines.Point{X: 4, Y: 3}},
		{Frame{X: 99, Y: 2}, mines.Point{X: 4, Y: 2}},
	}
	for _, test := range tests {
		test.frame.Right = press
		in := test.frame.Input(params)
		assert.Equal(t, test.want, in.Cursor)
		assert.Equal(t, mines.Flag, in.Gesture())
		assert.Zero(t, in.Elapsed)
	}
}
