package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vancomm/minesweeper-engine/internal/config"
	"github.com/vancomm/minesweeper-engine/internal/database"
	"github.com/vancomm/minesweeper-engine/internal/handlers"
	"github.com/vancomm/minesweeper-engine/internal/repository"
	"github.com/vancomm/minesweeper-engine/internal/session"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	log    *logrus.Logger
	config config.Config
}

func New(log *logrus.Logger, cfg config.Config) *App {
	return &App{
		log:    log,
		config: cfg,
	}
}

// SessionConfig converts the session section of the config.
func SessionConfig(cfg config.Config) session.Config {
	return session.Config{
		TickInterval: cfg.Session.TickInterval.Duration,
		IdleTimeout:  cfg.Session.IdleTimeout.Duration,
		MaxSessions:  cfg.Session.MaxSessions,
	}
}

/*
Start serves until ctx is cancelled or the listener fails. Without a
configured database the game endpoints still work and highscores are
disabled.
*/
func (a *App) Start(ctx context.Context) error {
	params, err := a.config.Game.GameParams()
	if err != nil {
		return fmt.Errorf("invalid default game params: %w", err)
	}

	var (
		store    handlers.HighscoreStore
		recorder session.Recorder
	)
	db, migrator, err := database.ConnectAndMigrate(ctx, a.config)
	switch {
	case errors.Is(err, config.ErrNoDatabase):
		a.log.Warn("no database configured, highscores disabled")
	case err != nil:
		return fmt.Errorf("unable to connect to db: %w", err)
	default:
		defer db.Close()
		defer migrator.Close()
		if version, dirty, err := migrator.Version(); err == nil {
			a.log.WithFields(logrus.Fields{
				"version": version,
				"dirty":   dirty,
			}).Info("database migrated")
		}
		queries := repository.New(db)
		store = queries
		recorder = HighscoreRecorder{queries}
	}

	registry := session.NewRegistry(ctx, SessionConfig(a.config), recorder)
	defer registry.Close()

	server := &http.Server{
		Addr: a.config.Addr,
		Handler: NewHandler(a.log, registry, store, handlers.Defaults{
			Params: params,
			Solver: a.config.Game.Solver,
		}, a.config.CorsOrigins),
		BaseContext: func(l net.Listener) context.Context {
			return ctx
		},
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gCtx.Done()
		sCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(sCtx)
	})

	a.log.Infof("ready to serve @ %s", a.config.Addr)
	return g.Wait()
}
