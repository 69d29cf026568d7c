package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/httplog/v2"
	"golang.org/x/sync/errgroup"

	api "github.com/TeerapatAnanpaisansin/shorten-link-generator/internal/api/http"
	"github.com/TeerapatAnanpaisansin/shorten-link-generator/internal/config"
	"github.com/TeerapatAnanpaisansin/shorten-link-generator/internal/grist"
	"github.com/TeerapatAnanpaisansin/shorten-link-generator/internal/service"
	"github.com/TeerapatAnanpaisansin/shorten-link-generator/internal/session"
)

func newLogger(env string) *httplog.Logger {
	opts := httplog.Options{
		LogLevel: slog.LevelDebug,
		Concise:  true,
	}
	if env == config.EnvProd {
		opts = httplog.Options{
			LogLevel: slog.LevelInfo,
			JSON:     true,
		}
	}

	return httplog.NewLogger("shorten-link-generator", opts)
}

// Run wires the record store client, services, session store and router
// together and serves HTTP until ctx is canceled.
func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	logger := newLogger(cfg.Env)

	store := grist.New(cfg.Grist)
	shortener := service.NewShortener(store, logger.Logger)
	auth := service.NewAuth(store, logger.Logger)
	sessions := session.NewStore(cfg.Session.TTL.Std())

	router := api.NewRouter(logger, cfg, shortener, auth, sessions)

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        router,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout.Std(),
		WriteTimeout:   cfg.HTTPServer.WriteTimeout.Std(),
		IdleTimeout:    cfg.HTTPServer.IdleTimeout.Std(),
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sessions.Janitor(ctx, time.Hour)
		return nil
	})

	g.Go(func() error {
		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}
