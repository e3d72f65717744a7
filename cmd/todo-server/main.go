// Command todo-server serves the to-do API over plain HTTP.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/slackmgr/todo/httpserver"
	"github.com/slackmgr/todo/internal/app"
	"github.com/slackmgr/todo/internal/config"
	"github.com/slackmgr/todo/internal/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	bootstrap := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		bootstrap.Fatal().Err(err).Msg("Failed to load config")
	}

	log, err := logger.New(os.Stdout, cfg.Log.Level, cfg.Log.Pretty)
	if err != nil {
		bootstrap.Fatal().Err(err).Msg("Failed to create logger")
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Server stopped with error")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}

	server, err := httpserver.New(a.Dispatcher, httpserver.WithLogger(log))
	if err != nil {
		return errors.Join(err, a.Close(context.Background()))
	}

	serverErr := make(chan error, 1)

	go func() {
		serverErr <- server.Start(cfg.HTTP.Addr)
	}()

	select {
	case err = <-serverErr:
	case <-ctx.Done():
		log.Info().Msg("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err = server.Shutdown(shutdownCtx)
	}

	return errors.Join(err, a.Close(context.Background()))
}
