// Command todo-lambda serves the to-do API on AWS Lambda behind an API
// Gateway HTTP API.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"
	"github.com/slackmgr/todo/apigw"
	"github.com/slackmgr/todo/internal/app"
	"github.com/slackmgr/todo/internal/config"
	"github.com/slackmgr/todo/internal/logger"
)

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

	// Built once per cold start and reused by every invocation.
	a, err := app.New(context.Background(), cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}

	handler, err := apigw.NewHandler(a.Dispatcher, apigw.WithLogger(log))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create API Gateway handler")
	}

	lambda.Start(handler.Handle)
}
