// Package app wires the store, the notifiers and the dispatcher from the
// service configuration. It is shared by the Lambda and HTTP entry points.
package app

import (
	"context"
	"errors"
	"fmt"
	"slices"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/rs/zerolog"
	"github.com/slackmgr/todo/dynamodb"
	"github.com/slackmgr/todo/internal/config"
	"github.com/slackmgr/todo/postgres"
	"github.com/slackmgr/todo/pubsub"
	"github.com/slackmgr/todo/sqs"
	"github.com/slackmgr/todo/todo"
)

type closeFunc func(ctx context.Context) error

// App holds the long-lived collaborators built at cold start.
type App struct {
	Dispatcher *todo.Dispatcher

	cfg     *config.Config
	logger  zerolog.Logger
	awsCfg  *aws.Config
	closers []closeFunc
}

// New builds the application. On error, everything built so far is closed.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{
		cfg:    cfg,
		logger: logger,
	}

	if err := a.build(ctx); err != nil {
		if closeErr := a.Close(ctx); closeErr != nil {
			logger.Error().Err(closeErr).Msg("Failed to release resources after startup failure")
		}

		return nil, err
	}

	return a, nil
}

// Close releases resources in reverse order of creation.
func (a *App) Close(ctx context.Context) error {
	var errs []error

	for _, closer := range slices.Backward(a.closers) {
		if err := closer(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	a.closers = nil

	return errors.Join(errs...)
}

func (a *App) build(ctx context.Context) error {
	store, err := a.newStore(ctx)
	if err != nil {
		return err
	}

	notifiers, err := a.newNotifiers(ctx)
	if err != nil {
		return err
	}

	opts := []todo.Option{todo.WithLogger(a.logger)}

	switch len(notifiers) {
	case 0:
	case 1:
		opts = append(opts, todo.WithNotifier(notifiers[0]))
	default:
		opts = append(opts, todo.WithNotifier(notifiers))
	}

	a.Dispatcher, err = todo.New(store, opts...)
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}

	a.logger.Info().
		Str("store", a.cfg.Store).
		Str("table", a.cfg.TableName).
		Int("notifiers", len(notifiers)).
		Msg("Application initialized")

	return nil
}

func (a *App) newStore(ctx context.Context) (todo.Store, error) {
	switch a.cfg.Store {
	case config.StoreDynamoDB:
		awsCfg, err := a.aws(ctx)
		if err != nil {
			return nil, err
		}

		client := dynamodb.New(awsCfg, a.cfg.TableName)

		if err := client.Connect(); err != nil {
			return nil, fmt.Errorf("failed to connect to DynamoDB: %w", err)
		}

		if err := client.Init(ctx, a.cfg.SkipSchemaValidation); err != nil {
			return nil, fmt.Errorf("failed to initialize DynamoDB store: %w", err)
		}

		return client, nil
	case config.StorePostgres:
		client := postgres.New(a.postgresOptions()...)

		if err := client.Connect(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}

		a.closers = append(a.closers, client.Close)

		if err := client.Init(ctx, a.cfg.SkipSchemaValidation); err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}

		return client, nil
	default:
		return nil, fmt.Errorf("unsupported store %q", a.cfg.Store)
	}
}

func (a *App) postgresOptions() []postgres.Option {
	pg := a.cfg.Postgres
	if pg == nil {
		pg = &config.PostgresConfig{}
	}

	opts := []postgres.Option{
		postgres.WithHost(pg.Host),
		postgres.WithUser(pg.User),
		postgres.WithPassword(pg.Password),
		postgres.WithDatabase(pg.Database),
		postgres.WithItemsTable(a.cfg.TableName),
	}

	if pg.Port != 0 {
		opts = append(opts, postgres.WithPort(pg.Port))
	}

	if pg.SSLMode != "" {
		opts = append(opts, postgres.WithSSLMode(postgres.SSLMode(pg.SSLMode)))
	}

	return opts
}

func (a *App) newNotifiers(ctx context.Context) (todo.Notifiers, error) {
	var notifiers todo.Notifiers

	if a.cfg.SQSEnabled() {
		awsCfg, err := a.aws(ctx)
		if err != nil {
			return nil, err
		}

		publisher, err := sqs.New(awsCfg, a.cfg.SQS.QueueURL, sqs.WithLogger(a.logger)).Init(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQS notifier: %w", err)
		}

		notifiers = append(notifiers, publisher)
	}

	if a.cfg.PubSubEnabled() {
		client, err := gcppubsub.NewClient(ctx, a.cfg.PubSub.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("failed to create Pub/Sub client: %w", err)
		}

		a.closers = append(a.closers, func(context.Context) error { return client.Close() })

		publisher, err := pubsub.New(client, a.cfg.PubSub.Topic,
			pubsub.WithOrdering(a.cfg.PubSub.Ordered),
			pubsub.WithLogger(a.logger),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Pub/Sub notifier: %w", err)
		}

		if _, err := publisher.Init(); err != nil {
			return nil, fmt.Errorf("failed to initialize Pub/Sub notifier: %w", err)
		}

		// Stopped before the client is closed.
		a.closers = append(a.closers, func(context.Context) error {
			publisher.Close()
			return nil
		})

		notifiers = append(notifiers, publisher)
	}

	return notifiers, nil
}

// aws loads the shared AWS config once.
func (a *App) aws(ctx context.Context) (*aws.Config, error) {
	if a.awsCfg != nil {
		return a.awsCfg, nil
	}

	var opts []func(*awsconfig.LoadOptions) error

	if a.cfg.AWS.Region != "" {
		opts = append(opts, awsconfig.WithRegion(a.cfg.AWS.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	a.awsCfg = &awsCfg

	return a.awsCfg, nil
}
