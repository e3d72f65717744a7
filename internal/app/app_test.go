package app

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/slackmgr/todo/internal/config"
	"github.com/slackmgr/todo/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DynamoDBWithoutSchemaValidation(t *testing.T) {
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	cfg := &config.Config{
		TableName:            "items",
		Store:                config.StoreDynamoDB,
		SkipSchemaValidation: true,
		AWS:                  config.AWSConfig{Region: "eu-west-1"},
	}

	a, err := New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)

	assert.NotNil(t, a.Dispatcher)
	require.NotNil(t, a.awsCfg)
	assert.Equal(t, "eu-west-1", a.awsCfg.Region)
	assert.NoError(t, a.Close(context.Background()))
}

func TestNew_PostgresUnreachable(t *testing.T) {
	cfg := &config.Config{
		TableName: "items",
		Store:     config.StorePostgres,
		Postgres: &config.PostgresConfig{
			Host:     "127.0.0.1",
			Port:     1,
			User:     "todo",
			Database: "todo",
			SSLMode:  "disable",
		},
	}

	a, err := New(context.Background(), cfg, zerolog.Nop())

	require.Error(t, err)
	assert.Nil(t, a)
	assert.Contains(t, err.Error(), "failed to connect to Postgres")
}

func TestNew_UnsupportedStore(t *testing.T) {
	t.Parallel()

	a, err := New(context.Background(), &config.Config{TableName: "items", Store: "redis"}, zerolog.Nop())

	require.Error(t, err)
	assert.Nil(t, a)
}

func TestPostgresOptions(t *testing.T) {
	t.Parallel()

	a := &App{cfg: &config.Config{
		TableName: "todo_items",
		Postgres: &config.PostgresConfig{
			Host:     "db",
			User:     "todo",
			Database: "todo",
		},
	}}

	// Unset port and SSL mode keep the package defaults, which pass validation.
	client := postgres.New(a.postgresOptions()...)

	err := client.Connect(canceledContext())

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "invalid Postgres db configuration")
}

func TestClose_ReverseOrderAndJoinedErrors(t *testing.T) {
	t.Parallel()

	var order []string

	errFirst := errors.New("first")

	a := &App{closers: []closeFunc{
		func(context.Context) error { order = append(order, "first"); return errFirst },
		func(context.Context) error { order = append(order, "second"); return nil },
	}}

	err := a.Close(context.Background())

	require.ErrorIs(t, err, errFirst)
	assert.Equal(t, []string{"second", "first"}, order)
	assert.Empty(t, a.closers)
	assert.NoError(t, a.Close(context.Background()))
}

func canceledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	return ctx
}
