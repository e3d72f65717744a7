package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvKey(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"TABLE_NAME":                  "table_name",
		"AWS_REGION":                  "aws.region",
		"TODO_STORE":                  "store",
		"TODO_SKIP_SCHEMA_VALIDATION": "skip_schema_validation",
		"TODO_LOG_LEVEL":              "log.level",
		"TODO_HTTP_ADDR":              "http.addr",
		"TODO_POSTGRES_SSL_MODE":      "postgres.ssl_mode",
		"TODO_SQS_QUEUE_URL":          "sqs.queue_url",
		"TODO_PUBSUB_PROJECT_ID":      "pubsub.project_id",
		"PATH":                        "",
		"HOME":                        "",
	}

	for name, want := range tests {
		assert.Equal(t, want, envKey(name), name)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TABLE_NAME", "items")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "items", cfg.TableName)
	assert.Equal(t, StoreDynamoDB, cfg.Store)
	assert.False(t, cfg.SkipSchemaValidation)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Nil(t, cfg.Postgres)
	assert.True(t, cfg.PubSub.Ordered)
	assert.False(t, cfg.SQSEnabled())
	assert.False(t, cfg.PubSubEnabled())
}

func TestLoad_AllVariables(t *testing.T) {
	t.Setenv("TABLE_NAME", "todo_items")
	t.Setenv("TODO_STORE", "postgres")
	t.Setenv("TODO_SKIP_SCHEMA_VALIDATION", "true")
	t.Setenv("TODO_LOG_LEVEL", "debug")
	t.Setenv("TODO_LOG_PRETTY", "true")
	t.Setenv("TODO_HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("TODO_POSTGRES_HOST", "db.internal")
	t.Setenv("TODO_POSTGRES_PORT", "6543")
	t.Setenv("TODO_POSTGRES_USER", "todo")
	t.Setenv("TODO_POSTGRES_PASSWORD", "secret")
	t.Setenv("TODO_POSTGRES_DATABASE", "todo")
	t.Setenv("TODO_POSTGRES_SSL_MODE", "require")
	t.Setenv("TODO_SQS_QUEUE_URL", "https://sqs.eu-west-1.amazonaws.com/123456789012/todo-events.fifo")
	t.Setenv("TODO_PUBSUB_PROJECT_ID", "my-project")
	t.Setenv("TODO_PUBSUB_TOPIC", "todo-events")
	t.Setenv("TODO_PUBSUB_ORDERED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "todo_items", cfg.TableName)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.True(t, cfg.SkipSchemaValidation)
	assert.Equal(t, LogConfig{Level: "debug", Pretty: true}, cfg.Log)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr)
	assert.Equal(t, "eu-west-1", cfg.AWS.Region)

	require.NotNil(t, cfg.Postgres)
	assert.Equal(t, PostgresConfig{
		Host:     "db.internal",
		Port:     6543,
		User:     "todo",
		Password: "secret",
		Database: "todo",
		SSLMode:  "require",
	}, *cfg.Postgres)

	assert.True(t, cfg.SQSEnabled())
	assert.True(t, cfg.PubSubEnabled())
	assert.False(t, cfg.PubSub.Ordered)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing table name",
			env:  map[string]string{},
		},
		{
			name: "unknown store",
			env:  map[string]string{"TABLE_NAME": "items", "TODO_STORE": "redis"},
		},
		{
			name: "postgres without connection settings",
			env:  map[string]string{"TABLE_NAME": "items", "TODO_STORE": "postgres"},
		},
		{
			name: "postgres without database",
			env: map[string]string{
				"TABLE_NAME":         "items",
				"TODO_STORE":         "postgres",
				"TODO_POSTGRES_HOST": "localhost",
				"TODO_POSTGRES_USER": "todo",
			},
		},
		{
			name: "invalid log level",
			env:  map[string]string{"TABLE_NAME": "items", "TODO_LOG_LEVEL": "verbose"},
		},
		{
			name: "invalid queue URL",
			env:  map[string]string{"TABLE_NAME": "items", "TODO_SQS_QUEUE_URL": "not a url"},
		},
		{
			name: "pubsub topic without project",
			env:  map[string]string{"TABLE_NAME": "items", "TODO_PUBSUB_TOPIC": "todo-events"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TABLE_NAME", "")

			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()

			require.Error(t, err)
		})
	}
}
