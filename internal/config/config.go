// Package config loads the service configuration from environment variables.
//
// A .env file in the working directory, if present, is loaded into the
// process environment first.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "TODO_"

// Supported store backends.
const (
	StoreDynamoDB = "dynamodb"
	StorePostgres = "postgres"
)

// Variables grouped into nested config blocks: TODO_POSTGRES_HOST maps to
// postgres.host.
var envGroups = []string{"log", "http", "postgres", "sqs", "pubsub"}

// Config is the root configuration of the service.
type Config struct {
	TableName            string          `koanf:"table_name" validate:"required"`
	Store                string          `koanf:"store" validate:"oneof=dynamodb postgres"`
	SkipSchemaValidation bool            `koanf:"skip_schema_validation"`
	Log                  LogConfig       `koanf:"log"`
	HTTP                 HTTPConfig      `koanf:"http"`
	AWS                  AWSConfig       `koanf:"aws"`
	Postgres             *PostgresConfig `koanf:"postgres" validate:"required_if=Store postgres"`
	SQS                  SQSConfig       `koanf:"sqs"`
	PubSub               PubSubConfig    `koanf:"pubsub"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Pretty bool   `koanf:"pretty"`
}

type HTTPConfig struct {
	Addr string `koanf:"addr" validate:"required"`
}

type AWSConfig struct {
	Region string `koanf:"region"`
}

// PostgresConfig is required when Store is "postgres". Port and SSLMode fall
// back to the postgres package defaults when unset.
type PostgresConfig struct {
	Host     string `koanf:"host" validate:"required"`
	Port     int    `koanf:"port" validate:"omitempty,min=1,max=65535"`
	User     string `koanf:"user" validate:"required"`
	Password string `koanf:"password"`
	Database string `koanf:"database" validate:"required"`
	SSLMode  string `koanf:"ssl_mode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
}

// SQSConfig enables SQS notifications when QueueURL is set.
type SQSConfig struct {
	QueueURL string `koanf:"queue_url" validate:"omitempty,url"`
}

// PubSubConfig enables Pub/Sub notifications when both ProjectID and Topic
// are set.
type PubSubConfig struct {
	ProjectID string `koanf:"project_id" validate:"required_with=Topic"`
	Topic     string `koanf:"topic" validate:"required_with=ProjectID"`
	Ordered   bool   `koanf:"ordered"`
}

func defaults() *Config {
	return &Config{
		Store: StoreDynamoDB,
		Log: LogConfig{
			Level: "info",
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		PubSub: PubSubConfig{
			Ordered: true,
		},
	}
}

// Load reads the configuration from the environment, applies defaults and
// validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := defaults()

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SQSEnabled reports whether item events are sent to SQS.
func (c *Config) SQSEnabled() bool {
	return c.SQS.QueueURL != ""
}

// PubSubEnabled reports whether item events are published to Pub/Sub.
func (c *Config) PubSubEnabled() bool {
	return c.PubSub.ProjectID != "" && c.PubSub.Topic != ""
}

// envKey maps an environment variable name to a koanf key. Variables outside
// the service's namespace map to "" and are ignored.
func envKey(name string) string {
	switch name {
	case "TABLE_NAME":
		return "table_name"
	case "AWS_REGION":
		return "aws.region"
	}

	if !strings.HasPrefix(name, envPrefix) {
		return ""
	}

	key := strings.ToLower(strings.TrimPrefix(name, envPrefix))

	for _, group := range envGroups {
		if rest, ok := strings.CutPrefix(key, group+"_"); ok {
			return group + "." + rest
		}
	}

	return key
}
