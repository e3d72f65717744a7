package postgres

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// validIdentifier matches valid PostgreSQL unquoted identifiers.
// Must start with letter or underscore, followed by letters, digits, or underscores.
var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// SSLMode represents PostgreSQL SSL connection modes.
type SSLMode string

const (
	SSLModeDisable    SSLMode = "disable"     // No SSL
	SSLModeAllow      SSLMode = "allow"       // Try non-SSL first, then SSL
	SSLModePrefer     SSLMode = "prefer"      // Try SSL first, then non-SSL (default)
	SSLModeRequire    SSLMode = "require"     // Only SSL (no certificate verification)
	SSLModeVerifyCA   SSLMode = "verify-ca"   // SSL with CA verification
	SSLModeVerifyFull SSLMode = "verify-full" // SSL with CA and hostname verification
)

// Option is a functional option for configuring a Client.
type Option func(*options)

type options struct {
	host                            string
	port                            int
	user                            string
	password                        string
	database                        string
	sslMode                         SSLMode
	poolMaxConnections              *int32
	poolMinConnections              *int32
	poolMinIdleConnections          *int32
	poolMaxConnectionLifetime       *time.Duration
	poolMaxConnectionIdleTime       *time.Duration
	poolHealthCheckPeriod           *time.Duration
	poolMaxConnectionLifetimeJitter *time.Duration
	itemsTable                      string
}

func newOptions() *options {
	return &options{
		host:       "localhost",
		port:       5432,
		sslMode:    SSLModePrefer,
		itemsTable: "items",
	}
}

// WithHost sets the server host name. Defaults to localhost.
func WithHost(host string) Option {
	return func(o *options) { o.host = host }
}

// WithPort sets the server port. Defaults to 5432.
func WithPort(port int) Option {
	return func(o *options) { o.port = port }
}

// WithUser sets the role to connect as. Required.
func WithUser(user string) Option {
	return func(o *options) { o.user = user }
}

// WithPassword sets the role's password. Left empty, the connection string
// carries no password and pgx falls back to PGPASSWORD or .pgpass.
func WithPassword(password string) Option {
	return func(o *options) { o.password = password }
}

// WithDatabase sets the database holding the items table. Required.
func WithDatabase(database string) Option {
	return func(o *options) { o.database = database }
}

// WithSSLMode sets the sslmode connection parameter. Defaults to
// [SSLModePrefer].
func WithSSLMode(mode SSLMode) Option {
	return func(o *options) { o.sslMode = mode }
}

// WithPoolMaxConnections caps the number of open connections in the pool.
func WithPoolMaxConnections(n int32) Option {
	return func(o *options) { o.poolMaxConnections = &n }
}

// WithPoolMinConnections keeps at least n connections open, idle or not.
func WithPoolMinConnections(n int32) Option {
	return func(o *options) { o.poolMinConnections = &n }
}

// WithPoolMinIdleConnections keeps at least n idle connections ready.
func WithPoolMinIdleConnections(n int32) Option {
	return func(o *options) { o.poolMinIdleConnections = &n }
}

// WithPoolMaxConnectionLifetime closes connections once they are older than d.
func WithPoolMaxConnectionLifetime(d time.Duration) Option {
	return func(o *options) { o.poolMaxConnectionLifetime = &d }
}

// WithPoolMaxConnectionIdleTime closes connections left idle for longer than d.
func WithPoolMaxConnectionIdleTime(d time.Duration) Option {
	return func(o *options) { o.poolMaxConnectionIdleTime = &d }
}

// WithPoolHealthCheckPeriod sets how often idle connections are checked.
func WithPoolHealthCheckPeriod(d time.Duration) Option {
	return func(o *options) { o.poolHealthCheckPeriod = &d }
}

// WithPoolMaxConnectionLifetimeJitter adds a random duration up to d to each
// connection's lifetime, so connections opened together are not all closed
// at once.
func WithPoolMaxConnectionLifetimeJitter(d time.Duration) Option {
	return func(o *options) { o.poolMaxConnectionLifetimeJitter = &d }
}

// WithItemsTable sets the name of the table holding to-do items. Defaults to
// "items". The name must be a plain unquoted identifier.
func WithItemsTable(name string) Option {
	return func(o *options) { o.itemsTable = name }
}

// tunePool copies every pool option that was set onto cfg. Unset options
// keep the pgxpool defaults.
func (o *options) tunePool(cfg *pgxpool.Config) {
	setIfSet(&cfg.MaxConns, o.poolMaxConnections)
	setIfSet(&cfg.MinConns, o.poolMinConnections)
	setIfSet(&cfg.MinIdleConns, o.poolMinIdleConnections)
	setIfSet(&cfg.MaxConnLifetime, o.poolMaxConnectionLifetime)
	setIfSet(&cfg.MaxConnIdleTime, o.poolMaxConnectionIdleTime)
	setIfSet(&cfg.HealthCheckPeriod, o.poolHealthCheckPeriod)
	setIfSet(&cfg.MaxConnLifetimeJitter, o.poolMaxConnectionLifetimeJitter)
}

func setIfSet[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

type dbRow struct {
	DataType   string
	IsNullable string
}

func (o *options) validate() error {
	if o.port < 1 || o.port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", o.port)
	}

	if o.user == "" {
		return errors.New("user is required")
	}

	if o.database == "" {
		return errors.New("database is required")
	}

	if !o.sslMode.isValid() {
		return fmt.Errorf("invalid SSL mode: %s", o.sslMode)
	}

	if err := validateTableName(o.itemsTable); err != nil {
		return fmt.Errorf("invalid items table name: %w", err)
	}

	return nil
}

func validateTableName(name string) error {
	if !validIdentifier.MatchString(name) {
		return fmt.Errorf("table name %q contains invalid characters", name)
	}

	return nil
}

// isValid returns true if the SSL mode is a valid PostgreSQL SSL mode.
func (s SSLMode) isValid() bool {
	switch s {
	case SSLModeDisable, SSLModeAllow, SSLModePrefer, SSLModeRequire, SSLModeVerifyCA, SSLModeVerifyFull:
		return true
	default:
		return false
	}
}

func (o *options) connectionString() string {
	host := net.JoinHostPort(o.host, strconv.Itoa(o.port))

	user := url.QueryEscape(o.user)

	if o.password != "" {
		user += ":" + url.QueryEscape(o.password)
	}

	return fmt.Sprintf("postgres://%s@%s/%s?sslmode=%s", user, host, o.database, o.sslMode)
}

func (o *options) createStatements() []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (id text PRIMARY KEY, title text NOT NULL, done boolean NOT NULL DEFAULT false);`, o.itemsTable),
	}
}

func (o *options) dropStatements() []string {
	return []string{
		fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE;", o.itemsTable),
	}
}

func (o *options) verifyCurrentDatabaseVersion(actualRows map[string]*dbRow) error {
	expectedRows := map[string]*dbRow{
		o.itemsTable + ".id":    {DataType: "text", IsNullable: "NO"},
		o.itemsTable + ".title": {DataType: "text", IsNullable: "NO"},
		o.itemsTable + ".done":  {DataType: "boolean", IsNullable: "NO"},
	}

	for id, expectedRow := range expectedRows {
		actual, ok := actualRows[id]
		if !ok {
			return fmt.Errorf("expected row '%s' not found in current database schema", id)
		}

		if !strings.EqualFold(actual.DataType, expectedRow.DataType) {
			return fmt.Errorf("data type mismatch for '%s': expected %s, got %s", id, expectedRow.DataType, actual.DataType)
		}

		if !strings.EqualFold(actual.IsNullable, expectedRow.IsNullable) {
			return fmt.Errorf("nullability mismatch for '%s': expected %s, got %s", id, expectedRow.IsNullable, actual.IsNullable)
		}
	}

	return nil
}
