//nolint:nilnil
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/slackmgr/todo/todo"
)

var errNotConnected = errors.New("client is not connected")

// updatableColumns lists the item columns that UpdateItem may set.
var updatableColumns = map[string]struct{}{
	todo.FieldTitle: {},
	todo.FieldDone:  {},
}

// pool defines the interface for database operations.
// This interface is satisfied by *pgxpool.Pool and can be mocked for testing.
type pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
	Ping(ctx context.Context) error
}

// Client is a PostgreSQL-backed implementation of [todo.Store]. Items live in
// a single table with one row per item.
type Client struct {
	conn pool
	opts *options
}

var _ todo.Store = (*Client)(nil)

// New returns a client configured by opts. No connection is made until
// [Client.Connect] is called.
func New(opts ...Option) *Client {
	o := newOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &Client{opts: o}
}

// Connect validates the options, opens the connection pool and pings the
// server. Calling it again replaces the existing pool.
func (c *Client) Connect(ctx context.Context) error {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	if err := c.opts.validate(); err != nil {
		return fmt.Errorf("invalid Postgres db configuration: %w", err)
	}

	config, err := pgxpool.ParseConfig(c.opts.connectionString())
	if err != nil {
		return fmt.Errorf("failed to parse Postgres db connection string: %w", err)
	}

	c.opts.tunePool(config)

	conn, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create new Postgres connection pool: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("failed to ping Postgres db: %w", err)
	}

	c.conn = conn

	return nil
}

// Close closes the connection pool. It is safe to call on a client that never
// connected.
func (c *Client) Close(_ context.Context) error {
	if c.conn == nil {
		return nil
	}

	c.conn.Close()

	c.conn = nil

	return nil
}

// Init creates the items table if it does not exist and, unless
// skipSchemaValidation is set, verifies its columns against
// information_schema.
func (c *Client) Init(ctx context.Context, skipSchemaValidation bool) error {
	if c.conn == nil {
		return errNotConnected
	}

	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin init transaction: %w", err)
	}

	defer func() { _ = tx.Rollback(ctx) }() // No-op if committed

	for _, sql := range c.opts.createStatements() {
		if _, err := tx.Exec(ctx, sql); err != nil {
			return fmt.Errorf("failed to execute create statement: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit init transaction: %w", err)
	}

	if skipSchemaValidation {
		return nil
	}

	query := "SELECT table_name, column_name, data_type, is_nullable FROM information_schema.columns WHERE table_schema = 'public' ORDER BY ordinal_position"

	rows, err := c.conn.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query information schema: %w", err)
	}

	defer rows.Close()

	infoRows := map[string]*dbRow{}

	for rows.Next() {
		var table, column string
		infoRow := &dbRow{}

		if err := rows.Scan(&table, &column, &infoRow.DataType, &infoRow.IsNullable); err != nil {
			return fmt.Errorf("failed to scan row from information schema: %w", err)
		}

		infoRows[table+"."+column] = infoRow
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating over rows from information schema: %w", err)
	}

	if err := c.opts.verifyCurrentDatabaseVersion(infoRows); err != nil {
		return fmt.Errorf("failed to verify current database version: %w", err)
	}

	return nil
}

// DropAllData drops the items table. Intended for integration tests only.
func (c *Client) DropAllData(ctx context.Context) error {
	if c.conn == nil {
		return errNotConnected
	}

	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin drop tables transaction: %w", err)
	}

	defer func() { _ = tx.Rollback(ctx) }() // No-op if committed

	for _, sql := range c.opts.dropStatements() {
		if _, err := tx.Exec(ctx, sql); err != nil {
			return fmt.Errorf("failed to execute drop statement: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit drop tables transaction: %w", err)
	}

	return nil
}

// Probe reads at most one row from the items table.
func (c *Client) Probe(ctx context.Context) error {
	if c.conn == nil {
		return errNotConnected
	}

	query := fmt.Sprintf("SELECT count(*) FROM (SELECT 1 FROM %s LIMIT 1) AS probe", c.opts.itemsTable)

	var count int64

	if err := c.conn.QueryRow(ctx, query).Scan(&count); err != nil {
		return fmt.Errorf("failed to probe Postgres table %s: %w", c.opts.itemsTable, err)
	}

	return nil
}

func (c *Client) ScanItems(ctx context.Context) ([]todo.Item, error) {
	if c.conn == nil {
		return nil, errNotConnected
	}

	query := fmt.Sprintf("SELECT id, title, done FROM %s", c.opts.itemsTable)

	rows, err := c.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to scan items in Postgres db: %w", err)
	}

	defer rows.Close()

	items := []todo.Item{}

	for rows.Next() {
		var item todo.Item

		if err := rows.Scan(&item.ID, &item.Title, &item.Done); err != nil {
			return nil, fmt.Errorf("failed to scan row for item: %w", err)
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows for items: %w", err)
	}

	return items, nil
}

// PutItem inserts the item, overwriting any existing row with the same id.
func (c *Client) PutItem(ctx context.Context, item todo.Item) error {
	if c.conn == nil {
		return errNotConnected
	}

	if item.ID == "" {
		return errors.New("item ID cannot be empty")
	}

	sql := fmt.Sprintf("INSERT INTO %s (id, title, done) VALUES ($1, $2, $3) ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, done = EXCLUDED.done", c.opts.itemsTable)

	if _, err := c.conn.Exec(ctx, sql, item.ID, item.Title, item.Done); err != nil {
		return fmt.Errorf("failed to save item to Postgres db: %w", err)
	}

	return nil
}

// UpdateItem sets the given fields on an existing row. Returns an error
// wrapping [todo.ErrItemNotFound] when no row has the id.
func (c *Client) UpdateItem(ctx context.Context, id string, fields []todo.Field) error {
	if c.conn == nil {
		return errNotConnected
	}

	if id == "" {
		return errors.New("item ID cannot be empty")
	}

	sql, args, err := c.getItemUpdateSQL(id, fields)
	if err != nil {
		return err
	}

	tag, err := c.conn.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to update item in Postgres db: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item %s: %w", id, todo.ErrItemNotFound)
	}

	return nil
}

func (c *Client) GetItem(ctx context.Context, id string) (*todo.Item, error) {
	if c.conn == nil {
		return nil, errNotConnected
	}

	if id == "" {
		return nil, errors.New("item ID cannot be empty")
	}

	query := fmt.Sprintf("SELECT id, title, done FROM %s WHERE id = $1", c.opts.itemsTable)

	row := c.conn.QueryRow(ctx, query, id)

	var item todo.Item

	if err := row.Scan(&item.ID, &item.Title, &item.Done); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to get item from Postgres db: %w", err)
	}

	return &item, nil
}

func (c *Client) DeleteItem(ctx context.Context, id string) error {
	if c.conn == nil {
		return errNotConnected
	}

	if id == "" {
		return errors.New("item ID cannot be empty")
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", c.opts.itemsTable)

	if _, err := c.conn.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete item from Postgres db: %w", err)
	}

	return nil
}

// getItemUpdateSQL builds an UPDATE statement setting each field in order.
// The id is always $1; field values follow as $2, $3, ...
func (c *Client) getItemUpdateSQL(id string, fields []todo.Field) (string, []any, error) {
	if len(fields) == 0 {
		return "", nil, errors.New("at least one field must be updated")
	}

	clauses := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	args = append(args, id)

	for _, f := range fields {
		if _, ok := updatableColumns[f.Name]; !ok {
			return "", nil, fmt.Errorf("field %s cannot be updated", f.Name)
		}

		args = append(args, f.Value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", f.Name, len(args)))
	}

	statement := fmt.Sprintf("UPDATE %s SET %s WHERE id = $1", c.opts.itemsTable, strings.Join(clauses, ", "))

	return statement, args, nil
}
