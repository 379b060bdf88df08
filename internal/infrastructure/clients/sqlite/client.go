package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// Dialect is the goqu dialect matching this driver.
const Dialect = "sqlite3"

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Client is a local SQLite diary file.
type Client struct {
	db   *sql.DB
	path string
}

// NewClient opens (creating if needed) the SQLite database at path.
func NewClient(ctx context.Context, path string) (*Client, error) {
	dsn := path
	if path != MemoryPath && !strings.HasPrefix(path, "file:") {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}

	// SQLite serializes writers anyway, and each :memory: connection would
	// otherwise get its own empty database.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database %s: %w", path, err)
	}

	log.Debug().Str("path", path).Msg("opened SQLite diary")
	return &Client{db: db, path: path}, nil
}

// DB returns the underlying database connection
func (c *Client) DB() *sql.DB {
	return c.db
}

// Dialect returns the goqu dialect name
func (c *Client) Dialect() string {
	return Dialect
}

// Path returns the database path
func (c *Client) Path() string {
	return c.path
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}

// Ping verifies the connection to the database
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
