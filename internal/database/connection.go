package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/catalog"
)

// Connection is a single read-only session used to scan one split. It owns
// its pool, so closing it releases everything it opened. Queries run inside
// the read-only transaction started when it was opened.
type Connection struct {
	pool *sql.DB
	conn *sql.Conn
	tx   *sql.Tx
}

// OpenReadOnly opens a session for url and props and starts a read-only
// transaction on it. Nothing is left open when it fails.
func OpenReadOnly(ctx context.Context, handler DialectHandler, dialect, url string, props Properties) (*Connection, error) {
	pool, err := OpenPool(handler, dialect, url, props)
	if err != nil {
		return nil, err
	}
	pool.SetMaxOpenConns(1)

	conn, err := pool.Conn(ctx)
	if err != nil {
		pool.Close()
		return nil, &catalog.ErrDatabaseConnection{Msg: "failed to open split connection", Err: err}
	}

	tx, err := handler.BeginReadOnly(ctx, conn)
	if err != nil {
		conn.Close()
		pool.Close()
		return nil, &catalog.ErrDatabaseConnection{Msg: "failed to make connection read-only", Err: err}
	}
	return &Connection{pool: pool, conn: conn, tx: tx}, nil
}

func (c *Connection) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := c.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing split query: %w", err)
	}
	return rows, nil
}

// Close rolls back the read-only transaction and releases the session. The
// first error encountered is returned.
func (c *Connection) Close() error {
	txErr := c.tx.Rollback()
	if errors.Is(txErr, sql.ErrTxDone) {
		txErr = nil
	}
	connErr := c.conn.Close()
	poolErr := c.pool.Close()
	for _, err := range []error{txErr, connErr, poolErr} {
		if err != nil {
			return err
		}
	}
	return nil
}
