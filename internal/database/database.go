package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/catalog"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/config"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/predicate"
)

// Queryer is the part of *sql.DB, *sql.Conn and *sql.Tx that metadata
// queries need.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// DialectHandler is everything the connector needs from one kind of
// external database.
type DialectHandler interface {
	predicate.Dialect

	CreateCloudSQLPool(url string, props Properties) (*sql.DB, error)
	CreateStandardPool(url string, props Properties) (*sql.DB, error)

	// DefaultIdentifierQuote is used unless the configuration overrides it.
	DefaultIdentifierQuote() string
	// SystemNamespaces is the default deny-list of internal schemas.
	SystemNamespaces() []string
	// StoresUpperCaseIdentifiers reports whether unquoted identifiers are
	// folded to upper case in the catalog.
	StoresUpperCaseIdentifiers() bool

	ListSchemas(ctx context.Context, q Queryer) ([]string, error)
	ListTables(ctx context.Context, q Queryer, filter TableFilter) ([]TableInfo, error)
	ListColumns(ctx context.Context, q Queryer, filter ColumnFilter) ([]ColumnInfo, error)

	// BeginReadOnly starts the transaction a split scan runs in, read-only
	// wherever the database can enforce it.
	BeginReadOnly(ctx context.Context, conn *sql.Conn) (*sql.Tx, error)
}

// DB holds the metadata connection pool and dialect handler.
type DB struct {
	Pool    *sql.DB
	Handler DialectHandler
	Config  config.Config
}

var (
	dialectHandlers = make(map[string]DialectHandler)
	mu              sync.RWMutex
)

// RegisterDialectHandler makes a handler available by name. It panics if
// called twice for the same name.
func RegisterDialectHandler(dialect string, handler DialectHandler) {
	mu.Lock()
	defer mu.Unlock()
	if handler == nil {
		panic("database: RegisterDialectHandler handler is nil")
	}
	if _, exists := dialectHandlers[dialect]; exists {
		panic("database: RegisterDialectHandler called twice for dialect " + dialect)
	}
	dialectHandlers[dialect] = handler
}

func GetDialectHandler(dialect string) (DialectHandler, error) {
	mu.RLock()
	defer mu.RUnlock()
	handler, ok := dialectHandlers[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported database dialect: %s", dialect)
	}
	return handler, nil
}

// Dialects returns the sorted names of all registered handlers.
func Dialects() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(dialectHandlers))
	for name := range dialectHandlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsCloudSQL reports whether dialect connects through the Cloud SQL connector.
func IsCloudSQL(dialect string) bool {
	return strings.HasPrefix(dialect, "cloudsql")
}

// New opens and pings the metadata pool described by cfg.
func New(ctx context.Context, cfg config.Config) (*DB, error) {
	handler, err := GetDialectHandler(cfg.Dialect)
	if err != nil {
		return nil, err
	}

	pool, err := OpenPool(handler, cfg.Dialect, cfg.ConnectionURL, PropertiesFromConfig(cfg))
	if err != nil {
		return nil, err
	}

	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, &catalog.ErrDatabaseConnection{Msg: fmt.Sprintf("ping failed for dialect %s", cfg.Dialect), Err: err}
	}

	return &DB{
		Pool:    pool,
		Handler: handler,
		Config:  cfg,
	}, nil
}

// OpenPool creates a pool for url without connecting.
func OpenPool(handler DialectHandler, dialect, url string, props Properties) (*sql.DB, error) {
	var (
		pool *sql.DB
		err  error
	)
	if IsCloudSQL(dialect) {
		pool, err = handler.CreateCloudSQLPool(url, props)
	} else {
		pool, err = handler.CreateStandardPool(url, props)
	}
	if err != nil {
		return nil, &catalog.ErrDatabaseConnection{Msg: fmt.Sprintf("failed to create database pool for dialect %s", dialect), Err: err}
	}
	return pool, nil
}

func (db *DB) Ping(ctx context.Context) error {
	if db.Pool == nil {
		return fmt.Errorf("database connection pool is not initialized")
	}
	return db.Pool.PingContext(ctx)
}

func (db *DB) Close() error {
	if db.Pool != nil {
		return db.Pool.Close()
	}
	return nil
}

func (db *DB) StoresUpperCaseIdentifiers() bool {
	return db.Handler.StoresUpperCaseIdentifiers()
}

func (db *DB) ListSchemas(ctx context.Context) ([]string, error) {
	var schemas []string
	err := db.withConn(ctx, func(conn *sql.Conn) error {
		var err error
		schemas, err = db.Handler.ListSchemas(ctx, conn)
		return err
	})
	return schemas, err
}

func (db *DB) ListTables(ctx context.Context, filter TableFilter) ([]TableInfo, error) {
	var tables []TableInfo
	err := db.withConn(ctx, func(conn *sql.Conn) error {
		var err error
		tables, err = db.Handler.ListTables(ctx, conn, filter)
		return err
	})
	return tables, err
}

func (db *DB) ListColumns(ctx context.Context, filter ColumnFilter) ([]ColumnInfo, error) {
	var columns []ColumnInfo
	err := db.withConn(ctx, func(conn *sql.Conn) error {
		var err error
		columns, err = db.Handler.ListColumns(ctx, conn, filter)
		return err
	})
	return columns, err
}

// withConn runs fn on a connection held only for the duration of the call.
// Any failure is reported as a connection-level error.
func (db *DB) withConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	if db.Pool == nil || db.Handler == nil {
		return &catalog.ErrDatabaseConnection{Msg: "database is not initialized"}
	}
	conn, err := db.Pool.Conn(ctx)
	if err != nil {
		return &catalog.ErrDatabaseConnection{Msg: "failed to acquire connection", Err: err}
	}
	defer conn.Close()

	if err := fn(conn); err != nil {
		return &catalog.ErrDatabaseConnection{Msg: "metadata query failed", Err: err}
	}
	return nil
}
