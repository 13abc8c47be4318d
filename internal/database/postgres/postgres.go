/*
 * Copyright 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strings"
	"time"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"

	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/database"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/predicate"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/types"
)

var systemSchemas = []string{"information_schema", "pg_catalog", "pg_toast"}

// postgresHandler struct implements database.DialectHandler for PostgreSQL.
type postgresHandler struct {
	predicate.StandardLiterals
}

var _ database.DialectHandler = (*postgresHandler)(nil)

// CreateCloudSQLPool for PostgreSQL. url is the instance connection name.
func (h postgresHandler) CreateCloudSQLPool(instanceConnectionName string, props database.Properties) (*sql.DB, error) {
	if props.User() == "" || props.Database() == "" || instanceConnectionName == "" {
		return nil, fmt.Errorf("missing required CloudSQL connection parameter (user, db, instance)")
	}

	dsn := strings.Join([]string{
		keyValue("user", props.User()),
		keyValue("password", props.Password()),
		keyValue("database", props.Database()),
	}, " ")
	config, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	var opts []cloudsqlconn.Option
	if props.UsePrivateIP() {
		opts = append(opts, cloudsqlconn.WithDefaultDialOptions(cloudsqlconn.WithPrivateIP()))
	}
	d, err := cloudsqlconn.NewDialer(context.Background(), opts...)
	if err != nil {
		return nil, err
	}
	config.DialFunc = func(ctx context.Context, network, instance string) (net.Conn, error) {
		return d.Dial(ctx, instanceConnectionName)
	}
	dbURI := stdlib.RegisterConnConfig(config)
	dbPool, err := sql.Open("pgx", dbURI)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}

	return dbPool, nil
}

// CreateStandardPool creates a standard PostgreSQL connection pool. url may
// be a postgres:// URL or a key=value connection string; user and password
// from props are appended and take precedence.
func (h postgresHandler) CreateStandardPool(url string, props database.Properties) (*sql.DB, error) {
	connStr, err := BuildConnectionString(url, props)
	if err != nil {
		return nil, err
	}
	dbPool, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	return dbPool, nil
}

// BuildConnectionString normalizes url to lib/pq key=value form and adds the
// credentials carried in props.
func BuildConnectionString(url string, props database.Properties) (string, error) {
	connStr := strings.TrimSpace(url)
	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		parsed, err := pq.ParseURL(connStr)
		if err != nil {
			return "", fmt.Errorf("invalid postgres connection url: %w", err)
		}
		connStr = parsed
	}
	parts := []string{connStr}
	if u := props.User(); u != "" {
		parts = append(parts, keyValue("user", u))
	}
	if p := props.Password(); p != "" {
		parts = append(parts, keyValue("password", p))
	}
	return strings.TrimSpace(strings.Join(parts, " ")), nil
}

// keyValue quotes value for a libpq connection string.
func keyValue(key, value string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(value)
	return fmt.Sprintf("%s='%s'", key, escaped)
}

func (h postgresHandler) DefaultIdentifierQuote() string {
	return `"`
}

func (h postgresHandler) SystemNamespaces() []string {
	return append([]string(nil), systemSchemas...)
}

func (h postgresHandler) StoresUpperCaseIdentifiers() bool {
	return false
}

func (h postgresHandler) StringLiteral(s string) string {
	return pq.QuoteLiteral(s)
}

func (h postgresHandler) DateLiteral(t time.Time) string {
	return "DATE " + predicate.QuoteString(t.Format(predicate.DateLayout))
}

// TimestampLiteral casts back to timestamp without time zone, which is what
// to_timestamp's wall clock reading means here.
func (h postgresHandler) TimestampLiteral(t time.Time) string {
	return fmt.Sprintf("to_timestamp(%s, 'YYYY-MM-DD HH24:MI:SS')::timestamp", predicate.QuoteString(t.Format(predicate.TimestampLayout)))
}

func (h postgresHandler) BeginReadOnly(ctx context.Context, conn *sql.Conn) (*sql.Tx, error) {
	tx, err := conn.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("error beginning read-only transaction: %w", err)
	}
	return tx, nil
}

// ListSchemas for PostgreSQL
func (h postgresHandler) ListSchemas(ctx context.Context, q database.Queryer) ([]string, error) {
	rows, err := q.QueryContext(ctx, "SELECT schema_name FROM information_schema.schemata ORDER BY schema_name")
	if err != nil {
		return nil, fmt.Errorf("error querying schemas: %w", err)
	}
	return database.ScanStrings(rows)
}

// ListTables for PostgreSQL
func (h postgresHandler) ListTables(ctx context.Context, q database.Queryer, filter database.TableFilter) ([]database.TableInfo, error) {
	cond := database.NewConditions(database.DollarN).
		Equal("table_schema", filter.Schema).
		Equal("table_name", filter.Table)
	query := `SELECT table_schema, table_name, table_type FROM information_schema.tables` +
		cond.Where() + ` ORDER BY table_schema, table_name`

	rows, err := q.QueryContext(ctx, query, cond.Args()...)
	if err != nil {
		return nil, fmt.Errorf("error querying tables: %w", err)
	}
	defer rows.Close()

	var tables []database.TableInfo
	for rows.Next() {
		var schema, name, tableType string
		if err := rows.Scan(&schema, &name, &tableType); err != nil {
			return nil, fmt.Errorf("error scanning table row: %w", err)
		}
		var kind database.TableKind
		switch tableType {
		case "BASE TABLE", "FOREIGN":
			kind = database.KindTable
		case "VIEW":
			kind = database.KindView
		default:
			continue
		}
		if !filter.Matches(kind) {
			continue
		}
		tables = append(tables, database.TableInfo{Schema: schema, Name: name, Kind: kind})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table rows: %w", err)
	}

	return tables, nil
}

// ListColumns for PostgreSQL
func (h postgresHandler) ListColumns(ctx context.Context, q database.Queryer, filter database.ColumnFilter) ([]database.ColumnInfo, error) {
	cond := database.NewConditions(database.DollarN).
		Equal("table_schema", filter.Schema).
		Equal("table_name", filter.Table)
	query := `SELECT column_name, data_type, character_maximum_length FROM information_schema.columns` +
		cond.Where() + ` ORDER BY ordinal_position`

	rows, err := q.QueryContext(ctx, query, cond.Args()...)
	if err != nil {
		return nil, fmt.Errorf("error querying columns for table %s: %w", filter.Table, err)
	}
	defer rows.Close()

	var columns []database.ColumnInfo
	for rows.Next() {
		var colInfo database.ColumnInfo
		var length sql.NullInt64
		if err := rows.Scan(&colInfo.Name, &colInfo.DataType, &length); err != nil {
			return nil, fmt.Errorf("error scanning column name and data type: %w", err)
		}
		colInfo.Code = classify(colInfo.DataType)
		colInfo.Size = int(length.Int64)
		columns = append(columns, colInfo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column rows: %w", err)
	}

	return columns, nil
}

// classify maps an information_schema data_type to a type code.
func classify(dataType string) types.Code {
	switch dataType {
	case "boolean":
		return types.BooleanCode
	case "smallint":
		return types.SmallInt
	case "integer":
		return types.Integer
	case "bigint":
		return types.BigInt
	case "real":
		return types.Real
	case "double precision":
		return types.Double
	case "numeric":
		return types.Numeric
	case "character":
		return types.Char
	case "character varying":
		return types.VarChar
	case "text":
		return types.LongVarChar
	case "bytea":
		return types.VarBinary
	case "date":
		return types.DateCode
	case "time without time zone":
		return types.TimeCode
	case "timestamp without time zone":
		return types.TimestampCode
	case "timestamp with time zone", "time with time zone", "interval":
		return types.Unsupported
	}
	return types.Other
}

func init() {
	handler := postgresHandler{}
	database.RegisterDialectHandler("postgres", handler)
	database.RegisterDialectHandler("cloudsqlpostgres", handler)
}
