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
package sqlserver

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/cloudsqlconn"
	mssql "github.com/denisenkom/go-mssqldb"

	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/database"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/predicate"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/types"
)

var systemSchemas = []string{
	"INFORMATION_SCHEMA", "sys", "guest",
	"db_owner", "db_accessadmin", "db_securityadmin", "db_ddladmin",
	"db_backupoperator", "db_datareader", "db_datawriter", "db_denydatareader", "db_denydatawriter",
}

// sqlServerHandler struct implements database.DialectHandler for SQL Server.
type sqlServerHandler struct {
	predicate.StandardLiterals
}

var _ database.DialectHandler = (*sqlServerHandler)(nil)

type csqlDialer struct {
	dialer     *cloudsqlconn.Dialer
	connName   string
	usePrivate bool
}

// DialContext adheres to the mssql.Dialer interface.
func (c *csqlDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	var opts []cloudsqlconn.DialOption
	if c.usePrivate {
		opts = append(opts, cloudsqlconn.WithPrivateIP())
	}
	return c.dialer.Dial(ctx, c.connName, opts...)
}

// CreateCloudSQLPool for SQL Server. url is the instance connection name.
func (h sqlServerHandler) CreateCloudSQLPool(instanceConnectionName string, props database.Properties) (*sql.DB, error) {
	if props.User() == "" || props.Database() == "" || instanceConnectionName == "" {
		return nil, fmt.Errorf("missing required CloudSQL connection parameter (user, db, instance)")
	}

	// WithLazyRefresh() Option is used to perform refresh
	// when needed, rather than on a scheduled interval.
	dialer, err := cloudsqlconn.NewDialer(context.Background(), cloudsqlconn.WithLazyRefresh())
	if err != nil {
		return nil, fmt.Errorf("cloudsqlconn.NewDialer: %w", err)
	}

	u := &url.URL{
		Scheme: "sqlserver",
		User:   url.UserPassword(props.User(), props.Password()),
		Host:   "localhost:1433",
	}
	q := url.Values{}
	q.Set("database", props.Database())
	u.RawQuery = q.Encode()

	connector, err := mssql.NewConnector(u.String())
	if err != nil {
		return nil, fmt.Errorf("mssql.NewConnector: %w", err)
	}
	connector.Dialer = &csqlDialer{
		dialer:     dialer,
		connName:   instanceConnectionName,
		usePrivate: props.UsePrivateIP(),
	}

	return sql.OpenDB(connector), nil
}

// CreateStandardPool creates a standard SQL Server connection pool from a
// sqlserver:// URL. Credentials in props replace those in the URL.
func (h sqlServerHandler) CreateStandardPool(rawURL string, props database.Properties) (*sql.DB, error) {
	connStr, err := BuildConnectionURL(rawURL, props)
	if err != nil {
		return nil, err
	}
	connector, err := mssql.NewConnector(connStr)
	if err != nil {
		return nil, fmt.Errorf("mssql.NewConnector: %w", err)
	}
	return sql.OpenDB(connector), nil
}

// BuildConnectionURL validates rawURL and applies the credentials in props.
func BuildConnectionURL(rawURL string, props database.Properties) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid sqlserver connection url: %w", err)
	}
	if u.Scheme != "sqlserver" {
		return "", fmt.Errorf("invalid sqlserver connection url scheme %q", u.Scheme)
	}
	if props.User() != "" {
		u.User = url.UserPassword(props.User(), props.Password())
	}
	return u.String(), nil
}

func (h sqlServerHandler) DefaultIdentifierQuote() string {
	return `"`
}

func (h sqlServerHandler) SystemNamespaces() []string {
	return append([]string(nil), systemSchemas...)
}

func (h sqlServerHandler) StoresUpperCaseIdentifiers() bool {
	return false
}

// StringLiteral uses the N prefix so non-Latin text compares against
// NVARCHAR columns.
func (h sqlServerHandler) StringLiteral(s string) string {
	return "N" + predicate.QuoteString(s)
}

func (h sqlServerHandler) DateLiteral(t time.Time) string {
	return fmt.Sprintf("CONVERT(DATE, %s, 23)", predicate.QuoteString(t.Format(predicate.DateLayout)))
}

func (h sqlServerHandler) TimestampLiteral(t time.Time) string {
	return fmt.Sprintf("CONVERT(DATETIME2, %s, 120)", predicate.QuoteString(t.Format(predicate.TimestampLayout)))
}

// BooleanLiteral renders BIT values.
func (h sqlServerHandler) BooleanLiteral(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// BeginReadOnly starts a plain transaction. SQL Server has no read-only
// transaction mode and go-mssqldb rejects sql.TxOptions.ReadOnly, so
// read-only access relies on ApplicationIntent=ReadOnly or the login's grants.
func (h sqlServerHandler) BeginReadOnly(ctx context.Context, conn *sql.Conn) (*sql.Tx, error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error beginning transaction: %w", err)
	}
	return tx, nil
}

func (h sqlServerHandler) ListSchemas(ctx context.Context, q database.Queryer) ([]string, error) {
	rows, err := q.QueryContext(ctx, "SELECT name FROM sys.schemas ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("error querying schemas: %w", err)
	}
	return database.ScanStrings(rows)
}

func (h sqlServerHandler) ListTables(ctx context.Context, q database.Queryer, filter database.TableFilter) ([]database.TableInfo, error) {
	cond := database.NewConditions(database.AtPN).
		Equal("TABLE_CATALOG", filter.Catalog).
		Equal("TABLE_SCHEMA", filter.Schema).
		Equal("TABLE_NAME", filter.Table)
	query := "SELECT TABLE_CATALOG, TABLE_SCHEMA, TABLE_NAME, TABLE_TYPE FROM INFORMATION_SCHEMA.TABLES" +
		cond.Where() + " ORDER BY TABLE_SCHEMA, TABLE_NAME"

	rows, err := q.QueryContext(ctx, query, cond.Args()...)
	if err != nil {
		return nil, fmt.Errorf("error querying tables: %w", err)
	}
	defer rows.Close()

	var tables []database.TableInfo
	for rows.Next() {
		var info database.TableInfo
		var tableType string
		if err := rows.Scan(&info.Catalog, &info.Schema, &info.Name, &tableType); err != nil {
			return nil, fmt.Errorf("error scanning table row: %w", err)
		}
		switch tableType {
		case "BASE TABLE":
			info.Kind = database.KindTable
		case "VIEW":
			info.Kind = database.KindView
		default:
			continue
		}
		if filter.Matches(info.Kind) {
			tables = append(tables, info)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table rows: %w", err)
	}
	return tables, nil
}

func (h sqlServerHandler) ListColumns(ctx context.Context, q database.Queryer, filter database.ColumnFilter) ([]database.ColumnInfo, error) {
	cond := database.NewConditions(database.AtPN).
		Equal("TABLE_CATALOG", filter.Catalog).
		Equal("TABLE_SCHEMA", filter.Schema).
		Equal("TABLE_NAME", filter.Table)
	query := "SELECT COLUMN_NAME, DATA_TYPE, CHARACTER_MAXIMUM_LENGTH FROM INFORMATION_SCHEMA.COLUMNS" +
		cond.Where() + " ORDER BY ORDINAL_POSITION"

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
			return nil, fmt.Errorf("error scanning column row: %w", err)
		}
		colInfo.Code = classify(colInfo.DataType)
		// -1 marks the (MAX) variants.
		if length.Int64 > 0 {
			colInfo.Size = int(length.Int64)
		}
		columns = append(columns, colInfo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column rows: %w", err)
	}
	return columns, nil
}

// classify maps INFORMATION_SCHEMA.COLUMNS.DATA_TYPE to a type code.
func classify(dataType string) types.Code {
	switch strings.ToLower(dataType) {
	case "bit":
		return types.Bit
	case "tinyint":
		return types.TinyInt
	case "smallint":
		return types.SmallInt
	case "int":
		return types.Integer
	case "bigint":
		return types.BigInt
	case "real":
		return types.Real
	case "float":
		return types.Double
	case "decimal", "money", "smallmoney":
		return types.Decimal
	case "numeric":
		return types.Numeric
	case "char":
		return types.Char
	case "nchar":
		return types.NChar
	case "varchar":
		return types.VarChar
	case "nvarchar":
		return types.NVarChar
	case "text":
		return types.LongVarChar
	case "ntext":
		return types.LongNVarChar
	case "binary":
		return types.BinaryCode
	case "varbinary":
		return types.VarBinary
	case "image":
		return types.LongVarBinary
	case "date":
		return types.DateCode
	case "time":
		return types.TimeCode
	case "datetime", "datetime2", "smalldatetime":
		return types.TimestampCode
	case "datetimeoffset", "sql_variant", "timestamp", "rowversion":
		return types.Unsupported
	}
	return types.Other
}

func init() {
	handler := sqlServerHandler{}
	database.RegisterDialectHandler("sqlserver", handler)
	database.RegisterDialectHandler("cloudsqlsqlserver", handler)
}
