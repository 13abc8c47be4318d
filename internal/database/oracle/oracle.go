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
package oracle

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	go_ora "github.com/sijms/go-ora/v2"

	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/database"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/predicate"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/types"
)

const defaultPort = 1521

// systemSchemas are Oracle-internal owners hidden from the engine.
var systemSchemas = []string{
	"SYS", "SYSTEM", "WMSYS", "INFORMATION_SCHEMA", "XS$NULL", "XDB", "PUBLIC", "CTXSYS", "ODMRSYS",
}

// oracleHandler implements database.DialectHandler for Oracle.
type oracleHandler struct {
	predicate.StandardLiterals
}

var (
	_ database.DialectHandler = (*oracleHandler)(nil)
	_ types.PhysicalTypeNamer = (*oracleHandler)(nil)
)

// CreateCloudSQLPool is not available: Cloud SQL has no Oracle engine.
func (h oracleHandler) CreateCloudSQLPool(url string, props database.Properties) (*sql.DB, error) {
	return nil, fmt.Errorf("cloud sql does not support oracle")
}

// CreateStandardPool opens a go-ora pool. Credentials and the row prefetch
// come from props and override anything already in the URL.
func (h oracleHandler) CreateStandardPool(rawURL string, props database.Properties) (*sql.DB, error) {
	connStr, err := BuildConnectionURL(rawURL, props)
	if err != nil {
		return nil, err
	}
	dbPool, err := sql.Open("oracle", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	return dbPool, nil
}

// BuildConnectionURL turns "oracle://host[:port]/service[?options]" plus
// props into a go-ora connection string.
func BuildConnectionURL(rawURL string, props database.Properties) (string, error) {
	if !strings.Contains(rawURL, "://") {
		rawURL = "oracle://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid oracle connection url: %w", err)
	}
	if u.Scheme != "oracle" {
		return "", fmt.Errorf("invalid oracle connection url scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("oracle connection url has no host")
	}

	port := defaultPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return "", fmt.Errorf("invalid oracle port %q: %w", p, err)
		}
	}

	user, password := props.User(), props.Password()
	if u.User != nil {
		if user == "" {
			user = u.User.Username()
		}
		if pw, ok := u.User.Password(); ok && password == "" {
			password = pw
		}
	}

	options := make(map[string]string)
	for k, v := range u.Query() {
		if len(v) > 0 {
			options[strings.ToUpper(k)] = v[0]
		}
	}
	options["PREFETCH_ROWS"] = strconv.Itoa(props.FetchSize())

	return go_ora.BuildUrl(u.Hostname(), port, strings.TrimPrefix(u.Path, "/"), user, password, options), nil
}

func (h oracleHandler) DefaultIdentifierQuote() string {
	return `"`
}

func (h oracleHandler) SystemNamespaces() []string {
	return append([]string(nil), systemSchemas...)
}

func (h oracleHandler) StoresUpperCaseIdentifiers() bool {
	return true
}

// TimestampLiteral parses the literal with an explicit format so the
// session's NLS settings do not matter.
func (h oracleHandler) TimestampLiteral(t time.Time) string {
	return fmt.Sprintf("TO_TIMESTAMP(%s, 'yyyy-mm-dd hh24:mi:ss')", predicate.QuoteString(t.Format(predicate.TimestampLayout)))
}

// DateLiteral uses the ANSI DATE keyword; a bare string would depend on
// NLS_DATE_FORMAT.
func (h oracleHandler) DateLiteral(t time.Time) string {
	return "DATE " + predicate.QuoteString(t.Format(predicate.DateLayout))
}

// BooleanLiteral renders 1/0; Oracle SQL before 23ai has no boolean literal.
func (h oracleHandler) BooleanLiteral(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// BeginReadOnly opens an explicit transaction before SET TRANSACTION READ
// ONLY. go-ora commits every statement issued outside one, which would end
// the read-only transaction before the split query runs. The driver rejects
// sql.TxOptions.ReadOnly, so the mode is set with a statement.
func (h oracleHandler) BeginReadOnly(ctx context.Context, conn *sql.Conn) (*sql.Tx, error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error beginning transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "SET TRANSACTION READ ONLY"); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("error setting read-only transaction: %w", err)
	}
	return tx, nil
}

func (h oracleHandler) ListSchemas(ctx context.Context, q database.Queryer) ([]string, error) {
	rows, err := q.QueryContext(ctx, "SELECT username FROM all_users ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("error querying schemas: %w", err)
	}
	return database.ScanStrings(rows)
}

func (h oracleHandler) ListTables(ctx context.Context, q database.Queryer, filter database.TableFilter) ([]database.TableInfo, error) {
	cond := database.NewConditions(database.ColonN).
		Equal("owner", filter.Schema).
		Equal("object_name", filter.Table)
	query := `SELECT owner, object_name, object_type FROM all_objects WHERE object_type IN ('TABLE', 'VIEW', 'SYNONYM')` +
		cond.And() + ` ORDER BY owner, object_name`

	rows, err := q.QueryContext(ctx, query, cond.Args()...)
	if err != nil {
		return nil, fmt.Errorf("error querying tables: %w", err)
	}
	defer rows.Close()

	var tables []database.TableInfo
	for rows.Next() {
		var owner, name, kind string
		if err := rows.Scan(&owner, &name, &kind); err != nil {
			return nil, fmt.Errorf("error scanning table row: %w", err)
		}
		if !filter.Matches(database.TableKind(kind)) {
			continue
		}
		tables = append(tables, database.TableInfo{Schema: owner, Name: name, Kind: database.TableKind(kind)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table rows: %w", err)
	}
	return tables, nil
}

const columnSelect = `SELECT %[1]scolumn_name, %[1]sdata_type, %[1]sdata_length, %[1]schar_length, %[1]sdata_precision, %[1]sdata_scale, %[1]scolumn_id`

func (h oracleHandler) ListColumns(ctx context.Context, q database.Queryer, filter database.ColumnFilter) ([]database.ColumnInfo, error) {
	cond := database.NewConditions(database.ColonN)
	query := fmt.Sprintf(columnSelect, "") + ` FROM all_tab_columns` +
		cond.Equal("owner", filter.Schema).Equal("table_name", filter.Table).Where()
	if filter.IncludeSynonyms {
		query += ` UNION ALL ` + fmt.Sprintf(columnSelect, "c.") +
			` FROM all_synonyms s JOIN all_tab_columns c ON c.owner = s.table_owner AND c.table_name = s.table_name` +
			cond.Equal("s.owner", filter.Schema).Equal("s.synonym_name", filter.Table).Where()
	}
	query += ` ORDER BY 7`

	rows, err := q.QueryContext(ctx, query, cond.Args()...)
	if err != nil {
		return nil, fmt.Errorf("error querying columns: %w", err)
	}
	defer rows.Close()

	var columns []database.ColumnInfo
	for rows.Next() {
		var (
			name, dataType   string
			dataLength       int64
			charLength       sql.NullInt64
			precision, scale sql.NullInt64
			columnID         int64
		)
		if err := rows.Scan(&name, &dataType, &dataLength, &charLength, &precision, &scale, &columnID); err != nil {
			return nil, fmt.Errorf("error scanning column row: %w", err)
		}
		code, size := classify(dataType, dataLength, charLength, precision, scale)
		columns = append(columns, database.ColumnInfo{Name: name, DataType: dataType, Code: code, Size: size})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column rows: %w", err)
	}
	return columns, nil
}

// classify maps an ALL_TAB_COLUMNS data type to a type code and declared size.
func classify(dataType string, dataLength int64, charLength, precision, scale sql.NullInt64) (types.Code, int) {
	t := strings.ToUpper(strings.TrimSpace(dataType))
	textSize := int(charLength.Int64)
	if !charLength.Valid || textSize <= 0 {
		textSize = int(dataLength)
	}

	switch {
	case t == "NUMBER":
		// NUMBER(p) with p up to 18 digits always fits in 64 bits.
		if precision.Valid && scale.Valid && scale.Int64 == 0 && precision.Int64 > 0 && precision.Int64 <= 18 {
			return types.BigInt, int(precision.Int64)
		}
		return types.Numeric, int(precision.Int64)
	case t == "INTEGER":
		return types.BigInt, 0
	case t == "FLOAT":
		return types.Float, int(precision.Int64)
	case t == "BINARY_FLOAT":
		return types.Real, 0
	case t == "BINARY_DOUBLE":
		return types.Double, 0
	case t == "CHAR":
		return types.Char, textSize
	case t == "NCHAR":
		return types.NChar, textSize
	case t == "VARCHAR2", t == "VARCHAR":
		return types.VarChar, textSize
	case t == "NVARCHAR2":
		return types.NVarChar, textSize
	case t == "LONG":
		return types.LongVarChar, 0
	case t == "RAW":
		return types.VarBinary, int(dataLength)
	case t == "LONG RAW":
		return types.LongVarBinary, 0
	case t == "BLOB":
		return types.Blob, 0
	case t == "CLOB":
		return types.Clob, 0
	case t == "NCLOB":
		return types.NClob, 0
	case t == "DATE":
		// Oracle DATE carries a time of day.
		return types.TimestampCode, 0
	case strings.HasPrefix(t, "TIMESTAMP") && strings.Contains(t, "TIME ZONE"):
		return types.Unsupported, 0
	case strings.HasPrefix(t, "TIMESTAMP"):
		return types.TimestampCode, 0
	case strings.HasPrefix(t, "INTERVAL"), t == "ROWID", t == "UROWID", t == "BFILE":
		return types.Unsupported, 0
	}
	return types.Other, 0
}

// PhysicalTypeName spells logical types in Oracle DDL.
func (h oracleHandler) PhysicalTypeName(t types.LogicalType) (string, bool) {
	switch t.Kind {
	case types.Boolean:
		return "NUMBER(1)", true
	case types.Integer64:
		return "NUMBER(19)", true
	case types.Float64:
		return "BINARY_DOUBLE", true
	case types.Text:
		if t.Length > 0 && t.Length <= 4000 {
			return fmt.Sprintf("VARCHAR2(%d CHAR)", t.Length), true
		}
		return "CLOB", true
	case types.Binary:
		return "BLOB", true
	case types.Date:
		return "DATE", true
	case types.Timestamp:
		return "TIMESTAMP", true
	}
	return "", false
}

func init() {
	database.RegisterDialectHandler("oracle", oracleHandler{})
}
