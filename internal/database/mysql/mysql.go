package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strings"
	"time"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/database"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/predicate"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/types"
	"github.com/go-sql-driver/mysql"
)

var systemSchemas = []string{"information_schema", "mysql", "performance_schema", "sys"}

type mysqlHandler struct {
	predicate.StandardLiterals
}

var _ database.DialectHandler = (*mysqlHandler)(nil)

func (h mysqlHandler) CreateCloudSQLPool(instanceConnectionName string, props database.Properties) (*sql.DB, error) {
	dbUser, dbPwd, dbName := props.User(), props.Password(), props.Database()
	if dbUser == "" || dbPwd == "" || dbName == "" || instanceConnectionName == "" {
		return nil, fmt.Errorf("missing required CloudSQL connection parameter (user, pass, db, instance)")
	}

	d, err := cloudsqlconn.NewDialer(context.Background())
	if err != nil {
		return nil, fmt.Errorf("cloudsqlconn.NewDialer: %w", err)
	}

	var opts []cloudsqlconn.DialOption
	if props.UsePrivateIP() {
		opts = append(opts, cloudsqlconn.WithPrivateIP())
	}

	network := fmt.Sprintf("cloudsql-%s", instanceConnectionName)

	mysql.RegisterDialContext(network,
		func(ctx context.Context, addr string) (net.Conn, error) {
			conn, dialErr := d.Dial(ctx, instanceConnectionName, opts...)
			if dialErr != nil {
				return nil, fmt.Errorf("cloud sql dial failed for %s: %w", instanceConnectionName, dialErr)
			}
			return conn, nil
		})

	mysqlCfg := mysql.Config{
		User:                 dbUser,
		Passwd:               dbPwd,
		Net:                  network,
		Addr:                 instanceConnectionName,
		DBName:               dbName,
		AllowNativePasswords: true,
		ParseTime:            true,
	}

	dbPool, err := sql.Open("mysql", mysqlCfg.FormatDSN())
	if err != nil {
		mysql.DeregisterDialContext(network)
		d.Close()
		return nil, fmt.Errorf("sql.Open failed for CloudSQL MySQL: %w", err)
	}
	return dbPool, nil
}

func (h mysqlHandler) CreateStandardPool(dsn string, props database.Properties) (*sql.DB, error) {
	connStr, err := BuildDSN(dsn, props)
	if err != nil {
		return nil, err
	}
	dbPool, err := sql.Open("mysql", connStr)
	if err != nil {
		return nil, fmt.Errorf("sql.Open (standard mysql): %w", err)
	}
	return dbPool, nil
}

// BuildDSN parses a go-sql-driver DSN ("user:pass@tcp(host:3306)/db") and
// applies the credentials carried in props.
func BuildDSN(dsn string, props database.Properties) (string, error) {
	mysqlCfg, err := mysql.ParseDSN(strings.TrimPrefix(dsn, "mysql://"))
	if err != nil {
		return "", fmt.Errorf("invalid mysql dsn: %w", err)
	}
	if u := props.User(); u != "" {
		mysqlCfg.User = u
	}
	if p := props.Password(); p != "" {
		mysqlCfg.Passwd = p
	}
	mysqlCfg.AllowNativePasswords = true
	mysqlCfg.ParseTime = true
	return mysqlCfg.FormatDSN(), nil
}

func (h mysqlHandler) DefaultIdentifierQuote() string {
	return "`"
}

func (h mysqlHandler) SystemNamespaces() []string {
	return append([]string(nil), systemSchemas...)
}

func (h mysqlHandler) StoresUpperCaseIdentifiers() bool {
	return false
}

// StringLiteral escapes backslashes too, since MySQL treats them as escape
// characters unless NO_BACKSLASH_ESCAPES is set.
func (h mysqlHandler) StringLiteral(s string) string {
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `''`).Replace(s) + "'"
}

func (h mysqlHandler) DateLiteral(t time.Time) string {
	return "DATE " + predicate.QuoteString(t.Format(predicate.DateLayout))
}

func (h mysqlHandler) TimestampLiteral(t time.Time) string {
	return fmt.Sprintf("STR_TO_DATE(%s, '%%Y-%%m-%%d %%H:%%i:%%s')", predicate.QuoteString(t.Format(predicate.TimestampLayout)))
}

// BeginReadOnly issues START TRANSACTION READ ONLY through the driver.
func (h mysqlHandler) BeginReadOnly(ctx context.Context, conn *sql.Conn) (*sql.Tx, error) {
	tx, err := conn.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("error beginning read-only transaction: %w", err)
	}
	return tx, nil
}

func (h mysqlHandler) ListSchemas(ctx context.Context, q database.Queryer) ([]string, error) {
	rows, err := q.QueryContext(ctx, "SELECT schema_name FROM information_schema.schemata ORDER BY schema_name")
	if err != nil {
		return nil, fmt.Errorf("error querying schemas: %w", err)
	}
	return database.ScanStrings(rows)
}

func (h mysqlHandler) ListTables(ctx context.Context, q database.Queryer, filter database.TableFilter) ([]database.TableInfo, error) {
	cond := database.NewConditions(database.QuestionMark).
		Equal("table_schema", filter.Schema).
		Equal("table_name", filter.Table)
	query := "SELECT table_schema, table_name, table_type FROM information_schema.tables" +
		cond.Where() + " ORDER BY table_schema, table_name"

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
		case "BASE TABLE":
			kind = database.KindTable
		case "VIEW":
			kind = database.KindView
		default:
			continue
		}
		if filter.Matches(kind) {
			tables = append(tables, database.TableInfo{Schema: schema, Name: name, Kind: kind})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table rows: %w", err)
	}
	return tables, nil
}

func (h mysqlHandler) ListColumns(ctx context.Context, q database.Queryer, filter database.ColumnFilter) ([]database.ColumnInfo, error) {
	cond := database.NewConditions(database.QuestionMark).
		Equal("table_schema", filter.Schema).
		Equal("table_name", filter.Table)
	query := "SELECT column_name, data_type, column_type, character_maximum_length FROM information_schema.columns" +
		cond.Where() + " ORDER BY ordinal_position"

	rows, err := q.QueryContext(ctx, query, cond.Args()...)
	if err != nil {
		return nil, fmt.Errorf("error querying columns for table %s: %w", filter.Table, err)
	}
	defer rows.Close()

	var columns []database.ColumnInfo
	for rows.Next() {
		var name, dataType, columnType string
		var length sql.NullInt64
		if err := rows.Scan(&name, &dataType, &columnType, &length); err != nil {
			return nil, fmt.Errorf("error scanning column row: %w", err)
		}
		columns = append(columns, database.ColumnInfo{
			Name:     name,
			DataType: columnType,
			Code:     classify(dataType, columnType),
			Size:     int(min(length.Int64, int64(types.DefaultMaxTextLength))),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column rows: %w", err)
	}
	return columns, nil
}

// classify maps information_schema data_type/column_type to a type code.
func classify(dataType, columnType string) types.Code {
	columnType = strings.ToLower(columnType)
	switch strings.ToLower(dataType) {
	case "bit":
		return types.Bit
	case "tinyint":
		if strings.HasPrefix(columnType, "tinyint(1)") {
			return types.BooleanCode
		}
		return types.TinyInt
	case "smallint":
		return types.SmallInt
	case "mediumint", "int", "integer":
		return types.Integer
	case "bigint":
		if strings.Contains(columnType, "unsigned") {
			return types.Decimal
		}
		return types.BigInt
	case "float":
		return types.Real
	case "double":
		return types.Double
	case "decimal":
		return types.Decimal
	case "char", "enum", "set":
		return types.Char
	case "varchar":
		return types.VarChar
	case "tinytext", "text", "mediumtext", "longtext", "json":
		return types.LongVarChar
	case "binary":
		return types.BinaryCode
	case "varbinary":
		return types.VarBinary
	case "tinyblob", "blob", "mediumblob", "longblob":
		return types.LongVarBinary
	case "date", "year":
		return types.DateCode
	case "time":
		return types.TimeCode
	case "datetime", "timestamp":
		return types.TimestampCode
	}
	return types.Other
}

func init() {
	handler := mysqlHandler{}
	database.RegisterDialectHandler("mysql", handler)
	database.RegisterDialectHandler("cloudsqlmysql", handler)
}
