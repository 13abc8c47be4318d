package oracle

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/database"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/types"
)

func newMockOracle(t *testing.T) (*sql.DB, sqlmock.Sqlmock, oracleHandler) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { mockDb.Close() })
	return mockDb, mock, oracleHandler{}
}

func TestOracleRegistered(t *testing.T) {
	handler, err := database.GetDialectHandler("oracle")
	if err != nil {
		t.Fatalf("oracle handler not registered: %v", err)
	}
	if !handler.StoresUpperCaseIdentifiers() {
		t.Errorf("oracle should store upper case identifiers")
	}
	if got := handler.DefaultIdentifierQuote(); got != `"` {
		t.Errorf("DefaultIdentifierQuote() = %q", got)
	}
}

func TestOracleSystemNamespaces(t *testing.T) {
	got := oracleHandler{}.SystemNamespaces()
	want := map[string]bool{"SYS": true, "SYSTEM": true, "XS$NULL": true, "PUBLIC": true, "ODMRSYS": true}
	found := 0
	for _, s := range got {
		if want[s] {
			found++
		}
	}
	if found != len(want) || len(got) != 9 {
		t.Errorf("SystemNamespaces() = %v", got)
	}

	got[0] = "CHANGED"
	if (oracleHandler{}).SystemNamespaces()[0] != "SYS" {
		t.Errorf("SystemNamespaces() must return a copy")
	}
}

func TestOracleLiterals(t *testing.T) {
	h := oracleHandler{}
	ts := time.Date(2024, 3, 9, 17, 4, 5, 0, time.UTC)

	if got, want := h.TimestampLiteral(ts), "TO_TIMESTAMP('2024-03-09 17:04:05', 'yyyy-mm-dd hh24:mi:ss')"; got != want {
		t.Errorf("TimestampLiteral() = %s, want %s", got, want)
	}
	if got, want := h.DateLiteral(ts), "DATE '2024-03-09'"; got != want {
		t.Errorf("DateLiteral() = %s, want %s", got, want)
	}
	if got, want := h.StringLiteral("it's"), "'it''s'"; got != want {
		t.Errorf("StringLiteral() = %s, want %s", got, want)
	}
	if h.BooleanLiteral(true) != "1" || h.BooleanLiteral(false) != "0" {
		t.Errorf("BooleanLiteral() must render 1/0")
	}
}

func TestBuildConnectionURL(t *testing.T) {
	props := database.Properties{
		database.PropUser:        "scott",
		database.PropPassword:    "tiger",
		database.PropRowPrefetch: "500",
	}

	tests := []struct {
		name        string
		in          string
		wantHost    string
		wantPath    string
		wantUser    string
		wantOptions map[string]string
		wantErr     bool
	}{
		{
			name:        "Full url",
			in:          "oracle://db.example.com:1522/ORCLPDB1",
			wantHost:    "db.example.com:1522",
			wantPath:    "/ORCLPDB1",
			wantUser:    "scott",
			wantOptions: map[string]string{"PREFETCH_ROWS": "500"},
		},
		{
			name:        "Default port and kept options",
			in:          "db.example.com/ORCL?ssl=true",
			wantHost:    "db.example.com:1521",
			wantPath:    "/ORCL",
			wantUser:    "scott",
			wantOptions: map[string]string{"PREFETCH_ROWS": "500", "SSL": "true"},
		},
		{name: "Wrong scheme", in: "postgres://db/ORCL", wantErr: true},
		{name: "No host", in: "oracle:///ORCL", wantErr: true},
		{name: "Bad port", in: "oracle://db:port/ORCL", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildConnectionURL(tt.in, props)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("BuildConnectionURL(%q) expected error, got %s", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildConnectionURL(%q) unexpected error: %v", tt.in, err)
			}
			u, err := url.Parse(got)
			if err != nil {
				t.Fatalf("result %q is not a url: %v", got, err)
			}
			if u.Host != tt.wantHost || u.Path != tt.wantPath || u.User.Username() != tt.wantUser {
				t.Errorf("BuildConnectionURL(%q) = %s", tt.in, got)
			}
			if pw, _ := u.User.Password(); pw != "tiger" {
				t.Errorf("password not carried: %s", got)
			}
			for k, v := range tt.wantOptions {
				if u.Query().Get(k) != v {
					t.Errorf("option %s = %q, want %q (url %s)", k, u.Query().Get(k), v, got)
				}
			}
		})
	}
}

func TestOracleListSchemas(t *testing.T) {
	db, mock, handler := newMockOracle(t)
	ctx := context.Background()
	query := regexp.QuoteMeta("SELECT username FROM all_users ORDER BY username")

	mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows([]string{"username"}).AddRow("HR").AddRow("SYS"))
	schemas, err := handler.ListSchemas(ctx, db)
	if err != nil {
		t.Fatalf("ListSchemas() unexpected error: %v", err)
	}
	if len(schemas) != 2 || schemas[0] != "HR" {
		t.Errorf("ListSchemas() = %v", schemas)
	}

	dbError := errors.New("ORA-12541: TNS:no listener")
	mock.ExpectQuery(query).WillReturnError(dbError)
	if _, err := handler.ListSchemas(ctx, db); !errors.Is(err, dbError) {
		t.Errorf("ListSchemas() error = %v, want %v", err, dbError)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestOracleListTables(t *testing.T) {
	db, mock, handler := newMockOracle(t)
	ctx := context.Background()

	t.Run("Filtered by owner and name", func(t *testing.T) {
		query := regexp.QuoteMeta(`SELECT owner, object_name, object_type FROM all_objects WHERE object_type IN ('TABLE', 'VIEW', 'SYNONYM') AND owner = :1 AND object_name = :2 ORDER BY owner, object_name`)
		rows := sqlmock.NewRows([]string{"owner", "object_name", "object_type"}).
			AddRow("HR", "EMPLOYEES", "TABLE").
			AddRow("HR", "EMPLOYEES", "SYNONYM")
		mock.ExpectQuery(query).WithArgs("HR", "EMPLOYEES").WillReturnRows(rows)

		tables, err := handler.ListTables(ctx, db, database.TableFilter{
			Schema: "HR",
			Table:  "EMPLOYEES",
			Kinds:  []database.TableKind{database.KindTable, database.KindView},
		})
		if err != nil {
			t.Fatalf("ListTables() unexpected error: %v", err)
		}
		want := database.TableInfo{Schema: "HR", Name: "EMPLOYEES", Kind: database.KindTable}
		if len(tables) != 1 || tables[0] != want {
			t.Errorf("ListTables() = %v, want [%v]", tables, want)
		}
	})

	t.Run("Unfiltered", func(t *testing.T) {
		query := regexp.QuoteMeta(`FROM all_objects WHERE object_type IN ('TABLE', 'VIEW', 'SYNONYM') ORDER BY owner, object_name`)
		rows := sqlmock.NewRows([]string{"owner", "object_name", "object_type"}).
			AddRow("HR", "DEPARTMENTS", "TABLE").
			AddRow("HR", "EMP_DETAILS_VIEW", "VIEW")
		mock.ExpectQuery(query).WillReturnRows(rows)

		tables, err := handler.ListTables(ctx, db, database.TableFilter{})
		if err != nil {
			t.Fatalf("ListTables() unexpected error: %v", err)
		}
		if len(tables) != 2 || tables[1].Kind != database.KindView {
			t.Errorf("ListTables() = %v", tables)
		}
	})

	t.Run("Scan Error", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"owner", "object_name", "object_type"}).AddRow("HR", nil, "TABLE")
		mock.ExpectQuery("all_objects").WillReturnRows(rows)
		if _, err := handler.ListTables(ctx, db, database.TableFilter{}); err == nil {
			t.Fatalf("ListTables() expected scan error, got nil")
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

var columnRowNames = []string{"column_name", "data_type", "data_length", "char_length", "data_precision", "data_scale", "column_id"}

func TestOracleListColumns(t *testing.T) {
	db, mock, handler := newMockOracle(t)
	ctx := context.Background()

	t.Run("With synonyms", func(t *testing.T) {
		query := regexp.QuoteMeta(`FROM all_tab_columns WHERE owner = :1 AND table_name = :2 UNION ALL SELECT c.column_name`) +
			".*" + regexp.QuoteMeta(`WHERE s.owner = :3 AND s.synonym_name = :4 ORDER BY 7`)
		rows := sqlmock.NewRows(columnRowNames).
			AddRow("EMPLOYEE_ID", "NUMBER", 22, nil, 6, 0, 1).
			AddRow("LAST_NAME", "VARCHAR2", 100, 25, nil, nil, 2).
			AddRow("SALARY", "NUMBER", 22, nil, 8, 2, 3).
			AddRow("HIRE_DATE", "DATE", 7, nil, nil, nil, 4).
			AddRow("UPDATED", "TIMESTAMP(6) WITH TIME ZONE", 13, nil, nil, 6, 5).
			AddRow("PHOTO", "BLOB", 4000, nil, nil, nil, 6).
			AddRow("ADDRESS", "ADDRESS_T", 1, nil, nil, nil, 7)
		mock.ExpectQuery(query).WithArgs("HR", "EMPLOYEES", "HR", "EMPLOYEES").WillReturnRows(rows)

		columns, err := handler.ListColumns(ctx, db, database.ColumnFilter{Schema: "HR", Table: "EMPLOYEES", IncludeSynonyms: true})
		if err != nil {
			t.Fatalf("ListColumns() unexpected error: %v", err)
		}
		want := []database.ColumnInfo{
			{Name: "EMPLOYEE_ID", DataType: "NUMBER", Code: types.BigInt, Size: 6},
			{Name: "LAST_NAME", DataType: "VARCHAR2", Code: types.VarChar, Size: 25},
			{Name: "SALARY", DataType: "NUMBER", Code: types.Numeric, Size: 8},
			{Name: "HIRE_DATE", DataType: "DATE", Code: types.TimestampCode},
			{Name: "UPDATED", DataType: "TIMESTAMP(6) WITH TIME ZONE", Code: types.Unsupported},
			{Name: "PHOTO", DataType: "BLOB", Code: types.Blob},
			{Name: "ADDRESS", DataType: "ADDRESS_T", Code: types.Other},
		}
		if len(columns) != len(want) {
			t.Fatalf("ListColumns() returned %d columns, want %d", len(columns), len(want))
		}
		for i := range want {
			if columns[i] != want[i] {
				t.Errorf("column %d = %+v, want %+v", i, columns[i], want[i])
			}
		}
	})

	t.Run("Without synonyms", func(t *testing.T) {
		query := regexp.QuoteMeta(`SELECT column_name, data_type, data_length, char_length, data_precision, data_scale, column_id FROM all_tab_columns WHERE owner = :1 AND table_name = :2 ORDER BY 7`)
		mock.ExpectQuery(query).WithArgs("HR", "JOBS").WillReturnRows(sqlmock.NewRows(columnRowNames))

		columns, err := handler.ListColumns(ctx, db, database.ColumnFilter{Schema: "HR", Table: "JOBS"})
		if err != nil {
			t.Fatalf("ListColumns() unexpected error: %v", err)
		}
		if len(columns) != 0 {
			t.Errorf("ListColumns() = %v, want none", columns)
		}
	})

	t.Run("Query Error", func(t *testing.T) {
		dbError := errors.New("ORA-00942: table or view does not exist")
		mock.ExpectQuery("all_tab_columns").WillReturnError(dbError)
		if _, err := handler.ListColumns(ctx, db, database.ColumnFilter{Table: "X"}); !errors.Is(err, dbError) {
			t.Errorf("ListColumns() error = %v, want %v", err, dbError)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestClassify(t *testing.T) {
	null := sql.NullInt64{}
	n := func(v int64) sql.NullInt64 { return sql.NullInt64{Int64: v, Valid: true} }

	tests := []struct {
		dataType  string
		length    int64
		char      sql.NullInt64
		precision sql.NullInt64
		scale     sql.NullInt64
		wantCode  types.Code
		wantSize  int
	}{
		{"NUMBER", 22, null, n(1), n(0), types.BigInt, 1},
		{"NUMBER", 22, null, n(19), n(0), types.Numeric, 19},
		{"NUMBER", 22, null, null, null, types.Numeric, 0},
		{"FLOAT", 22, null, n(126), null, types.Float, 126},
		{"BINARY_FLOAT", 4, null, null, null, types.Real, 0},
		{"BINARY_DOUBLE", 8, null, null, null, types.Double, 0},
		{"CHAR", 10, n(10), null, null, types.Char, 10},
		{"NCHAR", 20, n(10), null, null, types.NChar, 10},
		{"NVARCHAR2", 200, n(100), null, null, types.NVarChar, 100},
		{"VARCHAR2", 30, null, null, null, types.VarChar, 30},
		{"LONG", 0, null, null, null, types.LongVarChar, 0},
		{"RAW", 16, null, null, null, types.VarBinary, 16},
		{"LONG RAW", 0, null, null, null, types.LongVarBinary, 0},
		{"CLOB", 4000, null, null, null, types.Clob, 0},
		{"NCLOB", 4000, null, null, null, types.NClob, 0},
		{"TIMESTAMP(3)", 11, null, null, n(3), types.TimestampCode, 0},
		{"TIMESTAMP(6) WITH LOCAL TIME ZONE", 11, null, null, n(6), types.Unsupported, 0},
		{"INTERVAL DAY(2) TO SECOND(6)", 11, null, null, null, types.Unsupported, 0},
		{"ROWID", 10, null, null, null, types.Unsupported, 0},
		{"SDO_GEOMETRY", 1, null, null, null, types.Other, 0},
	}
	for _, tt := range tests {
		t.Run(tt.dataType, func(t *testing.T) {
			code, size := classify(tt.dataType, tt.length, tt.char, tt.precision, tt.scale)
			if code != tt.wantCode || size != tt.wantSize {
				t.Errorf("classify(%s) = (%v, %d), want (%v, %d)", tt.dataType, code, size, tt.wantCode, tt.wantSize)
			}
		})
	}
}

func TestOraclePhysicalTypeName(t *testing.T) {
	h := oracleHandler{}
	tests := []struct {
		in   types.LogicalType
		want string
	}{
		{types.BooleanType, "NUMBER(1)"},
		{types.BigintType, "NUMBER(19)"},
		{types.DoubleType, "BINARY_DOUBLE"},
		{types.BoundedVarchar(25), "VARCHAR2(25 CHAR)"},
		{types.VarcharType, "CLOB"},
		{types.VarbinaryType, "BLOB"},
		{types.DateType, "DATE"},
		{types.TimestampType, "TIMESTAMP"},
	}
	for _, tt := range tests {
		if got, ok := h.PhysicalTypeName(tt.in); !ok || got != tt.want {
			t.Errorf("PhysicalTypeName(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if _, ok := h.PhysicalTypeName(types.TimeType); ok {
		t.Errorf("PhysicalTypeName(time) should fall back to the generic name")
	}
}

func TestOracleBeginReadOnly(t *testing.T) {
	db, mock, handler := newMockOracle(t)
	ctx := context.Background()

	conn, err := db.Conn(ctx)
	if err != nil {
		t.Fatalf("Conn() unexpected error: %v", err)
	}
	defer conn.Close()

	t.Run("Split query runs in the read-only transaction", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("SET TRANSACTION READ ONLY")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT "ID" FROM "HR"."EMPLOYEES"`)).
			WillReturnRows(sqlmock.NewRows([]string{"ID"}).AddRow(1))
		mock.ExpectRollback()

		tx, err := handler.BeginReadOnly(ctx, conn)
		if err != nil {
			t.Fatalf("BeginReadOnly() unexpected error: %v", err)
		}
		rows, err := tx.QueryContext(ctx, `SELECT "ID" FROM "HR"."EMPLOYEES"`)
		if err != nil {
			t.Fatalf("QueryContext() unexpected error: %v", err)
		}
		rows.Close()
		if err := tx.Rollback(); err != nil {
			t.Errorf("Rollback() unexpected error: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("Failed SET rolls back", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("SET TRANSACTION READ ONLY")).WillReturnError(errors.New("ORA-01453"))
		mock.ExpectRollback()

		if _, err := handler.BeginReadOnly(ctx, conn); err == nil {
			t.Errorf("BeginReadOnly() expected error")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})
}

func TestOracleCloudSQLUnsupported(t *testing.T) {
	if _, err := (oracleHandler{}).CreateCloudSQLPool("p:r:i", nil); err == nil {
		t.Errorf("CreateCloudSQLPool() expected error")
	}
}
