package predicate

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/catalog"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/domain"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/identifier"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// toTimestampDialect renders timestamps the way Oracle does.
type toTimestampDialect struct {
	StandardLiterals
}

func (toTimestampDialect) TimestampLiteral(t time.Time) string {
	return "TO_TIMESTAMP(" + QuoteString(t.Format(TimestampLayout)) + ", 'yyyy-mm-dd hh24:mi:ss')"
}

func newTestCompiler() *Compiler {
	return NewCompiler(toTimestampDialect{}, identifier.Quoter{Char: `"`})
}

func TestCompile(t *testing.T) {
	c := newTestCompiler()

	tests := []struct {
		name   string
		column string
		domain domain.Domain
		typ    types.LogicalType
		want   string
	}{
		{
			name:   "Two discrete days",
			column: "hire_date",
			domain: domain.MultipleValues(int64(0), int64(1)),
			typ:    types.DateType,
			want:   `("hire_date" = '1970-01-01' OR "hire_date" = '1970-01-02')`,
		},
		{
			name:   "Negative day offset",
			column: "d",
			domain: domain.SingleValue(int64(-1)),
			typ:    types.DateType,
			want:   `"d" = '1969-12-31'`,
		},
		{
			name:   "Timestamp at epoch",
			column: "created",
			domain: domain.SingleValue(int64(0)),
			typ:    types.TimestampType,
			want:   `"created" = TO_TIMESTAMP('1970-01-01 00:00:00', 'yyyy-mm-dd hh24:mi:ss')`,
		},
		{
			name:   "Timestamp drops milliseconds",
			column: "created",
			domain: domain.SingleValue(int64(1_500)),
			typ:    types.TimestampType,
			want:   `"created" = TO_TIMESTAMP('1970-01-01 00:00:01', 'yyyy-mm-dd hh24:mi:ss')`,
		},
		{
			name:   "Text value",
			column: "company",
			domain: domain.SingleValue("ACME"),
			typ:    types.BoundedVarchar(20),
			want:   `"company" = 'ACME'`,
		},
		{
			name:   "Text value with quote",
			column: "last_name",
			domain: domain.SingleValue("O'Brien"),
			typ:    types.VarcharType,
			want:   `"last_name" = 'O''Brien'`,
		},
		{
			name:   "Bounded range",
			column: "id",
			domain: domain.Union(false, domain.Between(int64(1), false, int64(10), true)),
			typ:    types.BigintType,
			want:   `("id" > 1 AND "id" <= 10)`,
		},
		{
			name:   "Half open range with nulls",
			column: "id",
			domain: domain.Union(true, domain.GreaterThanOrEqual(int64(5))),
			typ:    types.BigintType,
			want:   `("id" >= 5 OR "id" IS NULL)`,
		},
		{
			name:   "Ranges and values",
			column: "salary",
			domain: domain.Union(false, domain.LessThan(1000.5), domain.Equal(2500.0), domain.GreaterThan("9000")),
			typ:    types.DoubleType,
			want:   `("salary" < 1000.5 OR "salary" = 2500 OR "salary" > 9000)`,
		},
		{
			name:   "Text range",
			column: "name",
			domain: domain.Union(false, domain.Between("A", true, "M", false)),
			typ:    types.VarcharType,
			want:   `("name" >= 'A' AND "name" < 'M')`,
		},
		{
			name:   "Boolean",
			column: "active",
			domain: domain.SingleValue(true),
			typ:    types.BooleanType,
			want:   `"active" = true`,
		},
		{
			name:   "Numeric text for bigint",
			column: "id",
			domain: domain.SingleValue("42"),
			typ:    types.BigintType,
			want:   `"id" = 42`,
		},
		{
			name:   "Only null",
			column: "manager_id",
			domain: domain.OnlyNull(),
			typ:    types.BigintType,
			want:   `"manager_id" IS NULL`,
		},
		{
			name:   "Not null",
			column: "manager_id",
			domain: domain.NotNull(),
			typ:    types.BigintType,
			want:   `"manager_id" IS NOT NULL`,
		},
		{
			name:   "No values",
			column: "manager_id",
			domain: domain.None(false),
			typ:    types.BigintType,
			want:   `1 = 0`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := c.Compile(tt.column, tt.domain, tt.typ)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompileOmits(t *testing.T) {
	c := newTestCompiler()

	tests := []struct {
		name   string
		domain domain.Domain
		typ    types.LogicalType
	}{
		{"Unconstrained", domain.All(true), types.BigintType},
		{"Binary column", domain.SingleValue("abc"), types.VarbinaryType},
		{"Time column", domain.SingleValue(int64(0)), types.TimeType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := c.Compile("col", tt.domain, tt.typ)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Empty(t, got)
		})
	}
}

func TestCompileContractViolations(t *testing.T) {
	c := newTestCompiler()

	tests := []struct {
		name   string
		domain domain.Domain
		typ    types.LogicalType
	}{
		{"Malformed integer text", domain.SingleValue("12x"), types.BigintType},
		{"Malformed float text", domain.Union(false, domain.GreaterThan("1.2.3")), types.DoubleType},
		{"Non-finite float", domain.SingleValue(math.Inf(1)), types.DoubleType},
		{"Wrong Go type for text", domain.SingleValue(int64(5)), types.VarcharType},
		{"Malformed date", domain.SingleValue("yesterday"), types.DateType},
		{"Malformed timestamp", domain.Union(false, domain.LessThan(1.5)), types.TimestampType},
		{"Malformed boolean", domain.SingleValue("maybe"), types.BooleanType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := c.Compile("col", tt.domain, tt.typ)
			require.Error(t, err)
			var cv *catalog.ErrContractViolation
			require.True(t, errors.As(err, &cv))
			assert.Equal(t, "col", cv.Column)
		})
	}
}

func TestCompileWithoutQuoting(t *testing.T) {
	c := NewCompiler(StandardLiterals{}, identifier.Quoter{})

	got, ok, err := c.Compile("ID", domain.SingleValue(int64(7)), types.BigintType)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ID = 7", got)

	got, _, err = c.Compile("TS", domain.SingleValue(int64(86_400_000)), types.TimestampType)
	require.NoError(t, err)
	assert.Equal(t, "TS = TIMESTAMP '1970-01-02 00:00:00'", got)
}

func TestPushable(t *testing.T) {
	for _, typ := range []types.LogicalType{types.BigintType, types.DoubleType, types.BooleanType, types.VarcharType, types.DateType, types.TimestampType} {
		assert.True(t, Pushable(typ), typ.String())
	}
	assert.False(t, Pushable(types.VarbinaryType))
	assert.False(t, Pushable(types.TimeType))
}

func TestQuoteString(t *testing.T) {
	assert.Equal(t, "''", QuoteString(""))
	assert.Equal(t, "'it''s'", QuoteString("it's"))
}
