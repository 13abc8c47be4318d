package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/domain"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchemaTableNameLowerCases(t *testing.T) {
	n := NewSchemaTableName("HR", "Employees")
	assert.Equal(t, SchemaTableName{Schema: "hr", Table: "employees"}, n)
	assert.Equal(t, "hr.employees", n.String())
}

func TestParseSchemaTableName(t *testing.T) {
	tests := []struct {
		in      string
		want    SchemaTableName
		wantErr bool
	}{
		{"hr.employees", SchemaTableName{"hr", "employees"}, false},
		{" HR.EMPLOYEES ", SchemaTableName{"hr", "employees"}, false},
		{"employees", SchemaTableName{}, true},
		{".employees", SchemaTableName{}, true},
		{"hr.", SchemaTableName{}, true},
		{"a.b.c", SchemaTableName{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSchemaTableName(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTableHandleString(t *testing.T) {
	h := TableHandle{ConnectorID: "oracle", Schema: "HR", Table: "EMPLOYEES"}
	assert.Equal(t, "oracle:HR.EMPLOYEES", h.String())
}

func TestPredicateSetKeepsInsertionOrder(t *testing.T) {
	a := ColumnDescriptor{Name: "a", Type: types.BigintType}
	b := ColumnDescriptor{Name: "b", Type: types.VarcharType}
	c := ColumnDescriptor{Name: "c", Type: types.DateType}

	s := NewPredicateSet(
		ColumnPredicate{Column: b, Domain: domain.SingleValue("x")},
		ColumnPredicate{Column: a, Domain: domain.SingleValue(int64(1))},
	).With(c, domain.NotNull())

	var names []string
	for _, p := range s.Predicates() {
		names = append(names, p.Column.Name)
	}
	assert.Equal(t, []string{"b", "a", "c"}, names)
	assert.Equal(t, 3, s.Len())
}

func TestPredicateSetReplacesInPlace(t *testing.T) {
	a := ColumnDescriptor{Name: "a", Type: types.BigintType}
	b := ColumnDescriptor{Name: "b", Type: types.BigintType}

	s := NewPredicateSet(
		ColumnPredicate{Column: a, Domain: domain.SingleValue(int64(1))},
		ColumnPredicate{Column: b, Domain: domain.SingleValue(int64(2))},
	)
	replaced := s.With(a, domain.SingleValue(int64(9)))

	d, ok := replaced.Domain("a")
	require.True(t, ok)
	assert.Equal(t, int64(9), d.Ranges()[0].Low.Value)
	assert.Equal(t, "a", replaced.Predicates()[0].Column.Name)

	// the original set is unchanged
	d, _ = s.Domain("a")
	assert.Equal(t, int64(1), d.Ranges()[0].Low.Value)

	_, ok = s.Domain("missing")
	assert.False(t, ok)
}

func TestErrorsCarryIdentity(t *testing.T) {
	name := NewSchemaTableName("hr", "employees")

	assert.Contains(t, (&ErrTableNotFound{Table: name}).Error(), "hr.employees")
	assert.Contains(t, (&ErrNoSupportedColumns{Table: name}).Error(), "hr.employees")
	assert.Contains(t, (&ErrAmbiguousTable{Table: name, Matches: []string{"HR.EMPLOYEES", "APP.EMPLOYEES"}}).Error(), "APP.EMPLOYEES")

	_, parseErr := strconv.ParseInt("12x", 10, 64)
	cv := &ErrContractViolation{Column: "salary", Type: "bigint", Value: "12x", Err: parseErr}
	assert.Contains(t, cv.Error(), "salary")
	assert.ErrorIs(t, cv, strconv.ErrSyntax)
}

func TestErrDatabaseConnectionUnwraps(t *testing.T) {
	cause := errors.New("ORA-12541: TNS:no listener")
	err := fmt.Errorf("listing schemas: %w", &ErrDatabaseConnection{Msg: "metadata query failed", Err: cause})

	var connErr *ErrDatabaseConnection
	require.True(t, errors.As(err, &connErr))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "ORA-12541")
}
