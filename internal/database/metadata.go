package database

import (
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/types"
)

// TableKind is the object type reported by table metadata.
type TableKind string

const (
	KindTable   TableKind = "TABLE"
	KindView    TableKind = "VIEW"
	KindSynonym TableKind = "SYNONYM"
)

// TableFilter narrows a table listing. Empty fields match everything; the
// values are compared exactly, so callers normalize case first.
type TableFilter struct {
	Catalog string
	Schema  string
	Table   string
	Kinds   []TableKind
}

// Matches reports whether kind is accepted by the filter.
func (f TableFilter) Matches(kind TableKind) bool {
	if len(f.Kinds) == 0 {
		return true
	}
	for _, k := range f.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// TableInfo is one row of table metadata.
type TableInfo struct {
	Catalog string
	Schema  string
	Name    string
	Kind    TableKind
}

// ColumnFilter selects the columns of one table.
type ColumnFilter struct {
	Catalog string
	Schema  string
	Table   string
	// IncludeSynonyms makes columns reachable through a synonym visible
	// when the table is owned by another schema.
	IncludeSynonyms bool
}

// ColumnInfo is one row of column metadata.
type ColumnInfo struct {
	Name string
	// DataType is the native type name as reported by the database.
	DataType string
	Code     types.Code
	// Size is the declared length or precision, 0 when not reported.
	Size int
}
