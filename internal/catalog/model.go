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

// Package catalog holds the engine-facing catalog model of the connector:
// logical table names, resolved table handles, column descriptors, pushdown
// predicates and the error kinds callers branch on.
package catalog

import (
	"fmt"
	"strings"

	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/domain"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/types"
)

// SchemaTableName is the lower-case logical name the engine uses for a table.
type SchemaTableName struct {
	Schema string
	Table  string
}

// NewSchemaTableName lower-cases both parts.
func NewSchemaTableName(schema, table string) SchemaTableName {
	return SchemaTableName{Schema: strings.ToLower(schema), Table: strings.ToLower(table)}
}

// ParseSchemaTableName splits "schema.table".
func ParseSchemaTableName(name string) (SchemaTableName, error) {
	schema, table, ok := strings.Cut(strings.TrimSpace(name), ".")
	if !ok || schema == "" || table == "" || strings.Contains(table, ".") {
		return SchemaTableName{}, fmt.Errorf("invalid table name %q, expected <schema>.<table>", name)
	}
	return NewSchemaTableName(schema, table), nil
}

func (n SchemaTableName) String() string {
	return n.Schema + "." + n.Table
}

// TableHandle is one resolved physical table. Catalog, Schema and Table are
// the physical identifiers reported by the external database.
type TableHandle struct {
	ConnectorID     string
	SchemaTableName SchemaTableName
	Catalog         string
	Schema          string
	Table           string
}

func (h TableHandle) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{h.Catalog, h.Schema, h.Table} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return fmt.Sprintf("%s:%s", h.ConnectorID, strings.Join(parts, "."))
}

// ColumnDescriptor is a column exposed to the engine.
type ColumnDescriptor struct {
	ConnectorID string
	Name        string
	Type        types.LogicalType
}

// ColumnPredicate constrains one column.
type ColumnPredicate struct {
	Column ColumnDescriptor
	Domain domain.Domain
}

// PredicateSet is a conjunction of per-column domains. Iteration follows
// insertion order.
type PredicateSet struct {
	predicates []ColumnPredicate
}

// NewPredicateSet builds a set. A later predicate for the same column name
// replaces the earlier one in place.
func NewPredicateSet(predicates ...ColumnPredicate) PredicateSet {
	var s PredicateSet
	for _, p := range predicates {
		s = s.With(p.Column, p.Domain)
	}
	return s
}

// With returns a copy of s with column constrained to d.
func (s PredicateSet) With(column ColumnDescriptor, d domain.Domain) PredicateSet {
	out := PredicateSet{predicates: make([]ColumnPredicate, 0, len(s.predicates)+1)}
	replaced := false
	for _, p := range s.predicates {
		if p.Column.Name == column.Name {
			out.predicates = append(out.predicates, ColumnPredicate{Column: column, Domain: d})
			replaced = true
			continue
		}
		out.predicates = append(out.predicates, p)
	}
	if !replaced {
		out.predicates = append(out.predicates, ColumnPredicate{Column: column, Domain: d})
	}
	return out
}

func (s PredicateSet) Predicates() []ColumnPredicate {
	return append([]ColumnPredicate(nil), s.predicates...)
}

func (s PredicateSet) Len() int {
	return len(s.predicates)
}

// Domain returns the domain for the named column, if any.
func (s PredicateSet) Domain(column string) (domain.Domain, bool) {
	for _, p := range s.predicates {
		if p.Column.Name == column {
			return p.Domain, true
		}
	}
	return domain.Domain{}, false
}
