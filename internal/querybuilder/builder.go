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

// Package querybuilder renders the SELECT statement for one split.
package querybuilder

import (
	"fmt"
	"strings"

	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/catalog"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/identifier"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/predicate"
)

type Builder struct {
	compiler *predicate.Compiler
	quoter   identifier.Quoter
}

func New(compiler *predicate.Compiler, quoter identifier.Quoter) *Builder {
	return &Builder{compiler: compiler, quoter: quoter}
}

// BuildSQL returns the scan statement for table. With no projected columns
// the statement selects NULL so that only the row count is observable.
func (b *Builder) BuildSQL(table catalog.TableHandle, columns []catalog.ColumnDescriptor, predicates catalog.PredicateSet) (string, error) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if len(columns) == 0 {
		sb.WriteString("NULL")
	}
	for i, col := range columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(b.quoter.Quote(col.Name))
	}

	sb.WriteString(" FROM ")
	sb.WriteString(b.quoter.QualifiedName(table.Catalog, table.Schema, table.Table))

	var conjuncts []string
	for _, p := range predicates.Predicates() {
		fragment, ok, err := b.compiler.Compile(p.Column.Name, p.Domain, p.Column.Type)
		if err != nil {
			return "", fmt.Errorf("building query for %s: %w", table.SchemaTableName, err)
		}
		if ok {
			conjuncts = append(conjuncts, fragment)
		}
	}
	if len(conjuncts) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conjuncts, " AND "))
	}
	return sb.String(), nil
}
