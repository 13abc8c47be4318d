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

// Package discovery enumerates schemas, tables and columns of the external
// database and presents them in the engine's naming convention.
package discovery

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/catalog"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/database"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/identifier"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/types"
)

// MetadataSource is the metadata capability of the external database.
// Each call acquires and releases its own connection.
type MetadataSource interface {
	StoresUpperCaseIdentifiers() bool
	ListSchemas(ctx context.Context) ([]string, error)
	ListTables(ctx context.Context, filter database.TableFilter) ([]database.TableInfo, error)
	ListColumns(ctx context.Context, filter database.ColumnFilter) ([]database.ColumnInfo, error)
}

var _ MetadataSource = (*database.DB)(nil)

// resolvableKinds are the object kinds a logical table name may refer to.
var resolvableKinds = []database.TableKind{database.KindTable, database.KindView, database.KindSynonym}

type Options struct {
	ConnectorID     string
	IncludeSynonyms bool
}

type Discovery struct {
	source          MetadataSource
	policy          identifier.Policy
	mapper          types.Mapper
	connectorID     string
	includeSynonyms bool
	logger          *zap.Logger
}

func New(source MetadataSource, policy identifier.Policy, mapper types.Mapper, opts Options, logger *zap.Logger) *Discovery {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discovery{
		source:          source,
		policy:          policy,
		mapper:          mapper,
		connectorID:     opts.ConnectorID,
		includeSynonyms: opts.IncludeSynonyms,
		logger:          logger,
	}
}

// ListSchemas returns the lower-cased names of all non-system schemas.
func (d *Discovery) ListSchemas(ctx context.Context) ([]string, error) {
	raw, err := d.source.ListSchemas(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing schemas: %w", err)
	}
	schemas := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, name := range raw {
		if d.policy.IsSystemNamespace(name) {
			continue
		}
		display := d.policy.NormalizeForDisplay(name)
		if _, dup := seen[display]; dup {
			continue
		}
		seen[display] = struct{}{}
		schemas = append(schemas, display)
	}
	d.logger.Debug("listed schemas", zap.Int("reported", len(raw)), zap.Int("visible", len(schemas)))
	return schemas, nil
}

// ListTables returns the tables of schema, or of every non-system schema
// when schema is empty.
func (d *Discovery) ListTables(ctx context.Context, schema string) ([]catalog.SchemaTableName, error) {
	filter := database.TableFilter{Kinds: resolvableKinds}
	if schema != "" {
		filter.Schema = d.policy.NormalizeForLookup(schema, d.source.StoresUpperCaseIdentifiers())
	}
	tables, err := d.source.ListTables(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing tables in schema %q: %w", schema, err)
	}

	names := make([]catalog.SchemaTableName, 0, len(tables))
	for _, t := range tables {
		if schema == "" && d.policy.IsSystemNamespace(t.Schema) {
			continue
		}
		names = append(names, catalog.NewSchemaTableName(t.Schema, t.Name))
	}
	return names, nil
}

// ResolveTable maps a logical name to exactly one physical table. It returns
// nil and no error when nothing matches.
func (d *Discovery) ResolveTable(ctx context.Context, name catalog.SchemaTableName) (*catalog.TableHandle, error) {
	schema, table := d.policy.NormalizeTableForLookup(name.Schema, name.Table, d.source.StoresUpperCaseIdentifiers())
	matches, err := d.source.ListTables(ctx, database.TableFilter{Schema: schema, Table: table, Kinds: resolvableKinds})
	if err != nil {
		return nil, fmt.Errorf("resolving table %s: %w", name, err)
	}

	switch len(matches) {
	case 0:
		d.logger.Debug("table not found", zap.Stringer("table", name))
		return nil, nil
	case 1:
		m := matches[0]
		return &catalog.TableHandle{
			ConnectorID:     d.connectorID,
			SchemaTableName: name,
			Catalog:         m.Catalog,
			Schema:          m.Schema,
			Table:           m.Name,
		}, nil
	}

	found := make([]string, 0, len(matches))
	for _, m := range matches {
		found = append(found, fmt.Sprintf("%s.%s (%s)", m.Schema, m.Name, m.Kind))
	}
	return nil, &catalog.ErrAmbiguousTable{Table: name, Matches: found}
}

// ListColumns returns the columns of handle that have a logical type, in the
// order the database reports them.
func (d *Discovery) ListColumns(ctx context.Context, handle catalog.TableHandle) ([]catalog.ColumnDescriptor, error) {
	schema, table := d.policy.NormalizeTableForLookup(handle.Schema, handle.Table, d.source.StoresUpperCaseIdentifiers())
	infos, err := d.source.ListColumns(ctx, database.ColumnFilter{
		Catalog:         handle.Catalog,
		Schema:          schema,
		Table:           table,
		IncludeSynonyms: d.includeSynonyms,
	})
	if err != nil {
		return nil, fmt.Errorf("listing columns of %s: %w", handle.SchemaTableName, err)
	}
	if len(infos) == 0 {
		return nil, &catalog.ErrTableNotFound{Table: handle.SchemaTableName}
	}

	columns := make([]catalog.ColumnDescriptor, 0, len(infos))
	for _, info := range infos {
		logical, ok := d.mapper.ToLogicalType(info.Code, info.Size)
		if !ok {
			d.logger.Info("skipping column with unsupported type",
				zap.String("schema", handle.Schema),
				zap.String("table", handle.Table),
				zap.String("column", info.Name),
				zap.String("type", info.DataType))
			continue
		}
		columns = append(columns, catalog.ColumnDescriptor{
			ConnectorID: d.connectorID,
			Name:        info.Name,
			Type:        logical,
		})
	}
	if len(columns) == 0 {
		return nil, &catalog.ErrNoSupportedColumns{Table: handle.SchemaTableName}
	}
	return columns, nil
}
