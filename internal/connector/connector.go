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

// Package connector exposes discovery and query building to the host engine.
package connector

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/catalog"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/config"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/database"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/discovery"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/identifier"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/predicate"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/querybuilder"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/types"
)

// SplitConnectionInfo is what a worker needs to open its own connection.
type SplitConnectionInfo struct {
	URL        string
	Properties database.Properties
}

// Split is one unit of scan work handed to a worker.
type Split struct {
	ConnectionInfo SplitConnectionInfo
	Table          catalog.TableHandle
	Predicates     catalog.PredicateSet
}

type Connector struct {
	cfg       config.Config
	handler   database.DialectHandler
	mapper    types.Mapper
	discovery *discovery.Discovery
	builder   *querybuilder.Builder
	logger    *zap.Logger
}

// New wires the components for the dialect of db. The connector does not
// take ownership of db.
func New(cfg config.Config, db *database.DB, logger *zap.Logger) (*Connector, error) {
	if db == nil || db.Handler == nil {
		return nil, fmt.Errorf("connector %s: database is not initialized", cfg.ConnectorID)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := db.Handler

	policy := identifier.NewPolicy(handler.SystemNamespaces(), cfg.ExcludedSchemas)

	var namer types.PhysicalTypeNamer
	if n, ok := handler.(types.PhysicalTypeNamer); ok {
		namer = n
	}
	mapper := types.NewStandardMapper(namer)

	quote := handler.DefaultIdentifierQuote()
	if cfg.IdentifierQuote != nil {
		quote = *cfg.IdentifierQuote
	}
	quoter := identifier.Quoter{Char: quote}

	disc := discovery.New(db, policy, mapper, discovery.Options{
		ConnectorID:     cfg.ConnectorID,
		IncludeSynonyms: cfg.IncludeSynonyms,
	}, logger.Named("discovery"))

	logger.Debug("connector initialized",
		zap.String("connector_id", cfg.ConnectorID),
		zap.String("dialect", cfg.Dialect),
		zap.String("identifier_quote", quote),
		zap.Strings("excluded_schemas", policy.ExcludedNamespaces()))

	return &Connector{
		cfg:       cfg,
		handler:   handler,
		mapper:    mapper,
		discovery: disc,
		builder:   querybuilder.New(predicate.NewCompiler(handler, quoter), quoter),
		logger:    logger,
	}, nil
}

func (c *Connector) ID() string {
	return c.cfg.ConnectorID
}

func (c *Connector) ListSchemas(ctx context.Context) ([]string, error) {
	return c.discovery.ListSchemas(ctx)
}

// ListTables lists one schema, or every visible schema when schema is empty.
func (c *Connector) ListTables(ctx context.Context, schema string) ([]catalog.SchemaTableName, error) {
	return c.discovery.ListTables(ctx, schema)
}

// ResolveTable returns nil without error when the table does not exist.
func (c *Connector) ResolveTable(ctx context.Context, name catalog.SchemaTableName) (*catalog.TableHandle, error) {
	return c.discovery.ResolveTable(ctx, name)
}

func (c *Connector) ListColumns(ctx context.Context, handle catalog.TableHandle) ([]catalog.ColumnDescriptor, error) {
	return c.discovery.ListColumns(ctx, handle)
}

func (c *Connector) BuildSQL(handle catalog.TableHandle, columns []catalog.ColumnDescriptor, predicates catalog.PredicateSet) (string, error) {
	return c.builder.BuildSQL(handle, columns, predicates)
}

// ToPhysicalType names the external column type a logical type would be
// stored as. It is informational only.
func (c *Connector) ToPhysicalType(t types.LogicalType) string {
	return c.mapper.ToPhysicalType(t)
}

// Split returns the single split covering handle.
func (c *Connector) Split(handle catalog.TableHandle, predicates catalog.PredicateSet) Split {
	return Split{
		ConnectionInfo: SplitConnectionInfo{
			URL:        c.cfg.ConnectionURL,
			Properties: database.PropertiesFromConfig(c.cfg),
		},
		Table:      handle,
		Predicates: predicates,
	}
}

// OpenConnection opens a read-only connection for a split. The configured
// fetch size is applied when the split does not carry one.
func (c *Connector) OpenConnection(ctx context.Context, info SplitConnectionInfo) (*database.Connection, error) {
	props := info.Properties.Clone()
	if _, ok := props[database.PropRowPrefetch]; !ok {
		fetchSize := c.cfg.FetchSize
		if fetchSize <= 0 {
			fetchSize = config.DefaultFetchSize
		}
		props[database.PropRowPrefetch] = strconv.Itoa(fetchSize)
	}

	conn, err := database.OpenReadOnly(ctx, c.handler, c.cfg.Dialect, info.URL, props)
	if err != nil {
		return nil, fmt.Errorf("connector %s: %w", c.cfg.ConnectorID, err)
	}
	c.logger.Debug("opened split connection", zap.Int("fetch_size", props.FetchSize()))
	return conn, nil
}
