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

// Package describer resolves several tables at once, the way a host engine
// plans a multi-table query.
package describer

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/catalog"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/types"
)

// TableCatalog is the part of the connector the describer uses.
type TableCatalog interface {
	ResolveTable(ctx context.Context, name catalog.SchemaTableName) (*catalog.TableHandle, error)
	ListColumns(ctx context.Context, handle catalog.TableHandle) ([]catalog.ColumnDescriptor, error)
	ToPhysicalType(t types.LogicalType) string
}

type Service struct {
	catalog TableCatalog
	logger  *zap.Logger
}

func NewService(c TableCatalog, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{catalog: c, logger: logger}
}

// TableDescription is one resolved table and its exposed columns.
type TableDescription struct {
	Handle  catalog.TableHandle
	Columns []catalog.ColumnDescriptor
}

// Describe resolves every table in tableFilters concurrently. A nil column
// list keeps all columns; otherwise only the listed ones, in that order.
// Results are sorted by table name. All failures are reported together.
func (s *Service) Describe(ctx context.Context, tableFilters map[catalog.SchemaTableName][]string) ([]TableDescription, error) {
	startTime := time.Now()

	var (
		descriptions []TableDescription
		wg           sync.WaitGroup
		mu           sync.Mutex
	)
	errorChannel := make(chan error, len(tableFilters))

	for name, projection := range tableFilters {
		wg.Add(1)
		go func(name catalog.SchemaTableName, projection []string) {
			defer wg.Done()
			desc, err := s.describeTable(ctx, name, projection)
			if err != nil {
				errorChannel <- err
				return
			}
			mu.Lock()
			descriptions = append(descriptions, desc)
			mu.Unlock()
		}(name, projection)
	}

	wg.Wait()
	close(errorChannel)

	var allErrors []error
	for err := range errorChannel {
		allErrors = append(allErrors, err)
	}
	if len(allErrors) > 0 {
		errorMessages := make([]string, len(allErrors))
		for i, e := range allErrors {
			errorMessages[i] = e.Error()
		}
		sort.Strings(errorMessages)
		if len(allErrors) == 1 {
			return nil, allErrors[0]
		}
		return nil, fmt.Errorf("encountered %d error(s) while describing tables:\n- %s",
			len(allErrors), strings.Join(errorMessages, "\n- "))
	}

	sort.Slice(descriptions, func(i, j int) bool {
		return descriptions[i].Handle.SchemaTableName.String() < descriptions[j].Handle.SchemaTableName.String()
	})

	s.logger.Debug("described tables", zap.Int("tables", len(descriptions)), zap.Duration("elapsed", time.Since(startTime)))
	return descriptions, nil
}

func (s *Service) describeTable(ctx context.Context, name catalog.SchemaTableName, projection []string) (TableDescription, error) {
	handle, err := s.catalog.ResolveTable(ctx, name)
	if err != nil {
		return TableDescription{}, err
	}
	if handle == nil {
		return TableDescription{}, &catalog.ErrTableNotFound{Table: name}
	}

	columns, err := s.catalog.ListColumns(ctx, *handle)
	if err != nil {
		return TableDescription{}, err
	}
	columns, err = SelectColumns(name, columns, projection)
	if err != nil {
		return TableDescription{}, err
	}
	return TableDescription{Handle: *handle, Columns: columns}, nil
}

// SelectColumns returns the columns named in projection, matched
// case-insensitively, in projection order. A nil projection returns all.
func SelectColumns(table catalog.SchemaTableName, all []catalog.ColumnDescriptor, projection []string) ([]catalog.ColumnDescriptor, error) {
	if projection == nil {
		return all, nil
	}
	selected := make([]catalog.ColumnDescriptor, 0, len(projection))
	for _, name := range projection {
		found := false
		for _, c := range all {
			if strings.EqualFold(c.Name, name) {
				selected = append(selected, c)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("column %s not found or not supported in table %s", name, table)
		}
	}
	return selected, nil
}

// FormatDescriptionsAsText renders descriptions with the logical and the
// physical type of every column.
func FormatDescriptionsAsText(descriptions []TableDescription, physical func(types.LogicalType) string) string {
	if len(descriptions) == 0 {
		return "No tables found.\n"
	}
	var buffer bytes.Buffer
	for i, d := range descriptions {
		if i > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(fmt.Sprintf("--- Table: %s (%s) ---\n", d.Handle.SchemaTableName, d.Handle))
		for _, c := range d.Columns {
			buffer.WriteString(fmt.Sprintf("  Column: %s\n", c.Name))
			buffer.WriteString(fmt.Sprintf("  Type: %s (%s)\n", c.Type, physical(c.Type)))
		}
	}
	return buffer.String()
}
