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
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/catalog"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/connector"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/describer"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/utils"
)

var buildSQLCmd = &cobra.Command{
	Use:   "build-sql",
	Short: "Render the SELECT statement for a table scan",
	Long: `Resolves a table, applies an optional column projection and pushdown filters,
and prints the SELECT statement a worker would run for the split.`,
	Example: `./db_connector_adapter build-sql --dialect oracle --connection-url oracle://db.example.com:1521/ORCL --table "hr.employees[employee_id,last_name]" --where "salary >= 1000" --where "hire_date < 2020-01-01"`,
	RunE:    runBuildSQL,
}

func runBuildSQL(cmd *cobra.Command, args []string) error {
	tableFlag, _ := cmd.Flags().GetString("table")
	whereExprs, _ := cmd.Flags().GetStringArray("where")

	ctx := cmd.Context()
	c, db, err := setupConnector(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	split, columns, err := prepareSplit(ctx, c, tableFlag, whereExprs)
	if err != nil {
		return err
	}
	query, err := c.BuildSQL(split.Table, columns, split.Predicates)
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	logger.Info("Built split query", zap.Stringer("table", split.Table), zap.Int("predicates", split.Predicates.Len()))
	return writeOutput(cmd, query+"\n")
}

// prepareSplit resolves the single table named by tableFlag and turns the
// filter expressions into its predicate set.
func prepareSplit(ctx context.Context, c *connector.Connector, tableFlag string, whereExprs []string) (connector.Split, []catalog.ColumnDescriptor, error) {
	tables, err := utils.ParseTablesFlag(tableFlag)
	if err != nil {
		return connector.Split{}, nil, fmt.Errorf("invalid --table: %w", err)
	}
	if len(tables) != 1 {
		return connector.Split{}, nil, fmt.Errorf("--table must name exactly one table, got %d", len(tables))
	}

	var (
		name       catalog.SchemaTableName
		projection []string
	)
	for n, p := range tables {
		name, projection = n, p
	}

	handle, err := c.ResolveTable(ctx, name)
	if err != nil {
		return connector.Split{}, nil, err
	}
	if handle == nil {
		return connector.Split{}, nil, &catalog.ErrTableNotFound{Table: name}
	}

	all, err := c.ListColumns(ctx, *handle)
	if err != nil {
		return connector.Split{}, nil, err
	}
	columns, err := describer.SelectColumns(name, all, projection)
	if err != nil {
		return connector.Split{}, nil, err
	}
	predicates, err := utils.ParseFilters(whereExprs, all)
	if err != nil {
		return connector.Split{}, nil, fmt.Errorf("invalid --where: %w", err)
	}
	return c.Split(*handle, predicates), columns, nil
}

func init() {
	buildSQLCmd.Flags().String("table", "", "Table to scan as schema.table[col1,col2] - MANDATORY")
	buildSQLCmd.Flags().StringArray("where", nil, "Pushdown filter such as \"col >= 10\", \"col IN (a, b)\" or \"col IS NULL\" (repeatable)")
	buildSQLCmd.Flags().StringP("out_file", "o", "", "File path to save the output to (optional, \"auto\" for <connector>_split.sql)")
}
