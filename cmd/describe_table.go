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
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/describer"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/utils"
)

var describeTableCmd = &cobra.Command{
	Use:     "describe-table",
	Short:   "Show the engine columns of one or more tables",
	Long:    `Resolves each table and prints its supported columns with their engine and external types. Columns of unsupported types are left out.`,
	Example: `./db_connector_adapter describe-table --dialect oracle --connection-url oracle://db.example.com:1521/ORCL --tables "hr.employees[employee_id,last_name],hr.departments"`,
	RunE:    runDescribeTable,
}

func runDescribeTable(cmd *cobra.Command, args []string) error {
	tablesFlag, _ := cmd.Flags().GetString("tables")
	tableFilters, err := utils.ParseTablesFlag(tablesFlag)
	if err != nil {
		return fmt.Errorf("invalid --tables: %w", err)
	}
	if len(tableFilters) == 0 {
		return fmt.Errorf("--tables is required")
	}

	ctx := cmd.Context()
	c, db, err := setupConnector(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("Starting describe-table operation", zap.String("connector_id", c.ID()), zap.Int("tables", len(tableFilters)))
	descriptions, err := describer.NewService(c, logger.Named("describer")).Describe(ctx, tableFilters)
	if err != nil {
		return fmt.Errorf("failed to describe tables: %w", err)
	}
	return writeOutput(cmd, describer.FormatDescriptionsAsText(descriptions, c.ToPhysicalType))
}

func init() {
	describeTableCmd.Flags().String("tables", "", "Comma separated list of schema.table[col1,col2] to describe - MANDATORY")
	describeTableCmd.Flags().StringP("out_file", "o", "", "File path to save the output to (optional, \"auto\" for <connector>_describe_table.txt)")
}
