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
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var listTablesCmd = &cobra.Command{
	Use:     "list-tables",
	Short:   "List tables, views and synonyms",
	Long:    `Lists the tables of one schema, or of every non-system schema when --schema is omitted.`,
	Example: `./db_connector_adapter list-tables --dialect oracle --connection-url oracle://db.example.com:1521/ORCL --schema hr`,
	RunE:    runListTables,
}

func runListTables(cmd *cobra.Command, args []string) error {
	schema, _ := cmd.Flags().GetString("schema")

	ctx := cmd.Context()
	c, db, err := setupConnector(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("Starting list-tables operation", zap.String("connector_id", c.ID()), zap.String("schema", schema))
	tables, err := c.ListTables(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}

	var sb strings.Builder
	for _, t := range tables {
		sb.WriteString(t.String())
		sb.WriteString("\n")
	}
	return writeOutput(cmd, sb.String())
}

func init() {
	listTablesCmd.Flags().String("schema", "", "Schema to list (optional, defaults to all non-system schemas)")
	listTablesCmd.Flags().StringP("out_file", "o", "", "File path to save the output to (optional, \"auto\" for <connector>_list_tables.txt)")
}
