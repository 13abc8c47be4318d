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
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Execute a split on a read-only connection",
	Long: `Builds the split for a table exactly like build-sql, opens a dedicated read-only
connection with the configured fetch size, and streams the rows as tab separated values.`,
	Example: `./db_connector_adapter scan --dialect postgres --connection-url postgres://db.example.com:5432/shop --table "public.orders[id,status]" --where "status = 'OPEN'" --limit 100`,
	RunE:    runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	tableFlag, _ := cmd.Flags().GetString("table")
	whereExprs, _ := cmd.Flags().GetStringArray("where")
	limit, _ := cmd.Flags().GetInt("limit")

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

	conn, err := c.OpenConnection(ctx, split.ConnectionInfo)
	if err != nil {
		return err
	}
	defer conn.Close()

	startTime := time.Now()
	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("error reading result columns: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(strings.Join(names, "\t"))
	sb.WriteString("\n")

	values := make([]any, len(names))
	dest := make([]any, len(names))
	for i := range values {
		dest[i] = &values[i]
	}
	count := 0
	for rows.Next() && (limit <= 0 || count < limit) {
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("error scanning row: %w", err)
		}
		fields := make([]string, len(values))
		for i, val := range values {
			fields[i] = formatValue(val)
		}
		sb.WriteString(strings.Join(fields, "\t"))
		sb.WriteString("\n")
		count++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating rows: %w", err)
	}

	logger.Info("Scan completed",
		zap.Stringer("table", split.Table),
		zap.Int("rows", count),
		zap.Duration("elapsed", time.Since(startTime)))
	return writeOutput(cmd, sb.String())
}

func formatValue(val any) string {
	switch v := val.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(v)
	case time.Time:
		return v.UTC().Format("2006-01-02 15:04:05.999999999")
	default:
		return fmt.Sprint(v)
	}
}

func init() {
	scanCmd.Flags().String("table", "", "Table to scan as schema.table[col1,col2] - MANDATORY")
	scanCmd.Flags().StringArray("where", nil, "Pushdown filter such as \"col >= 10\", \"col IN (a, b)\" or \"col IS NULL\" (repeatable)")
	scanCmd.Flags().Int("limit", 0, "Stop after this many rows (0 reads the whole split)")
	scanCmd.Flags().StringP("out_file", "o", "", "File path to save the output to (optional, \"auto\" for <connector>_scan.tsv)")
}
