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

var listSchemasCmd = &cobra.Command{
	Use:     "list-schemas",
	Short:   "List the schemas visible to the engine",
	Long:    `Lists every non-system schema of the external database, lower-cased the way the engine names them.`,
	Example: `./db_connector_adapter list-schemas --dialect oracle --connection-url oracle://db.example.com:1521/ORCL --connection-user scott --connection-password tiger`,
	RunE:    runListSchemas,
}

func runListSchemas(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, db, err := setupConnector(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("Starting list-schemas operation", zap.String("connector_id", c.ID()))
	schemas, err := c.ListSchemas(ctx)
	if err != nil {
		return fmt.Errorf("failed to list schemas: %w", err)
	}

	var sb strings.Builder
	for _, s := range schemas {
		sb.WriteString(s)
		sb.WriteString("\n")
	}
	return writeOutput(cmd, sb.String())
}

func init() {
	listSchemasCmd.Flags().StringP("out_file", "o", "", "File path to save the output to (optional, \"auto\" for <connector>_list_schemas.txt)")
}
