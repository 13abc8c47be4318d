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
package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/catalog"
)

// GetDefaultOutputFilePath names the file a command writes when --out_file
// is "auto".
func GetDefaultOutputFilePath(connectorID, commandName string) string {
	switch commandName {
	case "build-sql":
		return fmt.Sprintf("%s_split.sql", connectorID)
	case "scan":
		return fmt.Sprintf("%s_scan.tsv", connectorID)
	default: // list-schemas, list-tables, describe-table
		return fmt.Sprintf("%s_%s.txt", connectorID, strings.ReplaceAll(commandName, "-", "_"))
	}
}

// WriteOutput writes content to filePath, or to stdout when filePath is empty.
func WriteOutput(stdout io.Writer, filePath, content string) error {
	if filePath == "" {
		_, err := io.WriteString(stdout, content)
		return err
	}
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(filePath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// ParseTablesFlag parses "schema.table[col1,col2],schema.other" into table
// names and their optional column projections. A nil projection means all
// columns.
func ParseTablesFlag(tablesFlag string) (map[catalog.SchemaTableName][]string, error) {
	tableColumns := make(map[catalog.SchemaTableName][]string)
	if tablesFlag == "" {
		return tableColumns, nil
	}

	// strip any whitespace
	tablesFlag = strings.ReplaceAll(tablesFlag, " ", "")

	for _, part := range SplitOutsideBrackets(tablesFlag) {
		if part == "" {
			continue
		}
		tableName := part
		var columns []string

		if bracketStart := strings.Index(part, "["); bracketStart != -1 {
			bracketEnd := strings.Index(part, "]")
			if bracketEnd == -1 || bracketEnd < bracketStart {
				return nil, fmt.Errorf("missing closing bracket in: %s", part)
			}
			tableName = part[:bracketStart]
			for _, col := range strings.Split(part[bracketStart+1:bracketEnd], ",") {
				if col != "" {
					columns = append(columns, col)
				}
			}
		}

		name, err := catalog.ParseSchemaTableName(tableName)
		if err != nil {
			return nil, err
		}
		tableColumns[name] = columns
	}

	return tableColumns, nil
}

// SplitOutsideBrackets splits s on commas that are not inside brackets.
func SplitOutsideBrackets(s string) []string {
	var result []string
	var current strings.Builder
	inBrackets := false

	for _, char := range s {
		switch char {
		case '[':
			inBrackets = true
			current.WriteRune(char)
		case ']':
			inBrackets = false
			current.WriteRune(char)
		case ',':
			if inBrackets {
				current.WriteRune(char)
			} else {
				result = append(result, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(char)
		}
	}

	if current.Len() > 0 {
		result = append(result, current.String())
	}

	return result
}
