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
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/config"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/connector"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/database"
	_ "github.com/GoogleCloudPlatform/db-connector-adapter/internal/database/mysql"
	_ "github.com/GoogleCloudPlatform/db-connector-adapter/internal/database/oracle"
	_ "github.com/GoogleCloudPlatform/db-connector-adapter/internal/database/postgres"
	_ "github.com/GoogleCloudPlatform/db-connector-adapter/internal/database/sqlserver"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/utils"
)

var (
	cfgFile string
	verbose bool

	v      = viper.New()
	cfg    config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "db_connector_adapter",
	Short: "Expose an external SQL database to a distributed query engine",
	Long: `db_connector_adapter discovers the schemas, tables and columns of an external
SQL database, maps its column types to engine types, and renders the per-split
SELECT statements (with predicate pushdown) that engine workers execute.`,
	SilenceUsage:      true,
	PersistentPreRunE: initFlagsAndConfig,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// initFlagsAndConfig loads the configuration from flags, the environment
// and the optional config file, then builds the logger.
func initFlagsAndConfig(cmd *cobra.Command, args []string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
		}
	}

	loaded, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := database.GetDialectHandler(loaded.Dialect); err != nil {
		return fmt.Errorf("%w (supported: %s)", err, strings.Join(database.Dialects(), ", "))
	}
	cfg = loaded

	l, err := newLogger(verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	logger = l
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// setupConnector connects to the metadata database. The caller closes the
// returned DB.
func setupConnector(ctx context.Context) (*connector.Connector, *database.DB, error) {
	db, err := database.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect to database", zap.String("dialect", cfg.Dialect), zap.Error(err))
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	c, err := connector.New(cfg, db, logger)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return c, db, nil
}

// outputPath resolves the --out_file flag; "auto" picks the default file
// name for the command.
func outputPath(cmd *cobra.Command) string {
	out, _ := cmd.Flags().GetString("out_file")
	if out == "auto" {
		return utils.GetDefaultOutputFilePath(cfg.ConnectorID, cmd.Name())
	}
	return out
}

func writeOutput(cmd *cobra.Command, content string) error {
	path := outputPath(cmd)
	if err := utils.WriteOutput(cmd.OutOrStdout(), path, content); err != nil {
		return err
	}
	if path != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Output written to: %s\n", path)
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Path to a YAML/JSON/TOML config file")
	flags.BoolVar(&verbose, "verbose", false, "Enable development logging at debug level")

	// Connector configuration flags
	flags.String(config.KeyDialect, "", fmt.Sprintf("Database dialect (%s) - MANDATORY", strings.Join(database.Dialects(), ", ")))
	flags.String(config.KeyConnectorID, "", "Connector identity stamped on handles (defaults to the dialect)")
	flags.String(config.KeyConnectionURL, "", "Driver URL, or the instance connection name for Cloud SQL dialects - MANDATORY")
	flags.String(config.KeyConnectionUser, "", "Database user")
	flags.String(config.KeyConnectionPassword, "", "Database password")
	flags.String(config.KeyIdentifierQuote, "", "Identifier quote character (defaults to the dialect's; empty disables quoting)")
	flags.Int(config.KeyFetchSize, config.DefaultFetchSize, "Rows fetched per round trip on split connections")
	flags.StringSlice(config.KeyExcludedSchemas, nil, "Additional schemas to hide, comma separated")
	flags.Bool(config.KeyIncludeSynonyms, true, "Expose columns of tables reached through synonyms")
	flags.String(config.KeyDatabase, "", "Database name (Cloud SQL dialects)")
	flags.Bool(config.KeyUsePrivateIP, false, "Use private IP for Cloud SQL connection (Cloud SQL)")

	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(listSchemasCmd)
	rootCmd.AddCommand(listTablesCmd)
	rootCmd.AddCommand(describeTableCmd)
	rootCmd.AddCommand(buildSQLCmd)
	rootCmd.AddCommand(scanCmd)
}
