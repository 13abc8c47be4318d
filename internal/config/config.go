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
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Keys recognized in flags, environment variables and config files.
const (
	KeyDialect            = "dialect"
	KeyConnectorID        = "connector-id"
	KeyConnectionURL      = "connection-url"
	KeyConnectionUser     = "connection-user"
	KeyConnectionPassword = "connection-password"
	KeyIdentifierQuote    = "identifier-quote"
	KeyFetchSize          = "fetch-size"
	KeyExcludedSchemas    = "excluded-schemas"
	KeyIncludeSynonyms    = "include-synonyms"
	KeyDatabase           = "database"
	KeyUsePrivateIP       = "cloudsql-use-private-ip"
)

// EnvPrefix is prepended to every key when read from the environment,
// e.g. DBCONN_CONNECTION_URL.
const EnvPrefix = "DBCONN"

const DefaultFetchSize = 10000

// Config holds the connector configuration.
type Config struct {
	Dialect     string
	ConnectorID string

	// ConnectionURL is the driver URL, or the instance connection name for
	// Cloud SQL dialects.
	ConnectionURL      string
	ConnectionUser     string
	ConnectionPassword string

	// IdentifierQuote overrides the dialect's quote character when set. An
	// empty string disables quoting.
	IdentifierQuote *string

	FetchSize       int
	ExcludedSchemas []string
	IncludeSynonyms bool

	// Database and UsePrivateIP only apply to Cloud SQL dialects.
	Database     string
	UsePrivateIP bool
}

// Default returns a configuration with defaults applied.
func Default() Config {
	return Config{
		FetchSize:       DefaultFetchSize,
		IncludeSynonyms: true,
	}
}

// SetDefaults registers the defaults on v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyFetchSize, d.FetchSize)
	v.SetDefault(KeyIncludeSynonyms, d.IncludeSynonyms)
}

// Load reads the configuration from v. Values bound from flags, the
// environment and any config file read into v are all visible here.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cfg := Config{
		Dialect:            strings.ToLower(strings.TrimSpace(v.GetString(KeyDialect))),
		ConnectorID:        v.GetString(KeyConnectorID),
		ConnectionURL:      v.GetString(KeyConnectionURL),
		ConnectionUser:     v.GetString(KeyConnectionUser),
		ConnectionPassword: v.GetString(KeyConnectionPassword),
		FetchSize:          v.GetInt(KeyFetchSize),
		ExcludedSchemas:    splitList(v.GetStringSlice(KeyExcludedSchemas)),
		IncludeSynonyms:    v.GetBool(KeyIncludeSynonyms),
		Database:           v.GetString(KeyDatabase),
		UsePrivateIP:       v.GetBool(KeyUsePrivateIP),
	}
	if v.IsSet(KeyIdentifierQuote) {
		q := v.GetString(KeyIdentifierQuote)
		cfg.IdentifierQuote = &q
	}
	if cfg.ConnectorID == "" {
		cfg.ConnectorID = cfg.Dialect
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	if c.Dialect == "" {
		return fmt.Errorf("%s is required", KeyDialect)
	}
	if c.ConnectionURL == "" {
		return fmt.Errorf("%s is required", KeyConnectionURL)
	}
	if c.FetchSize <= 0 {
		return fmt.Errorf("%s must be positive, got %d", KeyFetchSize, c.FetchSize)
	}
	if c.IdentifierQuote != nil && len(*c.IdentifierQuote) > 1 {
		return fmt.Errorf("%s must be a single character or empty, got %q", KeyIdentifierQuote, *c.IdentifierQuote)
	}
	return nil
}

// splitList accepts both repeated values and comma separated ones, as the
// environment only carries a single string.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
