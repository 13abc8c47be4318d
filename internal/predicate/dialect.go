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
package predicate

import (
	"strings"
	"time"
)

const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)

// Dialect renders typed literals in an external database's SQL syntax.
type Dialect interface {
	StringLiteral(s string) string
	// DateLiteral must be comparable against a DATE column.
	DateLiteral(t time.Time) string
	// TimestampLiteral must be comparable against a TIMESTAMP column. t has
	// already been truncated to whole seconds.
	TimestampLiteral(t time.Time) string
	BooleanLiteral(b bool) string
}

// StandardLiterals renders ANSI literals. Dialect handlers embed it and
// override what differs.
type StandardLiterals struct{}

var _ Dialect = StandardLiterals{}

func (StandardLiterals) StringLiteral(s string) string {
	return QuoteString(s)
}

func (StandardLiterals) DateLiteral(t time.Time) string {
	return QuoteString(t.Format(DateLayout))
}

func (StandardLiterals) TimestampLiteral(t time.Time) string {
	return "TIMESTAMP " + QuoteString(t.Format(TimestampLayout))
}

func (StandardLiterals) BooleanLiteral(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// QuoteString wraps s in single quotes, doubling embedded single quotes.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
