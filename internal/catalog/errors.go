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
package catalog

import (
	"fmt"
)

// ErrDatabaseConnection is returned when the external database cannot be
// reached or a metadata call fails.
type ErrDatabaseConnection struct {
	Msg string
	Err error
}

// ErrTableNotFound is returned when a resolved table reports no columns.
type ErrTableNotFound struct {
	Table SchemaTableName
}

// ErrAmbiguousTable is returned when one logical name matches several physical objects.
type ErrAmbiguousTable struct {
	Table   SchemaTableName
	Matches []string
}

// ErrNoSupportedColumns is returned when a table exists but none of its columns can be exposed.
type ErrNoSupportedColumns struct {
	Table SchemaTableName
}

// ErrContractViolation is returned when a pushdown value does not fit the column type.
type ErrContractViolation struct {
	Column string
	Type   string
	Value  any
	Err    error
}

func (e *ErrDatabaseConnection) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("database connection error: %s", e.Msg)
	}
	return fmt.Sprintf("database connection error: %s: %v", e.Msg, e.Err)
}

func (e *ErrDatabaseConnection) Unwrap() error {
	return e.Err
}

func (e *ErrTableNotFound) Error() string {
	return fmt.Sprintf("table not found: %s", e.Table)
}

func (e *ErrAmbiguousTable) Error() string {
	return fmt.Sprintf("multiple tables matched %s: %v", e.Table, e.Matches)
}

func (e *ErrNoSupportedColumns) Error() string {
	return fmt.Sprintf("table has no supported column types: %s", e.Table)
}

func (e *ErrContractViolation) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid %s value %#v for column %s", e.Type, e.Value, e.Column)
	}
	return fmt.Sprintf("invalid %s value %#v for column %s: %v", e.Type, e.Value, e.Column, e.Err)
}

func (e *ErrContractViolation) Unwrap() error {
	return e.Err
}
