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

// Package types maps external database column types onto the query engine's
// logical type system.
package types

import "fmt"

// Kind is the engine-facing logical type tag of a column.
type Kind int

const (
	Boolean Kind = iota + 1
	Integer64
	Float64
	Text
	Binary
	Date
	Time
	Timestamp
)

func (k Kind) String() string {
	switch k {
	case Boolean:
		return "boolean"
	case Integer64:
		return "bigint"
	case Float64:
		return "double"
	case Text:
		return "varchar"
	case Binary:
		return "varbinary"
	case Date:
		return "date"
	case Time:
		return "time"
	case Timestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// LogicalType is an immutable logical column type. Length is only meaningful
// for Text and is zero when the text is unbounded.
type LogicalType struct {
	Kind   Kind
	Length int
}

var (
	BooleanType   = LogicalType{Kind: Boolean}
	BigintType    = LogicalType{Kind: Integer64}
	DoubleType    = LogicalType{Kind: Float64}
	VarcharType   = LogicalType{Kind: Text}
	VarbinaryType = LogicalType{Kind: Binary}
	DateType      = LogicalType{Kind: Date}
	TimeType      = LogicalType{Kind: Time}
	TimestampType = LogicalType{Kind: Timestamp}
)

// BoundedVarchar returns a text type with the given maximum length.
func BoundedVarchar(length int) LogicalType {
	return LogicalType{Kind: Text, Length: length}
}

func (t LogicalType) String() string {
	if t.Kind == Text && t.Length > 0 {
		return fmt.Sprintf("varchar(%d)", t.Length)
	}
	return t.Kind.String()
}

// Code is the family of an external column type as reported by a dialect's
// metadata catalog.
type Code int

const (
	// Unsupported marks a native type the dialect recognizes but cannot expose.
	Unsupported Code = iota
	Bit
	BooleanCode
	TinyInt
	SmallInt
	Integer
	BigInt
	Float
	Real
	Double
	Numeric
	Decimal
	Char
	NChar
	VarChar
	NVarChar
	LongVarChar
	LongNVarChar
	BinaryCode
	VarBinary
	LongVarBinary
	DateCode
	TimeCode
	TimestampCode
	Blob
	Clob
	NClob
	Other
)

var codeNames = map[Code]string{
	Unsupported:   "UNSUPPORTED",
	Bit:           "BIT",
	BooleanCode:   "BOOLEAN",
	TinyInt:       "TINYINT",
	SmallInt:      "SMALLINT",
	Integer:       "INTEGER",
	BigInt:        "BIGINT",
	Float:         "FLOAT",
	Real:          "REAL",
	Double:        "DOUBLE",
	Numeric:       "NUMERIC",
	Decimal:       "DECIMAL",
	Char:          "CHAR",
	NChar:         "NCHAR",
	VarChar:       "VARCHAR",
	NVarChar:      "NVARCHAR",
	LongVarChar:   "LONGVARCHAR",
	LongNVarChar:  "LONGNVARCHAR",
	BinaryCode:    "BINARY",
	VarBinary:     "VARBINARY",
	LongVarBinary: "LONGVARBINARY",
	DateCode:      "DATE",
	TimeCode:      "TIME",
	TimestampCode: "TIMESTAMP",
	Blob:          "BLOB",
	Clob:          "CLOB",
	NClob:         "NCLOB",
	Other:         "OTHER",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CODE(%d)", int(c))
}
