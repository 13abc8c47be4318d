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
package types

import (
	"fmt"
	"math"
)

// DefaultMaxTextLength is the longest declared text length the engine accepts.
const DefaultMaxTextLength = math.MaxInt32 - 1

// Mapper translates between external type codes and logical types.
type Mapper interface {
	// ToLogicalType returns false when the column cannot be exposed and must be dropped.
	ToLogicalType(code Code, declaredSize int) (LogicalType, bool)
	ToPhysicalType(t LogicalType) string
}

// PhysicalTypeNamer is implemented by dialects that spell logical types with
// their own DDL names.
type PhysicalTypeNamer interface {
	PhysicalTypeName(t LogicalType) (string, bool)
}

// StandardMapper is the mapping shared by every dialect.
// NUMERIC and DECIMAL collapse to Float64, which loses precision.
type StandardMapper struct {
	MaxTextLength int
	Namer         PhysicalTypeNamer
}

var _ Mapper = StandardMapper{}

// NewStandardMapper returns a mapper using DefaultMaxTextLength. namer may be nil.
func NewStandardMapper(namer PhysicalTypeNamer) StandardMapper {
	return StandardMapper{MaxTextLength: DefaultMaxTextLength, Namer: namer}
}

func (m StandardMapper) ToLogicalType(code Code, declaredSize int) (LogicalType, bool) {
	switch code {
	case Bit, BooleanCode:
		return BooleanType, true
	case TinyInt, SmallInt, Integer, BigInt:
		return BigintType, true
	case Float, Real, Double, Numeric, Decimal:
		return DoubleType, true
	case Char, NChar, VarChar, NVarChar, LongVarChar, LongNVarChar:
		return m.text(declaredSize), true
	case BinaryCode, VarBinary, LongVarBinary:
		return VarbinaryType, true
	case DateCode:
		return DateType, true
	case TimeCode:
		return TimeType, true
	case TimestampCode:
		return TimestampType, true
	case Clob, NClob:
		return VarcharType, true
	case Blob, Other:
		return VarbinaryType, true
	}
	return LogicalType{}, false
}

func (m StandardMapper) text(declaredSize int) LogicalType {
	if declaredSize <= 0 {
		return VarcharType
	}
	limit := m.MaxTextLength
	if limit <= 0 {
		limit = DefaultMaxTextLength
	}
	return BoundedVarchar(min(declaredSize, limit))
}

func (m StandardMapper) ToPhysicalType(t LogicalType) string {
	if m.Namer != nil {
		if name, ok := m.Namer.PhysicalTypeName(t); ok {
			return name
		}
	}
	switch t.Kind {
	case Boolean:
		return "boolean"
	case Integer64:
		return "bigint"
	case Float64:
		return "double precision"
	case Text:
		if t.Length > 0 {
			return fmt.Sprintf("varchar(%d)", t.Length)
		}
		return "varchar"
	case Binary:
		return "varbinary"
	case Date:
		return "date"
	case Time:
		return "time"
	case Timestamp:
		return "timestamp"
	}
	return t.String()
}
