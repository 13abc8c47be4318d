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

// Package predicate compiles per-column domains into dialect-correct SQL
// predicate fragments.
package predicate

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/catalog"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/domain"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/identifier"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/types"
)

// alwaysFalse is accepted by every supported dialect, unlike a FALSE literal.
const alwaysFalse = "1 = 0"

var epoch = time.Unix(0, 0).UTC()

// Compiler turns domains into WHERE-clause fragments.
type Compiler struct {
	dialect Dialect
	quoter  identifier.Quoter
}

func NewCompiler(dialect Dialect, quoter identifier.Quoter) *Compiler {
	return &Compiler{dialect: dialect, quoter: quoter}
}

// Pushable reports whether predicates on t are rendered in SQL. Other types
// are left for the engine to filter.
func Pushable(t types.LogicalType) bool {
	switch t.Kind {
	case types.Integer64, types.Float64, types.Boolean, types.Text, types.Date, types.Timestamp:
		return true
	}
	return false
}

// Compile renders d for column. ok is false when no SQL is needed, either
// because d does not constrain the column or because t is not pushable.
func (c *Compiler) Compile(column string, d domain.Domain, t types.LogicalType) (fragment string, ok bool, err error) {
	if !Pushable(t) || d.IsUnconstrained() {
		return "", false, nil
	}
	quoted := c.quoter.Quote(column)

	if d.IsNone() {
		if d.NullAllowed() {
			return quoted + " IS NULL", true, nil
		}
		return alwaysFalse, true, nil
	}
	if d.IsAll() {
		return quoted + " IS NOT NULL", true, nil
	}

	var disjuncts []string
	for _, r := range d.Ranges() {
		if r.IsSingleValue() {
			p, err := c.comparison(column, "=", r.Low.Value, t)
			if err != nil {
				return "", false, err
			}
			disjuncts = append(disjuncts, p)
			continue
		}

		var conjuncts []string
		if r.Low.Bound != domain.Unbounded {
			op := ">="
			if r.Low.Bound == domain.Exclusive {
				op = ">"
			}
			p, err := c.comparison(column, op, r.Low.Value, t)
			if err != nil {
				return "", false, err
			}
			conjuncts = append(conjuncts, p)
		}
		if r.High.Bound != domain.Unbounded {
			op := "<="
			if r.High.Bound == domain.Exclusive {
				op = "<"
			}
			p, err := c.comparison(column, op, r.High.Value, t)
			if err != nil {
				return "", false, err
			}
			conjuncts = append(conjuncts, p)
		}
		if len(conjuncts) == 1 {
			disjuncts = append(disjuncts, conjuncts[0])
		} else {
			disjuncts = append(disjuncts, "("+strings.Join(conjuncts, " AND ")+")")
		}
	}
	if d.NullAllowed() {
		disjuncts = append(disjuncts, quoted+" IS NULL")
	}

	if len(disjuncts) == 1 {
		return disjuncts[0], true, nil
	}
	return "(" + strings.Join(disjuncts, " OR ") + ")", true, nil
}

func (c *Compiler) comparison(column, operator string, value any, t types.LogicalType) (string, error) {
	literal, err := c.literal(value, t)
	if err != nil {
		return "", &catalog.ErrContractViolation{Column: column, Type: t.String(), Value: value, Err: err}
	}
	return c.quoter.Quote(column) + " " + operator + " " + literal, nil
}

func (c *Compiler) literal(value any, t types.LogicalType) (string, error) {
	switch t.Kind {
	case types.Integer64:
		n, err := toInt64(value)
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(n, 10), nil
	case types.Float64:
		f, err := toFloat64(value)
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	case types.Boolean:
		b, err := toBool(value)
		if err != nil {
			return "", err
		}
		return c.dialect.BooleanLiteral(b), nil
	case types.Text:
		s, ok := value.(string)
		if !ok {
			return "", fmt.Errorf("expected string, got %T", value)
		}
		return c.dialect.StringLiteral(s), nil
	case types.Date:
		days, err := toInt64(value)
		if err != nil {
			return "", err
		}
		return c.dialect.DateLiteral(epoch.AddDate(0, 0, int(days))), nil
	case types.Timestamp:
		millis, err := toInt64(value)
		if err != nil {
			return "", err
		}
		ts := time.UnixMilli(millis).UTC().Truncate(time.Second)
		return c.dialect.TimestampLiteral(ts), nil
	}
	return "", fmt.Errorf("type %s cannot be pushed down", t)
}

func toInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	}
	return 0, fmt.Errorf("expected integer, got %T", value)
}

func toFloat64(value any) (float64, error) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int64:
		f = float64(v)
	case int:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, err
		}
		f = parsed
	default:
		return 0, fmt.Errorf("expected floating point number, got %T", value)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite value %v has no SQL literal", f)
	}
	return f, nil
}

func toBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(v))
	}
	return false, fmt.Errorf("expected boolean, got %T", value)
}
