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

// Package domain describes the set of values a single column may take, as
// produced by the engine's predicate pushdown analysis.
//
// Values are carried in the engine's internal representation: int64 for
// integers, days since 1970-01-01 for dates and milliseconds since the epoch
// for timestamps; float64 for floating point; bool; string for text. Numeric
// values may also arrive as their decimal text.
package domain

import "reflect"

// Bound describes one end of a Range.
type Bound int

const (
	Unbounded Bound = iota
	Inclusive
	Exclusive
)

// Marker is one end of a Range. Value is ignored when Bound is Unbounded.
type Marker struct {
	Value any
	Bound Bound
}

// Range is a contiguous interval of values.
type Range struct {
	Low  Marker
	High Marker
}

// IsAll reports whether the range has no bound on either side.
func (r Range) IsAll() bool {
	return r.Low.Bound == Unbounded && r.High.Bound == Unbounded
}

// IsSingleValue reports whether the range holds exactly one value.
func (r Range) IsSingleValue() bool {
	return r.Low.Bound == Inclusive && r.High.Bound == Inclusive && sameValue(r.Low.Value, r.High.Value)
}

func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	t := reflect.TypeOf(a)
	if t != reflect.TypeOf(b) || !t.Comparable() {
		return false
	}
	return a == b
}

// Equal is the single-value range [v, v].
func Equal(v any) Range {
	return Range{Low: Marker{Value: v, Bound: Inclusive}, High: Marker{Value: v, Bound: Inclusive}}
}

func GreaterThan(v any) Range {
	return Range{Low: Marker{Value: v, Bound: Exclusive}}
}

func GreaterThanOrEqual(v any) Range {
	return Range{Low: Marker{Value: v, Bound: Inclusive}}
}

func LessThan(v any) Range {
	return Range{High: Marker{Value: v, Bound: Exclusive}}
}

func LessThanOrEqual(v any) Range {
	return Range{High: Marker{Value: v, Bound: Inclusive}}
}

// Between builds a range with both ends bounded.
func Between(low any, lowInclusive bool, high any, highInclusive bool) Range {
	return Range{
		Low:  Marker{Value: low, Bound: boundOf(lowInclusive)},
		High: Marker{Value: high, Bound: boundOf(highInclusive)},
	}
}

func boundOf(inclusive bool) Bound {
	if inclusive {
		return Inclusive
	}
	return Exclusive
}

// Domain is an immutable per-column constraint: a union of ranges and
// discrete values, plus whether NULL satisfies it.
type Domain struct {
	all         bool
	ranges      []Range
	nullAllowed bool
}

// All allows every non-null value; nullAllowed controls NULL.
func All(nullAllowed bool) Domain {
	return Domain{all: true, nullAllowed: nullAllowed}
}

// None allows no non-null value; nullAllowed controls NULL.
func None(nullAllowed bool) Domain {
	return Domain{nullAllowed: nullAllowed}
}

func OnlyNull() Domain {
	return None(true)
}

func NotNull() Domain {
	return All(false)
}

func SingleValue(v any) Domain {
	return Union(false, Equal(v))
}

// MultipleValues allows exactly the given discrete values.
func MultipleValues(values ...any) Domain {
	ranges := make([]Range, 0, len(values))
	for _, v := range values {
		ranges = append(ranges, Equal(v))
	}
	return Union(false, ranges...)
}

// Union allows any value in one of ranges. A fully unbounded range makes the
// domain equivalent to All.
func Union(nullAllowed bool, ranges ...Range) Domain {
	for _, r := range ranges {
		if r.IsAll() {
			return All(nullAllowed)
		}
	}
	return Domain{ranges: append([]Range(nil), ranges...), nullAllowed: nullAllowed}
}

// IsAll reports whether every non-null value is allowed.
func (d Domain) IsAll() bool {
	return d.all
}

// IsNone reports whether no non-null value is allowed.
func (d Domain) IsNone() bool {
	return !d.all && len(d.ranges) == 0
}

// IsUnconstrained reports whether the domain accepts every value including NULL.
func (d Domain) IsUnconstrained() bool {
	return d.all && d.nullAllowed
}

func (d Domain) NullAllowed() bool {
	return d.nullAllowed
}

// Ranges returns the ranges in the order they were supplied.
func (d Domain) Ranges() []Range {
	return append([]Range(nil), d.ranges...)
}
