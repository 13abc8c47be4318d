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

// Package identifier holds the identifier case-folding and namespace
// exclusion rules of a connector instance.
package identifier

import (
	"sort"
	"strings"
)

// Policy decides which namespaces are hidden and how names are folded
// between the engine and the external database.
type Policy struct {
	excluded map[string]struct{}
}

// NewPolicy builds a policy from one or more deny-lists. Matching is case-insensitive.
func NewPolicy(excluded ...[]string) Policy {
	p := Policy{excluded: make(map[string]struct{})}
	for _, list := range excluded {
		for _, name := range list {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			p.excluded[strings.ToUpper(name)] = struct{}{}
		}
	}
	return p
}

// IsSystemNamespace reports whether name is a built-in or administrative namespace.
func (p Policy) IsSystemNamespace(name string) bool {
	_, ok := p.excluded[strings.ToUpper(name)]
	return ok
}

// ExcludedNamespaces returns the deny-list, upper-cased and sorted.
func (p Policy) ExcludedNamespaces() []string {
	names := make([]string, 0, len(p.excluded))
	for name := range p.excluded {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NormalizeForLookup folds name to the external storage convention.
func (p Policy) NormalizeForLookup(name string, storesUpperCase bool) string {
	if storesUpperCase && !p.IsSystemNamespace(name) {
		return strings.ToUpper(name)
	}
	return name
}

// NormalizeTableForLookup folds a schema/table pair. The schema decides for
// both parts so that tables inside an excluded schema are never rewritten.
func (p Policy) NormalizeTableForLookup(schema, table string, storesUpperCase bool) (string, string) {
	if storesUpperCase && !p.IsSystemNamespace(schema) {
		return strings.ToUpper(schema), strings.ToUpper(table)
	}
	return schema, table
}

// NormalizeForDisplay lower-cases name for the engine.
func (p Policy) NormalizeForDisplay(name string) string {
	return strings.ToLower(name)
}
