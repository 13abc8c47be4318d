package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/catalog"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/domain"
	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/types"
)

var (
	nullFilterRe       = regexp.MustCompile(`(?i)^\s*(\S+)\s+IS\s+(NOT\s+)?NULL\s*$`)
	inFilterRe         = regexp.MustCompile(`(?i)^\s*(\S+)\s+IN\s*\((.*)\)\s*$`)
	comparisonFilterRe = regexp.MustCompile(`^\s*([^\s<>=!]+)\s*(<=|>=|<>|!=|=|<|>)\s*(.+?)\s*$`)
)

var timestampLayouts = []string{"2006-01-02 15:04:05", time.RFC3339, "2006-01-02T15:04:05"}

// ParseFilters turns --where expressions into a predicate set over columns.
// Supported forms are "col <op> value" with =, <>, !=, <, <=, >, >=, plus
// "col IN (v1, v2)" and "col IS [NOT] NULL". Column names match
// case-insensitively.
func ParseFilters(exprs []string, columns []catalog.ColumnDescriptor) (catalog.PredicateSet, error) {
	var set catalog.PredicateSet
	for _, expr := range exprs {
		if strings.TrimSpace(expr) == "" {
			continue
		}
		p, err := ParseFilter(expr, columns)
		if err != nil {
			return catalog.PredicateSet{}, err
		}
		if _, dup := set.Domain(p.Column.Name); dup {
			return catalog.PredicateSet{}, fmt.Errorf("column %s is filtered more than once", p.Column.Name)
		}
		set = set.With(p.Column, p.Domain)
	}
	return set, nil
}

// ParseFilter parses a single filter expression.
func ParseFilter(expr string, columns []catalog.ColumnDescriptor) (catalog.ColumnPredicate, error) {
	if m := nullFilterRe.FindStringSubmatch(expr); m != nil {
		col, err := findColumn(m[1], columns)
		if err != nil {
			return catalog.ColumnPredicate{}, err
		}
		if m[2] != "" {
			return catalog.ColumnPredicate{Column: col, Domain: domain.NotNull()}, nil
		}
		return catalog.ColumnPredicate{Column: col, Domain: domain.OnlyNull()}, nil
	}

	if m := inFilterRe.FindStringSubmatch(expr); m != nil {
		col, err := findColumn(m[1], columns)
		if err != nil {
			return catalog.ColumnPredicate{}, err
		}
		var values []any
		for _, raw := range splitValues(m[2]) {
			v, err := parseValue(raw, col)
			if err != nil {
				return catalog.ColumnPredicate{}, err
			}
			values = append(values, v)
		}
		if len(values) == 0 {
			return catalog.ColumnPredicate{}, fmt.Errorf("empty IN list in filter %q", expr)
		}
		return catalog.ColumnPredicate{Column: col, Domain: domain.MultipleValues(values...)}, nil
	}

	m := comparisonFilterRe.FindStringSubmatch(expr)
	if m == nil {
		return catalog.ColumnPredicate{}, fmt.Errorf("unrecognized filter %q", expr)
	}
	col, err := findColumn(m[1], columns)
	if err != nil {
		return catalog.ColumnPredicate{}, err
	}
	v, err := parseValue(m[3], col)
	if err != nil {
		return catalog.ColumnPredicate{}, err
	}

	var d domain.Domain
	switch m[2] {
	case "=":
		d = domain.SingleValue(v)
	case "<>", "!=":
		d = domain.Union(false, domain.LessThan(v), domain.GreaterThan(v))
	case "<":
		d = domain.Union(false, domain.LessThan(v))
	case "<=":
		d = domain.Union(false, domain.LessThanOrEqual(v))
	case ">":
		d = domain.Union(false, domain.GreaterThan(v))
	case ">=":
		d = domain.Union(false, domain.GreaterThanOrEqual(v))
	}
	return catalog.ColumnPredicate{Column: col, Domain: d}, nil
}

func findColumn(name string, columns []catalog.ColumnDescriptor) (catalog.ColumnDescriptor, error) {
	for _, c := range columns {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return catalog.ColumnDescriptor{}, fmt.Errorf("unknown column %q in filter", name)
}

// parseValue converts raw to the value representation the predicate
// compiler expects for the column's type: days since epoch for dates and
// epoch milliseconds for timestamps.
func parseValue(raw string, col catalog.ColumnDescriptor) (any, error) {
	raw = strings.TrimSpace(raw)
	switch col.Type.Kind {
	case types.Integer64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("column %s: invalid integer %q", col.Name, raw)
		}
		return n, nil
	case types.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("column %s: invalid number %q", col.Name, raw)
		}
		return f, nil
	case types.Boolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("column %s: invalid boolean %q", col.Name, raw)
		}
		return b, nil
	case types.Text:
		return unquote(raw), nil
	case types.Date:
		t, err := time.Parse("2006-01-02", unquote(raw))
		if err != nil {
			return nil, fmt.Errorf("column %s: invalid date %q, expected YYYY-MM-DD", col.Name, raw)
		}
		return t.Unix() / 86400, nil
	case types.Timestamp:
		s := unquote(raw)
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UnixMilli(), nil
			}
		}
		return nil, fmt.Errorf("column %s: invalid timestamp %q, expected YYYY-MM-DD HH:MM:SS", col.Name, raw)
	}
	return nil, fmt.Errorf("column %s of type %s cannot be filtered", col.Name, col.Type)
}

// unquote strips one pair of surrounding single quotes and undoubles
// embedded ones.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	}
	return s
}

// splitValues splits an IN list on commas outside single quotes.
func splitValues(s string) []string {
	var result []string
	var current strings.Builder
	inQuotes := false
	for _, char := range s {
		switch {
		case char == '\'':
			inQuotes = !inQuotes
			current.WriteRune(char)
		case char == ',' && !inQuotes:
			result = append(result, current.String())
			current.Reset()
		default:
			current.WriteRune(char)
		}
	}
	if strings.TrimSpace(current.String()) != "" || len(result) > 0 {
		result = append(result, current.String())
	}
	return result
}
