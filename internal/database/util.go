package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// Placeholder renders the n-th (1-based) bind parameter of a dialect.
type Placeholder func(n int) string

var (
	QuestionMark Placeholder = func(int) string { return "?" }
	DollarN      Placeholder = func(n int) string { return "$" + strconv.Itoa(n) }
	ColonN       Placeholder = func(n int) string { return ":" + strconv.Itoa(n) }
	AtPN         Placeholder = func(n int) string { return "@p" + strconv.Itoa(n) }
)

// Conditions accumulates equality filters for a metadata query. Empty values
// are skipped. Bind numbering continues across Where and And calls so one
// argument list can serve a UNION of several filtered selects.
type Conditions struct {
	placeholder Placeholder
	clauses     []string
	args        []any
}

func NewConditions(p Placeholder) *Conditions {
	return &Conditions{placeholder: p}
}

// Equal adds "column = <bind>" when value is not empty.
func (c *Conditions) Equal(column, value string) *Conditions {
	if value == "" {
		return c
	}
	c.args = append(c.args, value)
	c.clauses = append(c.clauses, column+" = "+c.placeholder(len(c.args)))
	return c
}

// Where renders the pending clauses as a WHERE clause and clears them.
func (c *Conditions) Where() string {
	return c.flush(" WHERE ")
}

// And renders the pending clauses for appending to an existing WHERE clause
// and clears them.
func (c *Conditions) And() string {
	return c.flush(" AND ")
}

func (c *Conditions) flush(prefix string) string {
	if len(c.clauses) == 0 {
		return ""
	}
	s := prefix + strings.Join(c.clauses, " AND ")
	c.clauses = nil
	return s
}

// Args returns every bound value in placeholder order.
func (c *Conditions) Args() []any {
	return c.args
}

// ScanStrings reads a single string column from every row and closes rows.
func ScanStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}
