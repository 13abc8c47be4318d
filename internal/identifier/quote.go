package identifier

import "strings"

// Quoter wraps identifiers in a configured quote string. An empty Char
// leaves identifiers untouched.
type Quoter struct {
	Char string
}

// Quote returns name wrapped in the quote string, doubling any embedded quote.
func (q Quoter) Quote(name string) string {
	if q.Char == "" {
		return name
	}
	name = strings.ReplaceAll(name, q.Char, q.Char+q.Char)
	return q.Char + name + q.Char
}

// QualifiedName joins the non-empty parts with '.', quoting each.
func (q Quoter) QualifiedName(parts ...string) string {
	quoted := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		quoted = append(quoted, q.Quote(part))
	}
	return strings.Join(quoted, ".")
}
