package airtable

import (
	"fmt"
	"strings"
)

// Quote renders s as an Airtable formula string literal.
func Quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

// Field renders a field reference.
func Field(name string) string {
	return "{" + name + "}"
}

// Equals matches records whose field equals value exactly.
func Equals(field, value string) string {
	return fmt.Sprintf("%s = %s", Field(field), Quote(value))
}

// Search matches records where any of fields contains needle, ignoring case.
// An empty needle matches everything and yields "".
func Search(needle string, fields ...string) string {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" || len(fields) == 0 {
		return ""
	}

	clauses := make([]string, len(fields))
	for i, f := range fields {
		clauses[i] = fmt.Sprintf("SEARCH(%s, LOWER(%s))", Quote(needle), Field(f))
	}

	return Or(clauses...)
}

// And joins the non-empty clauses. A single clause is returned as is.
func And(clauses ...string) string {
	return join("AND", clauses)
}

// Or joins the non-empty clauses. A single clause is returned as is.
func Or(clauses ...string) string {
	return join("OR", clauses)
}

func join(fn string, clauses []string) string {
	var kept []string
	for _, c := range clauses {
		if c != "" {
			kept = append(kept, c)
		}
	}

	switch len(kept) {
	case 0:
		return ""
	case 1:
		return kept[0]
	default:
		return fn + "(" + strings.Join(kept, ", ") + ")"
	}
}
