package db

import (
	"fmt"
	"strings"
)

// Patch accumulates the column assignments of a partial UPDATE. Only fields
// the caller explicitly sets are written; updated_at is always refreshed.
type Patch struct {
	sets   []string
	wheres []string
	args   []interface{}
}

// Set assigns value to column.
func (p *Patch) Set(column string, value interface{}) *Patch {
	p.args = append(p.args, value)
	p.sets = append(p.sets, fmt.Sprintf("%s = $%d", column, len(p.args)))
	return p
}

// Where adds a condition. expr must contain exactly one "?" standing for value.
func (p *Patch) Where(expr string, value interface{}) *Patch {
	p.args = append(p.args, value)
	p.wheres = append(p.wheres, strings.Replace(expr, "?", fmt.Sprintf("$%d", len(p.args)), 1))
	return p
}

// Empty reports whether no column has been assigned.
func (p *Patch) Empty() bool { return len(p.sets) == 0 }

// SQL renders the statement. returning may be empty.
func (p *Patch) SQL(table, returning string) (string, []interface{}) {
	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(table)
	b.WriteString(" SET ")
	b.WriteString(strings.Join(p.sets, ", "))
	b.WriteString(", updated_at = NOW()")
	if len(p.wheres) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(p.wheres, " AND "))
	}
	if returning != "" {
		b.WriteString(" RETURNING ")
		b.WriteString(returning)
	}
	return b.String(), p.args
}
