package roster

import (
	"fmt"
	"strings"
)

// orderBy is the ordering shared by every read query: paternal surname,
// then maternal surname, then given names, ascending.
const orderBy = "paternal_surname, maternal_surname, given_names"

// whereBuilder accumulates WHERE clauses with strictly incrementing
// positional placeholders. Values are always bound as parameters; the
// builder never interpolates them into the query text.
type whereBuilder struct {
	clauses []string
	args    []any
}

func newWhereBuilder() *whereBuilder {
	return &whereBuilder{}
}

// AddEquals appends a case-sensitive equality clause.
func (b *whereBuilder) AddEquals(column, value string) {
	b.args = append(b.args, value)
	b.clauses = append(b.clauses, fmt.Sprintf("%s = $%d", column, len(b.args)))
}

// AddContains appends a case-insensitive substring clause. The wildcard
// wrapping lives in the bound argument, not the query text.
func (b *whereBuilder) AddContains(column, fragment string) {
	b.args = append(b.args, "%"+fragment+"%")
	b.clauses = append(b.clauses, fmt.Sprintf("%s ILIKE $%d", column, len(b.args)))
}

// AddIsNull appends an exact-null clause. No argument is consumed, so
// later placeholders stay correctly indexed.
func (b *whereBuilder) AddIsNull(column string) {
	b.clauses = append(b.clauses, column+" IS NULL")
}

// Build returns the assembled WHERE clause (with a leading space, or the
// empty string when no criteria were added) and the bound arguments.
func (b *whereBuilder) Build() (string, []any) {
	if len(b.clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(b.clauses, " AND "), b.args
}

// identityFilter builds the WHERE clause for an identity lookup. The
// complement narrows the match three ways: absent ("") matches any
// complement, the literal token "null" (any case) matches records whose
// complement IS NULL, and any other string matches case-sensitively.
func identityFilter(id, complement string) (string, []any) {
	wb := newWhereBuilder()
	wb.AddEquals("identity_number", id)

	switch {
	case complement == "":
		// identity number alone; any complement matches
	case strings.EqualFold(complement, "null"):
		wb.AddIsNull("complement")
	default:
		wb.AddEquals("complement", complement)
	}

	return wb.Build()
}

// nameFilter builds the WHERE clause for a name/unit search. Supplied
// fragments are ANDed in a fixed order (paternal surname, given names,
// unit) so placeholder numbering is stable for any subset. Returns
// ErrMissingCriteria when every fragment is empty.
func nameFilter(q NameQuery) (string, []any, error) {
	if q.Paternal == "" && q.Given == "" && q.Unit == "" {
		return "", nil, ErrMissingCriteria
	}

	wb := newWhereBuilder()
	if q.Paternal != "" {
		wb.AddContains("paternal_surname", q.Paternal)
	}
	if q.Given != "" {
		wb.AddContains("given_names", q.Given)
	}
	if q.Unit != "" {
		wb.AddContains("unit", q.Unit)
	}

	where, args := wb.Build()
	return where, args, nil
}
