package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Query accumulates a WHERE clause with positional arguments and renders the
// count and page statements for one entity.
type Query struct {
	table   string
	cols    string
	where   string
	args    []interface{}
	idx     int
	orderBy string
}

// NewQuery starts an unfiltered query selecting cols from table.
func NewQuery(table, cols string) *Query {
	return &Query{table: table, cols: cols, idx: 1}
}

// Build applies the deleted flag, free-text search, categorical filter and
// sort of p to a new query over e.
func Build(e Entity, p Params) *Query {
	q := NewQuery(e.Table, e.Columns)

	if e.DeletedColumn != "" {
		if p.IsDeleted != nil {
			q.Add(fmt.Sprintf("%s = $%d", e.DeletedColumn, q.Idx()), *p.IsDeleted)
		} else {
			q.where += fmt.Sprintf(" AND %s IS NOT TRUE", e.DeletedColumn)
		}
	}

	if p.Search != "" && (len(e.SearchColumns) > 0 || e.NumericSearchColumn != "") {
		q.AddSearch(e.SearchColumns, e.NumericSearchColumn, p.Search)
	}

	if e.Filter.Accepts(p.Filter) {
		q.Add(fmt.Sprintf("%s = $%d", e.Filter.Column, q.Idx()), p.Filter)
	}

	q.OrderBy(e.OrderFor(p.Sort))
	return q
}

// Idx returns the next available parameter index.
func (q *Query) Idx() int { return q.idx }

// Add appends a WHERE fragment (without the leading AND).
func (q *Query) Add(clause string, args ...interface{}) {
	q.where += " AND " + clause
	q.args = append(q.args, args...)
	q.idx += len(args)
}

// AddSearch ORs a case-insensitive substring match over columns, plus an
// equality match on numericCol when term is an integer.
func (q *Query) AddSearch(columns []string, numericCol, term string) {
	var parts []string
	var args []interface{}
	next := q.idx

	if len(columns) > 0 {
		pattern := next
		next++
		args = append(args, "%"+EscapeLike(term)+"%")
		for _, col := range columns {
			parts = append(parts, fmt.Sprintf("%s ILIKE $%d", col, pattern))
		}
	}
	if numericCol != "" {
		if n, err := strconv.Atoi(term); err == nil {
			parts = append(parts, fmt.Sprintf("%s = $%d", numericCol, next))
			args = append(args, n)
		}
	}
	if len(parts) == 0 {
		return
	}
	q.Add("("+strings.Join(parts, " OR ")+")", args...)
}

// OrderBy sets the ORDER BY clause (without the keyword).
func (q *Query) OrderBy(orderBy string) {
	q.orderBy = orderBy
}

// Where returns the accumulated WHERE clause.
func (q *Query) Where() string { return "1=1" + q.where }

// Args returns the positional arguments of the WHERE clause.
func (q *Query) Args() []interface{} { return q.args }

// CountSQL returns the total-count query for the same WHERE clause.
func (q *Query) CountSQL() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", q.table, q.Where())
}

// CountArgs returns the arguments for CountSQL.
func (q *Query) CountArgs() []interface{} {
	return q.args
}

// DataSQL returns the page query with ORDER BY and LIMIT/OFFSET placeholders.
func (q *Query) DataSQL() string {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s", q.cols, q.table, q.Where())
	if q.orderBy != "" {
		sql += " ORDER BY " + q.orderBy
	}
	sql += fmt.Sprintf(" LIMIT $%d OFFSET $%d", q.idx, q.idx+1)
	return sql
}

// DataArgs returns the search args followed by limit and offset.
func (q *Query) DataArgs(limit, offset int) []interface{} {
	result := make([]interface{}, len(q.args)+2)
	copy(result, q.args)
	result[len(q.args)] = limit
	result[len(q.args)+1] = offset
	return result
}

// EscapeLike escapes LIKE metacharacters so user input matches literally.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
