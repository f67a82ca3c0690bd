package query

import (
	"errors"
	"fmt"
	"strings"
)

// AllSentinel is the filter value meaning "do not filter".
const AllSentinel = "ทั้งหมด"

// Filter is a categorical, exact-match filter on one enum column.
type Filter struct {
	Param  string
	Column string
	Values []string
}

// Accepts reports whether v is one of the allowed values. The sentinel and
// unknown values are not accepted, so the filter is skipped for them.
func (f *Filter) Accepts(v string) bool {
	if f == nil || v == "" || v == AllSentinel || strings.EqualFold(v, "all") {
		return false
	}
	for _, allowed := range f.Values {
		if allowed == v {
			return true
		}
	}
	return false
}

// Entity describes how one table is searched, filtered, sorted and paged.
type Entity struct {
	Name    string
	Table   string
	Columns string

	// SearchColumns are matched case-insensitively as substrings, ORed.
	SearchColumns []string
	// NumericSearchColumn, when set, is matched for equality if the search
	// term parses as an integer.
	NumericSearchColumn string

	// DeletedColumn holds the soft-delete flag. Empty disables the filter.
	DeletedColumn string

	Filter *Filter

	// Sorts maps each supported key to an ORDER BY expression. SortNewest is
	// the fallback for unknown or unsupported keys and must be present.
	Sorts map[SortKey]string

	DefaultLimit int
}

// Validate rejects incomplete configurations. Entities are validated once at
// startup so a bad config never reaches a request.
func (e Entity) Validate() error {
	var errs []error
	if e.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if e.Table == "" || e.Columns == "" {
		errs = append(errs, errors.New("table and columns are required"))
	}
	if e.DefaultLimit <= 0 {
		errs = append(errs, fmt.Errorf("default limit must be positive, got %d", e.DefaultLimit))
	}
	if _, ok := e.Sorts[SortNewest]; !ok {
		errs = append(errs, errors.New("sort map must define newest"))
	}
	for key, expr := range e.Sorts {
		if strings.TrimSpace(expr) == "" {
			errs = append(errs, fmt.Errorf("sort %q has an empty expression", key))
		}
	}
	if e.Filter != nil {
		if e.Filter.Param == "" || e.Filter.Column == "" {
			errs = append(errs, errors.New("filter param and column are required"))
		}
		if len(e.Filter.Values) == 0 {
			errs = append(errs, errors.New("filter must list its allowed values"))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("query entity %q: %w", e.Name, err)
	}
	return nil
}

// MustValidate panics on an invalid entity. Used for package-level configs.
func MustValidate(e Entity) Entity {
	if err := e.Validate(); err != nil {
		panic(err)
	}
	return e
}

// OrderFor returns the ORDER BY expression for key, falling back to newest.
func (e Entity) OrderFor(key SortKey) string {
	if expr, ok := e.Sorts[key]; ok {
		return expr
	}
	return e.Sorts[SortNewest]
}
