package query

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/physiocare/dashboard/pkg/pagination"
)

// Params are the flat list parameters of one request.
type Params struct {
	Search    string
	Filter    string
	Sort      SortKey
	IsDeleted *bool
	pagination.Params
}

// FromContext reads search, the entity's filter parameter, sort, page,
// limit and isDeleted from the query string.
func FromContext(c echo.Context, e Entity) Params {
	p := Params{
		Search: strings.TrimSpace(c.QueryParam("search")),
		Params: pagination.FromContext(c, e.DefaultLimit),
	}
	if e.Filter != nil {
		p.Filter = strings.TrimSpace(c.QueryParam(e.Filter.Param))
	}

	p.Sort = SortNewest
	if key, ok := ParseSort(c.QueryParam("sort")); ok {
		p.Sort = key
	}

	// Any supplied value selects exactly that flag; only "true" means deleted.
	if values, ok := c.QueryParams()["isDeleted"]; ok && len(values) > 0 {
		deleted := values[0] == "true"
		p.IsDeleted = &deleted
	}
	return p
}
