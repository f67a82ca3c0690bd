package pagination

import (
	"math"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit well inside int range.
	MaxPage = math.MaxInt32
)

// Params is a 1-indexed page window.
type Params struct {
	Page  int
	Limit int
}

// FromContext reads ?page= and ?limit=. Missing or invalid values fall back
// to page 1 and defaultLimit; pages above MaxPage and limits above MaxLimit
// are clamped.
func FromContext(c echo.Context, defaultLimit int) Params {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{Page: page, Limit: limit}
}

// Offset is the number of rows skipped before this page.
func (p Params) Offset() int {
	if p.Page < 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// NumOfPages is ceil(total / limit).
func (p Params) NumOfPages(total int) int {
	if p.Limit <= 0 || total <= 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Page < p.NumOfPages(total)
}

// Window is the pagination part shared by every list response.
type Window struct {
	Total       int
	NumOfPages  int
	CurrentPage int
}

func NewWindow(total int, p Params) Window {
	return Window{
		Total:       total,
		NumOfPages:  p.NumOfPages(total),
		CurrentPage: p.Page,
	}
}
