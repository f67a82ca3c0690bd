package query

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEntity = Entity{
	Name:                "mission",
	Table:               "mission",
	Columns:             "id, no, name",
	SearchColumns:       []string{"name"},
	NumericSearchColumn: "no",
	DeletedColumn:       "is_deleted",
	Filter: &Filter{
		Param:  "missionType",
		Column: "mission_type",
		Values: []string{"ท่านอน", "ท่านั่ง"},
	},
	Sorts: map[SortKey]string{
		SortNewest:          "updated_at DESC",
		SortOldest:          "updated_at ASC",
		SortNameAsc:         "name ASC",
		SortSubmissionsDesc: "sub_count DESC, no ASC",
	},
	DefaultLimit: 30,
}

func paramsFor(t *testing.T, e Entity, values url.Values) Params {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/?"+values.Encode(), nil)
	c := echo.New().NewContext(req, httptest.NewRecorder())
	return FromContext(c, e)
}

func TestParseSort(t *testing.T) {
	tests := map[string]SortKey{
		"ใหม่ที่สุด":         SortNewest,
		"เก่าที่สุด":         SortOldest,
		"เรียงจาก ก-ฮ":      SortNameAsc,
		"เรียงชื่อ ฮ-ก":     SortNameDesc,
		"จำนวนท่ามากที่สุด": SortSubmissionsDesc,
		"Z-A":              SortNameDesc,
		" oldest ":         SortOldest,
	}
	for label, want := range tests {
		got, ok := ParseSort(label)
		assert.True(t, ok, label)
		assert.Equal(t, want, got, label)
	}

	_, ok := ParseSort("by-shoe-size")
	assert.False(t, ok)
}

func TestFromContext_Defaults(t *testing.T) {
	p := paramsFor(t, testEntity, url.Values{})

	assert.Equal(t, SortNewest, p.Sort)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 30, p.Limit)
	assert.Nil(t, p.IsDeleted)
	assert.Empty(t, p.Search)
}

func TestFromContext_UnknownSortFallsBackToNewest(t *testing.T) {
	p := paramsFor(t, testEntity, url.Values{"sort": {"whatever"}})
	assert.Equal(t, SortNewest, p.Sort)
}

func TestFromContext_IsDeleted(t *testing.T) {
	p := paramsFor(t, testEntity, url.Values{"isDeleted": {"true"}})
	require.NotNil(t, p.IsDeleted)
	assert.True(t, *p.IsDeleted)

	p = paramsFor(t, testEntity, url.Values{"isDeleted": {"false"}})
	require.NotNil(t, p.IsDeleted)
	assert.False(t, *p.IsDeleted)
}

func TestBuild_DefaultExcludesDeleted(t *testing.T) {
	q := Build(testEntity, Params{Sort: SortNewest})

	assert.Equal(t, "SELECT COUNT(*) FROM mission WHERE 1=1 AND is_deleted IS NOT TRUE", q.CountSQL())
	assert.Empty(t, q.CountArgs())
	assert.Equal(t,
		"SELECT id, no, name FROM mission WHERE 1=1 AND is_deleted IS NOT TRUE ORDER BY updated_at DESC LIMIT $1 OFFSET $2",
		q.DataSQL())
}

func TestBuild_ExplicitDeleted(t *testing.T) {
	deleted := true
	q := Build(testEntity, Params{IsDeleted: &deleted})

	assert.Equal(t, "SELECT COUNT(*) FROM mission WHERE 1=1 AND is_deleted = $1", q.CountSQL())
	assert.Equal(t, []interface{}{true}, q.CountArgs())
}

func TestBuild_SearchWithNumericTerm(t *testing.T) {
	q := Build(testEntity, Params{Search: "12"})

	assert.Contains(t, q.CountSQL(), "(name ILIKE $1 OR no = $2)")
	assert.Equal(t, []interface{}{"%12%", 12}, q.CountArgs())
	assert.Equal(t, []interface{}{"%12%", 12, 30, 0}, q.DataArgs(30, 0))
	assert.Contains(t, q.DataSQL(), "LIMIT $3 OFFSET $4")
}

func TestBuild_SearchTextOnly(t *testing.T) {
	q := Build(testEntity, Params{Search: "แขน"})

	assert.Contains(t, q.CountSQL(), "(name ILIKE $1)")
	assert.NotContains(t, q.CountSQL(), "no =")
	assert.Equal(t, []interface{}{"%แขน%"}, q.CountArgs())
}

func TestBuild_SearchEscapesWildcards(t *testing.T) {
	q := Build(testEntity, Params{Search: "50%_off"})
	assert.Equal(t, []interface{}{`%50\%\_off%`}, q.CountArgs())
}

func TestBuild_Filter(t *testing.T) {
	q := Build(testEntity, Params{Filter: "ท่านอน"})
	assert.Contains(t, q.CountSQL(), "mission_type = $1")
	assert.Equal(t, []interface{}{"ท่านอน"}, q.CountArgs())
}

func TestBuild_SentinelAndUnknownFilterIgnored(t *testing.T) {
	none := Build(testEntity, Params{})
	for _, v := range []string{AllSentinel, "all", "ท่ากระโดด"} {
		q := Build(testEntity, Params{Filter: v})
		assert.Equal(t, none.CountSQL(), q.CountSQL(), v)
		assert.Equal(t, none.CountArgs(), q.CountArgs(), v)
	}
}

func TestBuild_UnsupportedSortFallsBack(t *testing.T) {
	q := Build(testEntity, Params{Sort: SortNameDesc})
	assert.Contains(t, q.DataSQL(), "ORDER BY updated_at DESC")

	q = Build(testEntity, Params{Sort: SortSubmissionsDesc})
	assert.Contains(t, q.DataSQL(), "ORDER BY sub_count DESC, no ASC")
}

func TestBuild_CombinedArgsNumbering(t *testing.T) {
	deleted := false
	q := Build(testEntity, Params{Search: "7", Filter: "ท่านั่ง", IsDeleted: &deleted})

	assert.Equal(t,
		"SELECT COUNT(*) FROM mission WHERE 1=1 AND is_deleted = $1 AND (name ILIKE $2 OR no = $3) AND mission_type = $4",
		q.CountSQL())
	assert.Equal(t, []interface{}{false, "%7%", 7, "ท่านั่ง"}, q.CountArgs())
	assert.Equal(t, 5, q.Idx())
}

func TestEntityValidate(t *testing.T) {
	require.NoError(t, testEntity.Validate())

	bad := testEntity
	bad.Sorts = map[SortKey]string{SortOldest: "updated_at"}
	assert.Error(t, bad.Validate())

	bad = testEntity
	bad.DefaultLimit = 0
	assert.Error(t, bad.Validate())

	bad = testEntity
	bad.Filter = &Filter{Param: "x", Column: "x"}
	assert.Error(t, bad.Validate())

	assert.Panics(t, func() { MustValidate(Entity{Name: "broken"}) })
}
