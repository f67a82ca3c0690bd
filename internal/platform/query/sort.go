package query

import "strings"

// SortKey is the normalized name of a list ordering.
type SortKey string

const (
	SortNewest          SortKey = "newest"
	SortOldest          SortKey = "oldest"
	SortNameAsc         SortKey = "a-z"
	SortNameDesc        SortKey = "z-a"
	SortSubmissionsDesc SortKey = "submissions-desc"
	SortSubmissionsAsc  SortKey = "submissions-asc"
)

// sortAliases maps the labels the dashboard sends (Thai select options and
// their English equivalents) to sort keys.
var sortAliases = map[string]SortKey{
	"ใหม่ที่สุด":          SortNewest,
	"เก่าที่สุด":          SortOldest,
	"เรียงจาก ก-ฮ":       SortNameAsc,
	"เรียงจาก ฮ-ก":       SortNameDesc,
	"เรียงชื่อ ก-ฮ":      SortNameAsc,
	"เรียงชื่อ ฮ-ก":      SortNameDesc,
	"ก-ฮ":               SortNameAsc,
	"ฮ-ก":               SortNameDesc,
	"จำนวนท่ามากที่สุด":  SortSubmissionsDesc,
	"จำนวนท่าน้อยที่สุด": SortSubmissionsAsc,
	"newest":            SortNewest,
	"oldest":            SortOldest,
	"a-z":               SortNameAsc,
	"z-a":               SortNameDesc,
	"submissions-desc":  SortSubmissionsDesc,
	"submissions-asc":   SortSubmissionsAsc,
}

// ParseSort normalizes a sort label. ok is false for unknown labels.
func ParseSort(label string) (SortKey, bool) {
	label = strings.TrimSpace(label)
	if key, ok := sortAliases[label]; ok {
		return key, true
	}
	key, ok := sortAliases[strings.ToLower(label)]
	return key, ok
}
