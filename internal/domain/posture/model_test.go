package posture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physiocare/dashboard/internal/platform/apperr"
)

var t0 = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func urls(v ...string) *[]string { return &v }

func TestCreateRequest_Posture(t *testing.T) {
	p, err := CreateRequest{
		NoPostures:   "P-01",
		NamePostures: "ยกแขน",
		UserType:     "ท่ายืน",
		ImageURLs:    urls(" https://cdn/a.png ", ""),
		VideoURLs:    urls(),
	}.Posture(t0)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://cdn/a.png"}, p.ImageURLs)
	assert.NotNil(t, p.VideoURLs)
	assert.Empty(t, p.VideoURLs)
	assert.Equal(t, t0, p.CreatedAt)
}

func TestCreateRequest_Validation(t *testing.T) {
	tests := map[string]CreateRequest{
		"missing no":     {NamePostures: "x", ImageURLs: urls(), VideoURLs: urls()},
		"missing name":   {NoPostures: "1", ImageURLs: urls(), VideoURLs: urls()},
		"bad user type":  {NoPostures: "1", NamePostures: "x", UserType: "ท่ากระโดด", ImageURLs: urls(), VideoURLs: urls()},
		"missing images": {NoPostures: "1", NamePostures: "x", VideoURLs: urls()},
		"missing videos": {NoPostures: "1", NamePostures: "x", ImageURLs: urls()},
	}
	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := req.Posture(t0)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestPatch_Apply(t *testing.T) {
	p := &Posture{NoPostures: "1", NamePostures: "ยกแขน", ImageURLs: []string{"a"}, VideoURLs: []string{"v"}}

	name := "ยกขา"
	require.NoError(t, Patch{NamePostures: &name, ImageURLs: urls("b", "c")}.apply(p))
	assert.Equal(t, "ยกขา", p.NamePostures)
	assert.Equal(t, []string{"b", "c"}, p.ImageURLs)
	assert.Equal(t, []string{"v"}, p.VideoURLs)
	assert.Equal(t, "1", p.NoPostures)

	blank := " "
	assert.ErrorIs(t, Patch{NoPostures: &blank}.apply(p), apperr.ErrValidation)
}
