package stats

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physiocare/dashboard/internal/platform/apperr"
)

type stubRepo struct {
	status        map[string]int
	total         int
	therapy       int
	therapyMonths []MonthRow
	allMonths     []MonthRow
	ages          []AgeRow
	asOf          time.Time
	err           error
}

func (s *stubRepo) StatusCounts(context.Context) (map[string]int, error) { return s.status, s.err }

func (s *stubRepo) Totals(context.Context) (int, int, error) { return s.total, s.therapy, s.err }

func (s *stubRepo) Months(_ context.Context, therapyOnly bool, _ int) ([]MonthRow, error) {
	if therapyOnly {
		return s.therapyMonths, s.err
	}
	return s.allMonths, s.err
}

func (s *stubRepo) Ages(_ context.Context, asOf time.Time) ([]AgeRow, error) {
	s.asOf = asOf
	return s.ages, s.err
}

func TestReport(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	repo := &stubRepo{
		status:        map[string]int{"กำลังรักษา": 5, "จบการรักษา": 2},
		total:         7,
		therapy:       5,
		therapyMonths: []MonthRow{{month(2024, time.June), 5}},
		allMonths:     []MonthRow{{month(2024, time.June), 6}, {month(2024, time.May), 1}},
		ages:          []AgeRow{{Gender: "ชาย", Age: 45, PhysicalTherapy: true, Count: 5}},
	}
	svc := NewService(repo)
	svc.now = func() time.Time { return now }

	r, err := svc.Report(context.Background())
	require.NoError(t, err)

	assert.Equal(t, DefaultStats{Active: 5, Ended: 2, Total: 7, PhysicalTherapy: 5}, r.DefaultStats)
	assert.Equal(t, []MonthlyCount{{"Jun 2024", 5}}, r.MonthlyApplications)
	assert.Equal(t, []MonthlyCount{{"May 2024", 1}, {"Jun 2024", 6}}, r.MonthlyApplications2)
	assert.Equal(t, []GenderAgeCount{{"ชาย", "40-59", 5}}, r.GenderAgeStatsPhysicalTherapy)
	assert.Equal(t, now, repo.asOf)
}

func TestReport_StoreErrorIsInternal(t *testing.T) {
	svc := NewService(&stubRepo{err: errors.New("connection reset")})
	_, err := svc.Report(context.Background())
	assert.ErrorIs(t, err, apperr.ErrInternal)
}

func TestHandler_Show(t *testing.T) {
	h := NewHandler(NewService(&stubRepo{status: map[string]int{}}))
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/allusers/stats", nil), rec)

	require.NoError(t, h.Show(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	for _, key := range []string{"defaultStats", "monthlyApplications", "monthlyApplications2",
		"genderAgeStats", "genderAgeStatsPhysicalTherapy"} {
		assert.Contains(t, body, key)
	}
	assert.JSONEq(t, `[]`, string(body["genderAgeStats"]))
}
