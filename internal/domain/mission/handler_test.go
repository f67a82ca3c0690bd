package mission

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physiocare/dashboard/internal/platform/apperr"
	"github.com/physiocare/dashboard/internal/platform/auth"
)

func newTestHandler() (*Handler, *Service, *echo.Echo) {
	svc, _ := newTestService()
	e := echo.New()
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(zerolog.Nop())
	return NewHandler(svc), svc, e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func withRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := &auth.Claims{Username: "tester", Role: role}
			ctx := auth.WithClaims(c.Request().Context(), claims)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func newRouter(h *Handler, e *echo.Echo, role string) {
	h.RegisterRoutes(e.Group("/api/v1", withRole(role)))
}

func TestHandler_Create(t *testing.T) {
	h, _, e := newTestHandler()
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/",
		`{"name":"ยกแขน","missionType":"ท่ายืน","submission":[{"name":"ท่าที่ 1","imageUrl":"a.png"}]}`), rec)

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Mission Mission `json:"mission"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Mission.No)
	assert.Equal(t, TypeStanding, body.Mission.MissionType)
	require.Len(t, body.Mission.Submissions, 1)
	assert.Equal(t, "a.png", body.Mission.Submissions[0].ImageURL)
}

func TestHandler_ListShape(t *testing.T) {
	h, svc, e := newTestHandler()
	for i := 0; i < 3; i++ {
		createMission(t, svc, "ท่า", i)
	}
	newRouter(h, e, auth.RoleStaff)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/missions?limit=2&page=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 3, body["totalMissions"])
	assert.EqualValues(t, 2, body["numOfPages"])
	assert.EqualValues(t, 2, body["currentPage"])
	assert.Len(t, body["missions"], 1)
}

func TestHandler_ListBySubmissionCountAcrossPages(t *testing.T) {
	h, svc, e := newTestHandler()
	for i, n := range []int{2, 0, 4, 2, 1} {
		createMission(t, svc, "ท่า"+string(rune('A'+i)), n)
	}
	newRouter(h, e, auth.RoleStaff)

	var seen []Mission
	for page := 1; page <= 3; page++ {
		q := url.Values{}
		q.Set("sort", "จำนวนท่ามากที่สุด")
		q.Set("limit", "2")
		q.Set("page", strconv.Itoa(page))

		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/missions?"+q.Encode(), nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var body listResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 5, body.TotalMissions)
		assert.Equal(t, 3, body.NumOfPages)
		for _, m := range body.Missions {
			seen = append(seen, *m)
		}
	}

	require.Len(t, seen, 5)
	for i := 1; i < len(seen); i++ {
		prev, cur := seen[i-1], seen[i]
		assert.GreaterOrEqual(t, len(prev.Submissions), len(cur.Submissions),
			"mission %d follows mission %d", cur.No, prev.No)
		if len(prev.Submissions) == len(cur.Submissions) {
			assert.Less(t, prev.No, cur.No, "ties are ordered by no")
		}
	}
	assert.Equal(t, 3, seen[0].No)
	assert.Equal(t, []int{1, 4}, []int{seen[1].No, seen[2].No})
}

func TestHandler_ListDeleted(t *testing.T) {
	h, svc, e := newTestHandler()
	m := createMission(t, svc, "ท่า", 1)
	createMission(t, svc, "อื่น", 0)
	_, err := svc.SoftDelete(context.Background(), m.ID)
	require.NoError(t, err)
	newRouter(h, e, auth.RoleStaff)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/missions/deleted", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Missions, 1)
	assert.Equal(t, m.ID, body.Missions[0].ID)
}

func TestHandler_HardDeleteRequiresAdmin(t *testing.T) {
	h, svc, e := newTestHandler()
	m := createMission(t, svc, "ท่า", 2)
	newRouter(h, e, auth.RoleStaff)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/missions/"+m.ID.String(), nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin, _, ea := newTestHandler()
	admin.svc = svc
	newRouter(admin, ea, auth.RoleAdmin)
	rec = httptest.NewRecorder()
	ea.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/missions/"+m.ID.String(), nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	_, err := svc.Get(context.Background(), m.ID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestHandler_RemoveSubmissionThroughRouter(t *testing.T) {
	h, svc, e := newTestHandler()
	m := createMission(t, svc, "ท่า", 2)
	newRouter(h, e, auth.RoleStaff)

	rec := httptest.NewRecorder()
	target := "/api/v1/missions/" + m.ID.String() + "/submissions/" + m.Submissions[0].ID.String()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, target, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Mission Mission `json:"mission"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Mission.Submissions, 1)
	assert.Equal(t, m.Submissions[1].ID, body.Mission.Submissions[0].ID)
}

func TestHandler_InvalidID(t *testing.T) {
	h, _, e := newTestHandler()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	assert.ErrorIs(t, h.Get(c), apperr.ErrValidation)
}
