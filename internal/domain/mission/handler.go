package mission

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/physiocare/dashboard/internal/platform/apperr"
	"github.com/physiocare/dashboard/internal/platform/auth"
	"github.com/physiocare/dashboard/internal/platform/query"
	"github.com/physiocare/dashboard/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/missions", auth.RequireRole(auth.RoleStaff))
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/deleted", h.ListDeleted)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete, auth.RequireRole(auth.RoleAdmin))
	g.PATCH("/:id/soft-delete", h.SoftDelete)
	g.PATCH("/:id/restore", h.Restore)
	g.POST("/:id/submissions", h.AddSubmission)
	g.DELETE("/:id/submissions/:submissionId", h.RemoveSubmission)

	s := api.Group("/submissions", auth.RequireRole(auth.RoleStaff))
	s.GET("", h.ListSubmissions)
	s.GET("/:id", h.GetSubmission)
	s.PATCH("/:id", h.UpdateSubmission)
}

type listResponse struct {
	TotalMissions int        `json:"totalMissions"`
	NumOfPages    int        `json:"numOfPages"`
	CurrentPage   int        `json:"currentPage"`
	Missions      []*Mission `json:"missions"`
}

func (h *Handler) List(c echo.Context) error {
	return h.list(c, query.FromContext(c, Entity))
}

// ListDeleted is the recycle-bin view: the list with isDeleted forced on.
func (h *Handler) ListDeleted(c echo.Context) error {
	params := query.FromContext(c, Entity)
	deleted := true
	params.IsDeleted = &deleted
	return h.list(c, params)
}

func (h *Handler) list(c echo.Context, params query.Params) error {
	missions, total, err := h.svc.List(c.Request().Context(), params)
	if err != nil {
		return err
	}
	w := pagination.NewWindow(total, params.Params)
	return c.JSON(http.StatusOK, listResponse{
		TotalMissions: w.Total,
		NumOfPages:    w.NumOfPages,
		CurrentPage:   w.CurrentPage,
		Missions:      missions,
	})
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("", "invalid request body")
	}
	ctx := c.Request().Context()
	m, err := h.svc.Create(ctx, req, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]*Mission{"mission": m})
}

func (h *Handler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	m, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]*Mission{"mission": m})
}

func (h *Handler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var patch Patch
	if err := c.Bind(&patch); err != nil {
		return apperr.Validation("", "invalid request body")
	}
	ctx := c.Request().Context()
	m, err := h.svc.Update(ctx, id, patch, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]*Mission{"mission": m})
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"msg": "Mission and its submissions deleted"})
}

func (h *Handler) SoftDelete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	m, err := h.svc.SoftDelete(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]*Mission{"mission": m})
}

func (h *Handler) Restore(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	m, err := h.svc.Restore(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]*Mission{"mission": m})
}

func (h *Handler) AddSubmission(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var in SubmissionInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("", "invalid request body")
	}
	m, err := h.svc.AddSubmission(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]*Mission{"mission": m})
}

func (h *Handler) RemoveSubmission(c echo.Context) error {
	missionID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	submissionID, err := parseID(c, "submissionId")
	if err != nil {
		return err
	}
	m, err := h.svc.RemoveSubmission(c.Request().Context(), missionID, submissionID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]*Mission{"mission": m})
}

func (h *Handler) ListSubmissions(c echo.Context) error {
	subs, err := h.svc.ListSubmissions(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"totalSubmissions": len(subs),
		"submissions":      subs,
	})
}

func (h *Handler) GetSubmission(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	sub, err := h.svc.GetSubmission(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]*Submission{"submission": sub})
}

func (h *Handler) UpdateSubmission(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var patch SubmissionPatch
	if err := c.Bind(&patch); err != nil {
		return apperr.Validation("", "invalid request body")
	}
	sub, err := h.svc.UpdateSubmission(c.Request().Context(), id, patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]*Submission{"submission": sub})
}

func parseID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperr.Validation(name, "invalid id")
	}
	return id, nil
}
