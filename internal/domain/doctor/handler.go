package doctor

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
	g := api.Group("/MPersonnel", auth.RequireRole(auth.RoleStaff))
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.PATCH("/:id/restore", h.Restore)
}

type listResponse struct {
	TotalMPersonnel int       `json:"totalMPersonnel"`
	NumOfPages      int       `json:"numOfPages"`
	CurrentPage     int       `json:"currentPage"`
	MPersonnel      []*Doctor `json:"MPersonnel"`
}

func (h *Handler) List(c echo.Context) error {
	params := query.FromContext(c, Entity)
	doctors, total, err := h.svc.List(c.Request().Context(), params)
	if err != nil {
		return err
	}
	w := pagination.NewWindow(total, params.Params)
	return c.JSON(http.StatusOK, listResponse{
		TotalMPersonnel: w.Total,
		NumOfPages:      w.NumOfPages,
		CurrentPage:     w.CurrentPage,
		MPersonnel:      doctors,
	})
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("", "invalid request body")
	}
	ctx := c.Request().Context()
	d, err := h.svc.Create(ctx, req, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]*Doctor{"doctoruser": d})
}

func (h *Handler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]*Doctor{"doctor": d})
}

func (h *Handler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var patch Patch
	if err := c.Bind(&patch); err != nil {
		return apperr.Validation("", "invalid request body")
	}
	d, err := h.svc.Update(c.Request().Context(), id, patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]*Doctor{"doctor": d})
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.Delete(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]*Doctor{"doctor": d})
}

func (h *Handler) Restore(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.Restore(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]*Doctor{"doctor": d})
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.Validation("id", "invalid id")
	}
	return id, nil
}
