package patient

import (
	"fmt"
	"net/http"
	"time"

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
	g := api.Group("/allusers", auth.RequireRole(auth.RoleStaff))
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/export", h.Export)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.PATCH("/:id/restore", h.Restore)
}

type listResponse struct {
	TotalPatients int        `json:"totalPatients"`
	NumOfPages    int        `json:"numOfPages"`
	CurrentPage   int        `json:"currentPage"`
	AllUsers      []*Patient `json:"allusers"`
}

func (h *Handler) List(c echo.Context) error {
	params := query.FromContext(c, Entity)
	patients, total, err := h.svc.List(c.Request().Context(), params)
	if err != nil {
		return err
	}
	w := pagination.NewWindow(total, params.Params)
	return c.JSON(http.StatusOK, listResponse{
		TotalPatients: w.Total,
		NumOfPages:    w.NumOfPages,
		CurrentPage:   w.CurrentPage,
		AllUsers:      patients,
	})
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("", "invalid request body")
	}
	ctx := c.Request().Context()
	p, err := h.svc.Create(ctx, req, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]*Patient{"patientuser": p})
}

func (h *Handler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]*Patient{"patient": p})
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
	ctx := c.Request().Context()
	p, err := h.svc.Update(ctx, id, patch, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]*Patient{"patient": p})
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	p, err := h.svc.Delete(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]*Patient{"patient": p})
}

func (h *Handler) Restore(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	p, err := h.svc.Restore(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]*Patient{"patient": p})
}

func (h *Handler) Export(c echo.Context) error {
	data, err := h.svc.Export(c.Request().Context(), query.FromContext(c, Entity))
	if err != nil {
		return err
	}
	name := fmt.Sprintf("patients-%s.xlsx", time.Now().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.Validation("id", "invalid id")
	}
	return id, nil
}
