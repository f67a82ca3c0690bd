package stats

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/physiocare/dashboard/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts GET /allusers/stats. echo matches the static path
// ahead of the patient /allusers/:id route.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/allusers/stats", h.Show, auth.RequireRole(auth.RoleStaff))
}

func (h *Handler) Show(c echo.Context) error {
	report, err := h.svc.Report(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}
