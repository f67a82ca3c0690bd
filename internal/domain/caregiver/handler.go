package caregiver

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/physiocare/dashboard/internal/platform/apperr"
	"github.com/physiocare/dashboard/internal/platform/auth"
)

const notFoundMessage = "ไม่พบข้อมูลผู้ดูแล"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/caregiver", auth.RequireRole(auth.RoleStaff))
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/patient/:patientId", h.ForPatient)
	g.GET("/:id", h.GetByIDCard)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

type lookupResponse struct {
	Status    string     `json:"status"`
	Message   string     `json:"message,omitempty"`
	Caregiver *Caregiver `json:"caregiver,omitempty"`
}

type writeResponse struct {
	Status    string     `json:"status"`
	Message   string     `json:"message"`
	Caregiver *Caregiver `json:"caregiver,omitempty"`
}

func (h *Handler) List(c echo.Context) error {
	caregivers, err := h.svc.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":     "Ok",
		"caregivers": caregivers,
	})
}

func (h *Handler) Create(c echo.Context) error {
	var req AttachRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("", "invalid request body")
	}
	res, err := h.svc.Attach(c.Request().Context(), req)
	if err != nil {
		return err
	}
	if res.Created {
		return c.JSON(http.StatusCreated, writeResponse{
			Status:    "Ok",
			Message:   "Caregiver added successfully",
			Caregiver: res.Caregiver,
		})
	}
	return c.JSON(http.StatusOK, writeResponse{
		Status:    "Ok",
		Message:   "User added to existing caregiver with relationship",
		Caregiver: res.Caregiver,
	})
}

func (h *Handler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req AttachRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("", "invalid request body")
	}
	req.CaregiverID = &id
	res, err := h.svc.Attach(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, writeResponse{
		Status:    "Ok",
		Message:   "Updated successfully",
		Caregiver: res.Caregiver,
	})
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req DetachRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("", "invalid request body")
	}
	res, err := h.svc.Detach(c.Request().Context(), id, req.UserID)
	if err != nil {
		return err
	}
	msg := "User removed from caregiver"
	if res.CaregiverDeleted {
		msg = "Caregiver deleted successfully"
	}
	return c.JSON(http.StatusOK, writeResponse{Status: "Ok", Message: msg})
}

// GetByIDCard looks the caregiver up by national ID.
func (h *Handler) GetByIDCard(c echo.Context) error {
	idCard := strings.TrimSpace(c.Param("id"))
	cg, err := h.svc.GetByIDCard(c.Request().Context(), idCard)
	return h.lookup(c, cg, err)
}

func (h *Handler) ForPatient(c echo.Context) error {
	patientID, err := parseID(c, "patientId")
	if err != nil {
		return err
	}
	cg, err := h.svc.ForPatient(c.Request().Context(), patientID)
	return h.lookup(c, cg, err)
}

func (h *Handler) lookup(c echo.Context, cg *Caregiver, err error) error {
	if apperr.IsNotFound(err) {
		return c.JSON(http.StatusNotFound, lookupResponse{Status: "Not Found", Message: notFoundMessage})
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lookupResponse{Status: "Ok", Caregiver: cg})
}

func parseID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperr.Validation(name, "invalid id")
	}
	return id, nil
}
