package account

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/physiocare/dashboard/internal/platform/apperr"
	"github.com/physiocare/dashboard/internal/platform/auth"
)

type Handler struct {
	svc          *Service
	secureCookie bool
}

// NewHandler builds the auth endpoints. secureCookie marks the session
// cookie Secure and should be set outside development.
func NewHandler(svc *Service, secureCookie bool) *Handler {
	return &Handler{svc: svc, secureCookie: secureCookie}
}

// RegisterRoutes mounts the login flow on public and the session lookup on
// protected, which must already run auth.Middleware.
func (h *Handler) RegisterRoutes(public, protected *echo.Group) {
	g := public.Group("/auth")
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.GET("/logout", h.Logout)
	g.POST("/auto-login", h.AutoLogin)

	protected.GET("/auth/me", h.Me)
}

type msgResponse struct {
	Msg string `json:"msg"`
}

func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("", "invalid request body")
	}
	if _, err := h.svc.Register(c.Request().Context(), req); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, msgResponse{Msg: "user created"})
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("", "invalid request body")
	}
	sess, err := h.svc.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}
	auth.SetTokenCookie(c, sess.Token, sess.ExpiresAt(), h.secureCookie)
	return c.JSON(http.StatusOK, msgResponse{Msg: "เข้าสู่ระบบสำเร็จ"})
}

func (h *Handler) AutoLogin(c echo.Context) error {
	var req AutoLoginRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("", "invalid request body")
	}
	sess, err := h.svc.AutoLogin(c.Request().Context(), req)
	if err != nil {
		return err
	}
	auth.SetTokenCookie(c, sess.Token, sess.ExpiresAt(), h.secureCookie)
	return c.JSON(http.StatusOK, msgResponse{Msg: "เข้าสู่ระบบสำเร็จ"})
}

func (h *Handler) Logout(c echo.Context) error {
	var token string
	if cookie, err := c.Cookie(auth.CookieName); err == nil {
		token = cookie.Value
	}
	if err := h.svc.Logout(c.Request().Context(), token); err != nil {
		return err
	}
	auth.ClearTokenCookie(c, h.secureCookie)
	return c.JSON(http.StatusOK, msgResponse{Msg: "ออกจากระบบสำเร็จ"})
}

func (h *Handler) Me(c echo.Context) error {
	id := auth.UserIDFromContext(c.Request().Context())
	if id == uuid.Nil {
		return apperr.Unauthenticated("authentication invalid")
	}
	u, err := h.svc.Me(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]*User{"user": u})
}
