package identity

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/23f2004399/hms-tool/internal/platform/auth"
	"github.com/23f2004399/hms-tool/pkg/pagination"
)

type Handler struct {
	svc    *Service
	cookie auth.CookieConfig
}

func NewHandler(svc *Service, cookie auth.CookieConfig) *Handler {
	return &Handler{svc: svc, cookie: cookie}
}

// RegisterRoutes mounts the account endpoints. authLimit is applied to the
// credential endpoints only; directory is applied to the doctor listing.
func (h *Handler) RegisterRoutes(public, protected *echo.Group, authLimit echo.MiddlewareFunc, directory ...echo.MiddlewareFunc) {
	public.POST("/register", h.Register, authLimit)
	public.POST("/login", h.Login, authLimit)

	protected.GET("/logout", h.Logout)
	protected.POST("/logout", h.Logout)
	protected.POST("/password", h.ChangePassword)
	protected.GET("/doctors", h.ListDoctors, directory...)
	protected.GET("/doctors/:id", h.GetDoctor, directory...)
}

func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	u, err := h.svc.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "registration successful, please log in",
		"user":    u,
	})
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	u, sess, token, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	auth.SetSessionCookie(c, h.cookie, token, sess.ExpiresAt)
	return c.JSON(http.StatusOK, LoginResponse{Token: token, ExpiresAt: sess.ExpiresAt, User: u})
}

func (h *Handler) Logout(c echo.Context) error {
	token := auth.TokenFromRequest(c, h.cookie.Name)
	if err := h.svc.Logout(c.Request().Context(), token); err != nil {
		return err
	}
	auth.ClearSessionCookie(c, h.cookie)
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *Handler) ChangePassword(c echo.Context) error {
	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	sess := auth.SessionFromContext(ctx)
	if sess == nil {
		return echo.NewHTTPError(http.StatusUnauthorized)
	}
	if err := h.svc.ChangePassword(ctx, sess.UserID, sess.ID, req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "password changed"})
}

func (h *Handler) ListDoctors(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListDoctors(c.Request().Context(), c.QueryParam("specialization"), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset).WithLinks(c))
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}
