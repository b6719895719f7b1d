package dashboard

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/23f2004399/hms-tool/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/dashboard", h.Get)
}

func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	sess := auth.SessionFromContext(ctx)
	if sess == nil {
		return echo.NewHTTPError(http.StatusUnauthorized)
	}
	view, err := h.svc.Get(ctx, sess.UserID, sess.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}
