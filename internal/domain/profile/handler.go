package profile

import (
	"encoding/json"
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
	g.GET("/profile", h.Get)
	g.POST("/profile", h.Update)
	g.PUT("/profile", h.Update)
}

func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	view, err := h.svc.Get(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) Update(c echo.Context) error {
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(c.Request().Body).Decode(&fields); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	sess := auth.SessionFromContext(ctx)
	if sess == nil {
		return echo.NewHTTPError(http.StatusUnauthorized)
	}
	view, err := h.svc.Update(ctx, sess.UserID, sess.Role, fields)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "profile updated",
		"profile": view,
	})
}
