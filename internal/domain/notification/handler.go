package notification

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/23f2004399/hms-tool/internal/platform/auth"
	"github.com/23f2004399/hms-tool/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the notification endpoints on a group that already
// requires a session.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/notifications", h.List)
	g.GET("/notifications/unread-count", h.UnreadCount)
	g.POST("/notifications/read", h.MarkAllRead)
	g.DELETE("/notifications/read", h.DeleteRead)
}

func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	unreadOnly := false
	if v := c.QueryParam("unread"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unread must be true or false")
		}
		unreadOnly = b
	}

	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(ctx, auth.UserIDFromContext(ctx), unreadOnly, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset).WithLinks(c))
}

func (h *Handler) UnreadCount(c echo.Context) error {
	ctx := c.Request().Context()
	n, err := h.svc.UnreadCount(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, UnreadCount{Count: n})
}

func (h *Handler) MarkAllRead(c echo.Context) error {
	ctx := c.Request().Context()
	n, err := h.svc.MarkAllRead(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int{"updated": n})
}

func (h *Handler) DeleteRead(c echo.Context) error {
	ctx := c.Request().Context()
	n, err := h.svc.DeleteRead(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int{"deleted": n})
}
