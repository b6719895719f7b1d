package assistant

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
	g.POST("/chat", h.Chat)
}

func (h *Handler) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	reply, err := h.svc.Chat(ctx, auth.UserIDFromContext(ctx), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reply)
}
