package scheduling

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const comingSoon = "appointment booking is coming soon"

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/appointments", h.ComingSoon)
	g.POST("/appointments", h.ComingSoon)
	g.GET("/appointments/:id", h.ComingSoon)
	g.POST("/appointments/:id/accept", h.ComingSoon)
	g.POST("/appointments/:id/reject", h.ComingSoon)
}

func (h *Handler) ComingSoon(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]string{
		"error": comingSoon,
		"code":  "coming_soon",
	})
}
