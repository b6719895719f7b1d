package medication

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const comingSoon = "prescriptions are coming soon"

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/prescriptions", h.ComingSoon)
	g.POST("/prescriptions", h.ComingSoon)
	g.GET("/prescriptions/:id", h.ComingSoon)
}

func (h *Handler) ComingSoon(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]string{
		"error": comingSoon,
		"code":  "coming_soon",
	})
}
