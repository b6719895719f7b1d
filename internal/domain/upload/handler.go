package upload

import (
	"errors"
	"mime"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/23f2004399/hms-tool/internal/platform/apperr"
	"github.com/23f2004399/hms-tool/internal/platform/auth"
	"github.com/23f2004399/hms-tool/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the upload endpoints on g, which the router guards
// with the patient role. The upload body limit is applied globally by path.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/upload", h.Upload)
	g.GET("/uploads", h.List)
	g.GET("/uploads/:id", h.Get)
	g.GET("/uploads/:id/file", h.File)
	g.POST("/uploads/:id/explain", h.Explain)
	g.DELETE("/uploads/:id", h.Delete)
}

func (h *Handler) Upload(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	kind, ok := ParseKind(c.FormValue("kind"))
	if !ok {
		return apperr.Validation("kind must be one of PRESCRIPTION LAB_REPORT OTHER")
	}

	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to open uploaded file")
	}
	defer src.Close()

	ctx := c.Request().Context()
	view, err := h.svc.Upload(ctx, auth.UserIDFromContext(ctx), file.Filename, kind, src)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, view)
}

func (h *Handler) List(c echo.Context) error {
	var kind Kind
	if raw := c.QueryParam("kind"); raw != "" {
		k, ok := ParseKind(raw)
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid kind")
		}
		kind = k
	}
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()
	items, total, err := h.svc.List(ctx, auth.UserIDFromContext(ctx), kind, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset).WithLinks(c))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uploadID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	view, err := h.svc.Get(ctx, auth.UserIDFromContext(ctx), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) File(c echo.Context) error {
	id, err := uploadID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	rc, u, err := h.svc.Open(ctx, auth.UserIDFromContext(ctx), id)
	if err != nil {
		return err
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition,
		mime.FormatMediaType("inline", map[string]string{"filename": u.FileName}))
	return c.Stream(http.StatusOK, u.ContentType, rc)
}

func (h *Handler) Explain(c echo.Context) error {
	id, err := uploadID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	view, err := h.svc.Explain(ctx, auth.UserIDFromContext(ctx), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uploadID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.svc.Delete(ctx, auth.UserIDFromContext(ctx), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func uploadID(c echo.Context) (string, error) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}
