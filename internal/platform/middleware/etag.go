package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// bufferedResponseWriter captures the response body in a buffer so we can
// inspect it (for ETag computation) before flushing to the real writer.
type bufferedResponseWriter struct {
	writer     http.ResponseWriter
	buf        *bytes.Buffer
	statusCode int
}

func newBufferedResponseWriter(w http.ResponseWriter) *bufferedResponseWriter {
	return &bufferedResponseWriter{
		writer:     w,
		buf:        &bytes.Buffer{},
		statusCode: http.StatusOK,
	}
}

func (w *bufferedResponseWriter) Header() http.Header {
	return w.writer.Header()
}

func (w *bufferedResponseWriter) Write(b []byte) (int, error) {
	return w.buf.Write(b)
}

func (w *bufferedResponseWriter) WriteHeader(code int) {
	w.statusCode = code
}

func (w *bufferedResponseWriter) flushTo() error {
	w.writer.WriteHeader(w.statusCode)
	if w.buf.Len() > 0 {
		_, err := w.writer.Write(w.buf.Bytes())
		return err
	}
	return nil
}

// ETag computes a weak ETag over successful GET responses and answers
// If-None-Match with 304. Responses are marked "private, no-cache" so a
// browser may keep them but must revalidate every time.
func ETag() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodGet {
				return next(c)
			}

			res := c.Response()
			origWriter := res.Writer
			buf := newBufferedResponseWriter(origWriter)
			res.Writer = buf

			if err := next(c); err != nil {
				res.Writer = origWriter
				// Let the error handler write a fresh response.
				res.Committed = false
				return err
			}
			res.Writer = origWriter

			if buf.statusCode != http.StatusOK {
				return buf.flushTo()
			}

			etag := computeETag(buf.buf.Bytes())
			res.Header().Set("ETag", etag)
			res.Header().Set("Cache-Control", "private, no-cache")

			if inm := req.Header.Get("If-None-Match"); inm != "" && etagMatch(inm, etag) {
				res.Header().Del(echo.HeaderContentType)
				res.Status = http.StatusNotModified
				origWriter.WriteHeader(http.StatusNotModified)
				return nil
			}
			return buf.flushTo()
		}
	}
}

func computeETag(body []byte) string {
	sum := sha256.Sum256(body)
	return `W/"` + hex.EncodeToString(sum[:16]) + `"`
}

// etagMatch checks if the provided If-None-Match header value matches the
// given ETag. Supports comma-separated lists and the wildcard "*".
func etagMatch(headerVal, etag string) bool {
	headerVal = strings.TrimSpace(headerVal)
	if headerVal == "*" {
		return true
	}
	for _, candidate := range strings.Split(headerVal, ",") {
		// Weak comparison: W/"x" matches W/"x" or "x".
		if strings.TrimPrefix(strings.TrimSpace(candidate), "W/") == strings.TrimPrefix(etag, "W/") {
			return true
		}
	}
	return false
}
