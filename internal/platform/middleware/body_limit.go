package middleware

import (
	"math"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"
)

// DefaultBodyLimit is used when a limit string cannot be parsed.
const DefaultBodyLimit int64 = 1 << 20

// BodyLimit caps request bodies. POSTs to one of uploadPaths get uploadLimit,
// every other request gets defaultLimit. Both are size strings understood by
// ParseLimit.
//
// Declared lengths over the limit are answered with 413 straight away. Bodies
// without a usable Content-Length are cut off while reading, and the read
// fails with *http.MaxBytesError, which ErrorHandler also maps to 413.
func BodyLimit(defaultLimit, uploadLimit string, uploadPaths ...string) echo.MiddlewareFunc {
	limits := bodyLimits{
		fallback: ParseLimit(defaultLimit),
		upload:   ParseLimit(uploadLimit),
		paths:    make(map[string]struct{}, len(uploadPaths)),
	}
	for _, p := range uploadPaths {
		limits.paths[p] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.Body == http.NoBody {
				return next(c)
			}

			limit := limits.forRequest(req)
			if req.ContentLength > limit {
				return WriteError(c, http.StatusRequestEntityTooLarge,
					"request body exceeds the maximum allowed size of "+humanize.IBytes(uint64(limit)))
			}
			req.Body = http.MaxBytesReader(c.Response(), req.Body, limit)
			return next(c)
		}
	}
}

type bodyLimits struct {
	fallback int64
	upload   int64
	paths    map[string]struct{}
}

func (l bodyLimits) forRequest(r *http.Request) int64 {
	if r.Method != http.MethodPost {
		return l.fallback
	}
	if _, ok := l.paths[r.URL.Path]; ok {
		return l.upload
	}
	return l.fallback
}

// ParseLimit turns a size such as "16M", "512KiB" or "1024" into bytes. A bare
// K, M or G suffix is binary, so "16M" is 16 MiB; explicit SI units ("16MB")
// keep their decimal meaning. Empty or invalid input yields DefaultBodyLimit.
func ParseLimit(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultBodyLimit
	}
	switch s[len(s)-1] {
	case 'k', 'K', 'm', 'M', 'g', 'G':
		s += "iB"
	}
	n, err := humanize.ParseBytes(s)
	if err != nil || n > math.MaxInt64 {
		return DefaultBodyLimit
	}
	return int64(n)
}
