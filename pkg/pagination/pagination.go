// Package pagination reads limit/offset query parameters and builds the
// paginated list envelope returned by the API.
package pagination

import (
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Limit  int
	Offset int
}

// FromContext extracts pagination parameters from the echo context. A page
// parameter is accepted as an alternative to offset.
func FromContext(c echo.Context) Params {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset <= 0 {
		if page, _ := strconv.Atoi(c.QueryParam("page")); page > 1 {
			offset = (page - 1) * limit
		}
	}
	if offset < 0 {
		offset = 0
	}

	return Params{Limit: limit, Offset: offset}
}

// Response is the list envelope. Data is never null in JSON.
type Response[T any] struct {
	Data     []T    `json:"data"`
	Total    int    `json:"total"`
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
	HasMore  bool   `json:"has_more"`
	Next     string `json:"next,omitempty"`
	Previous string `json:"previous,omitempty"`
}

func NewResponse[T any](data []T, total, limit, offset int) *Response[T] {
	if data == nil {
		data = []T{}
	}
	return &Response[T]{
		Data:    data,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+limit < total,
	}
}

// WithLinks fills Next and Previous from the request URL, keeping any filter
// parameters the client sent.
func (r *Response[T]) WithLinks(c echo.Context) *Response[T] {
	p := Params{Limit: r.Limit, Offset: r.Offset}
	u := *c.Request().URL
	if p.HasNext(r.Total) {
		r.Next = pageURL(u, p.Limit, p.NextOffset())
	}
	if p.HasPrevious() {
		r.Previous = pageURL(u, p.Limit, p.PreviousOffset())
	}
	return r
}

func pageURL(u url.URL, limit, offset int) string {
	q := u.Query()
	q.Del("page")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	u.RawQuery = q.Encode()
	return u.RequestURI()
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Offset+p.Limit < total
}

// HasPrevious returns true if there are results before the current page.
func (p Params) HasPrevious() bool {
	return p.Offset > 0
}

// NextOffset returns the offset for the next page.
func (p Params) NextOffset() int {
	return p.Offset + p.Limit
}

// PreviousOffset returns the offset for the previous page.
// Returns 0 if the result would be negative.
func (p Params) PreviousOffset() int {
	prev := p.Offset - p.Limit
	if prev < 0 {
		return 0
	}
	return prev
}
