package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds page-based pagination parameters.
type Params struct {
	Page  int
	Limit int
}

// FromContext extracts pagination parameters from the echo context, falling
// back to defaults and clamping out-of-range values. Strict validation with
// field-level errors is done by the query filter builder; this lenient
// variant serves the simple list endpoints.
func FromContext(c echo.Context) Params {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{Page: page, Limit: limit}
}

// Offset returns the row offset of the first item on the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// TotalPages returns ceil(total/limit); 0 when there are no items.
func TotalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// Meta is the pagination metadata attached to list responses.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// Response wraps a page of items with its metadata.
type Response struct {
	Items      interface{} `json:"items"`
	Pagination Meta        `json:"pagination"`
}

func NewResponse(items interface{}, total int, p Params) *Response {
	return &Response{
		Items: items,
		Pagination: Meta{
			Page:       p.Page,
			Limit:      p.Limit,
			TotalItems: total,
			TotalPages: TotalPages(total, p.Limit),
		},
	}
}

// HasNext reports whether a page exists after the current one.
func (p Params) HasNext(total int) bool {
	return p.Page < TotalPages(total, p.Limit)
}

// HasPrevious reports whether a page exists before the current one.
func (p Params) HasPrevious() bool {
	return p.Page > 1
}
