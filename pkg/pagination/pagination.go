package pagination

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"
)

const MaxLimit = 100

// Params holds pagination parameters extracted from a request. A zero Limit
// means the full result set.
type Params struct {
	Limit  int
	Offset int
}

// FromContext extracts ?limit and ?offset from the echo context. Missing,
// malformed or non-positive values are ignored; limit is capped at MaxLimit.
func FromContext(c echo.Context) Params {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 0 {
		limit = 0
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}

	return Params{Limit: limit, Offset: offset}
}

// SQL returns the LIMIT and OFFSET clause for SQL queries, or an empty
// string when unbounded.
func (p Params) SQL() string {
	switch {
	case p.Limit > 0:
		return fmt.Sprintf(" LIMIT %d OFFSET %d", p.Limit, p.Offset)
	case p.Offset > 0:
		return fmt.Sprintf(" OFFSET %d", p.Offset)
	default:
		return ""
	}
}

// Response is the list envelope. Count is the number of items in Data.
type Response struct {
	Data  interface{} `json:"data"`
	Count int         `json:"count"`
}

func NewResponse(data interface{}, count int) *Response {
	return &Response{Data: data, Count: count}
}
