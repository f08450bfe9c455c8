package utils

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// CursorParams represents cursor-based pagination parameters
type CursorParams struct {
	Cursor string
	Limit  int
}

// GetCursorParams extracts cursor pagination parameters from request
func GetCursorParams(c echo.Context) CursorParams {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	if limit <= 0 || limit > 100 {
		limit = 50 // Default page size
	}

	return CursorParams{
		Cursor: c.QueryParam("cursor"),
		Limit:  limit,
	}
}
