package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func cursorParamsFor(t *testing.T, target string) CursorParams {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return GetCursorParams(e.NewContext(req, rec))
}

func TestGetCursorParams(t *testing.T) {
	params := cursorParamsFor(t, "/v1/conversations/bram/messages")
	assert.Equal(t, 50, params.Limit)
	assert.Empty(t, params.Cursor)

	params = cursorParamsFor(t, "/v1/conversations/bram/messages?limit=10&cursor=m42")
	assert.Equal(t, 10, params.Limit)
	assert.Equal(t, "m42", params.Cursor)

	// Out-of-range limits fall back to the default page size.
	params = cursorParamsFor(t, "/v1/conversations/bram/messages?limit=500")
	assert.Equal(t, 50, params.Limit)

	params = cursorParamsFor(t, "/v1/conversations/bram/messages?limit=-1")
	assert.Equal(t, 50, params.Limit)
}
