package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ws "sewahome/internal/infrastructure/websocket"
	"sewahome/pkg/errors"
)

func TestHandleWebSocketRejectsMissingToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewWebSocketHandler(ws.NewManager(0), nil)

	err := h.HandleWebSocket(c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "UNAUTHENTICATED"))
}
