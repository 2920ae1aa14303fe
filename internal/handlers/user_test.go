package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ws "github.com/avolkov/relay/internal/websocket"
)

func TestGetOnlineUsers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	hub := ws.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	connect(t, hub, "42")
	connect(t, hub, "10")

	h := NewUserHandler(nil, nil, hub)
	r := gin.New()
	r.GET("/api/v1/users/online", h.GetOnline)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/users/online", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Users []string `json:"users"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.ElementsMatch(t, []string{"10", "42"}, body.Users)
}
