package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/relay/pkg/auth"
)

func newTestRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", mw, func(c *gin.Context) {
		userID := c.MustGet(UserIDKey).(string)
		c.String(http.StatusOK, userID)
	})
	return r
}

func TestWSIdentityMissingIsRefused(t *testing.T) {
	mgr := auth.NewJWTManager("test-secret", time.Hour)
	r := newTestRouter(WSIdentityMiddleware(mgr, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ws", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWSIdentityFromClaimedUserID(t *testing.T) {
	mgr := auth.NewJWTManager("test-secret", time.Hour)
	r := newTestRouter(WSIdentityMiddleware(mgr, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ws?user_id=42", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "42", w.Body.String())
}

func TestWSIdentityBlankUserIDIsRefused(t *testing.T) {
	mgr := auth.NewJWTManager("test-secret", time.Hour)
	r := newTestRouter(WSIdentityMiddleware(mgr, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ws?user_id=%20%20", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWSIdentityFromToken(t *testing.T) {
	mgr := auth.NewJWTManager("test-secret", time.Hour)
	token, err := mgr.Generate("42")
	require.NoError(t, err)

	r := newTestRouter(WSIdentityMiddleware(mgr, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ws?token="+token, nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "42", w.Body.String())
}

func TestWSIdentityInvalidTokenIsRefused(t *testing.T) {
	mgr := auth.NewJWTManager("test-secret", time.Hour)
	r := newTestRouter(WSIdentityMiddleware(mgr, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ws?token=not-a-jwt", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWSIdentityTokenFromAuthorizationHeader(t *testing.T) {
	mgr := auth.NewJWTManager("test-secret", time.Hour)
	token, err := mgr.Generate("10")
	require.NoError(t, err)

	r := newTestRouter(WSIdentityMiddleware(mgr, nil))

	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "10", w.Body.String())
}

func TestAuthMiddlewareRequiresBearer(t *testing.T) {
	mgr := auth.NewJWTManager("test-secret", time.Hour)
	r := newTestRouter(AuthMiddleware(mgr, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := mgr.Generate("42")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
