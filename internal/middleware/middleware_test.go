package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const secret = "test-secret"

func sign(t *testing.T, roles []string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":   "u1",
		"name":  "Ann",
		"roles": roles,
		"exp":   exp.Unix(),
	})
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func router(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/x", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": c.GetString("user_id")})
	})
	return r
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	r := router(JWTAuth(secret))

	w := get(r, "/x", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Authorization is required"}`, w.Body.String())

	w = get(r, "/x", sign(t, nil, time.Now().Add(-time.Hour)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = get(r, "/x", sign(t, nil, time.Now().Add(time.Hour)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"u1"}`, w.Body.String())

	w = get(r, "/x?token="+sign(t, nil, time.Now().Add(time.Hour)), "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOptionalAuthDisabled(t *testing.T) {
	w := get(router(OptionalAuth(false, "")), "/x", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRole(t *testing.T) {
	r := router(JWTAuth(secret), RequireRole("form_editor"))

	w := get(r, "/x", sign(t, []string{"viewer"}, time.Now().Add(time.Hour)))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = get(r, "/x", sign(t, []string{AdminRole}, time.Now().Add(time.Hour)))
	assert.Equal(t, http.StatusOK, w.Code)

	// 未启用鉴权时不检查角色
	w = get(router(RequireRole("form_editor")), "/x", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestIDAndLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := router(RequestID(), Logger(zap.New(core)))

	w := get(r, "/x", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	entries := logs.FilterMessage("Request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, w.Header().Get("X-Request-ID"), entries[0].ContextMap()["request_id"])

	get(r, "/missing", "")
	assert.Equal(t, 1, logs.FilterMessage("Client error").Len())
}

func TestCORS(t *testing.T) {
	w := get(router(CORS()), "/x", "")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	r := router(CORS("app.example.com", "*.internal.example.com"))
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.net")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	assert.True(t, OriginAllowed([]string{"*.internal.example.com"}, "http://ops.internal.example.com"))
	assert.False(t, OriginAllowed([]string{"app.example.com"}, ""))
}
