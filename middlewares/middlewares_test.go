package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/cafe-ordering/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newProtectedRouter(tokens *utils.StaffTokens, roles ...string) *gin.Engine {
	r := gin.New()
	r.GET("/secret", AuthMiddleware(tokens), RequireRole(roles...), func(c *gin.Context) {
		name, _ := c.Get("name")
		c.String(http.StatusOK, "hello %v", name)
	})
	return r
}

func doGet(r http.Handler, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	tokens := utils.NewStaffTokens("secret", time.Hour)
	r := newProtectedRouter(tokens, "staff")

	w := doGet(r, "/secret", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doGet(r, "/secret", "Token abc")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doGet(r, "/secret", "Bearer not.a.jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	other, err := utils.NewStaffTokens("other", time.Hour).Generate(1, "Rina", "staff")
	require.NoError(t, err)
	w = doGet(r, "/secret", "Bearer "+other)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := tokens.Generate(1, "Rina", "staff")
	require.NoError(t, err)
	w = doGet(r, "/secret", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello Rina", w.Body.String())
}

func TestRequireRole(t *testing.T) {
	tokens := utils.NewStaffTokens("secret", time.Hour)
	r := newProtectedRouter(tokens, "staff")

	for role, want := range map[string]int{
		"staff":   http.StatusOK,
		"admin":   http.StatusOK,
		"cleaner": http.StatusForbidden,
	} {
		token, err := tokens.Generate(2, "Budi", role)
		require.NoError(t, err)
		w := doGet(r, "/secret", "Bearer "+token)
		assert.Equal(t, want, w.Code, role)
	}
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.Use(NewRateLimiter(2, time.Hour).RateLimit())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, doGet(r, "/", "").Code)
	assert.Equal(t, http.StatusOK, doGet(r, "/", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, doGet(r, "/", "").Code)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddlewares([]string{"https://staff.cafe.test"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://staff.cafe.test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://staff.cafe.test", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.test")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders(), LoggerMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := doGet(r, "/?x=1", "")
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}
