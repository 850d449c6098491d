package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/damoang/angple-cms/pkg/jwt"
	"github.com/damoang/angple-cms/pkg/requestcontext"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	requestID string
	clientIP  string
	userAgent string
	sessionID string
	locale    string
	actorID   uint64
}

func newRouter(capture *captured, handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	r.GET("/ping", func(c *gin.Context) {
		ctx := c.Request.Context()
		*capture = captured{
			requestID: requestcontext.RequestID(ctx),
			clientIP:  requestcontext.ClientIP(ctx),
			userAgent: requestcontext.UserAgent(ctx),
			sessionID: requestcontext.SessionID(ctx),
			locale:    requestcontext.Locale(ctx),
			actorID:   requestcontext.ActorID(ctx),
		}
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestRequestContext_PopulatesContext(t *testing.T) {
	var got captured
	r := newRouter(&got, RequestContext())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("User-Agent", "editor-ui/1.0")
	req.Header.Set("Accept-Language", "ja-JP,ja;q=0.9")
	req.Header.Set(HeaderSessionID, "header-session")
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "cookie-session"})
	req.RemoteAddr = "203.0.113.9:5555"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Len(t, got.requestID, 8)
	assert.Equal(t, got.requestID, w.Header().Get(HeaderRequestID))
	assert.Equal(t, "203.0.113.9", got.clientIP)
	assert.Equal(t, "editor-ui/1.0", got.userAgent)
	assert.Equal(t, "cookie-session", got.sessionID)
	assert.Equal(t, "ja", got.locale)
	assert.Equal(t, "ja", w.Header().Get("Content-Language"))
	assert.Zero(t, got.actorID)
}

func TestRequestContext_KeepsIncomingRequestID(t *testing.T) {
	var got captured
	r := newRouter(&got, RequestContext())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "abc123")
	req.Header.Set(HeaderSessionID, "header-session")
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "abc123", got.requestID)
	assert.Equal(t, "header-session", got.sessionID)
	assert.Equal(t, "en", got.locale)
}

func TestJWTAuth(t *testing.T) {
	mgr := jwt.NewManager("secret", "angple-cms", time.Hour)
	token, err := mgr.Issue(7, "editor", 3)
	require.NoError(t, err)

	t.Run("valid token sets actor", func(t *testing.T) {
		var got captured
		r := newRouter(&got, RequestContext(), JWTAuth(mgr, false))
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.EqualValues(t, 7, got.actorID)
		assert.NotEmpty(t, got.requestID, "request context survives auth")
	})

	t.Run("missing header required", func(t *testing.T) {
		var got captured
		r := newRouter(&got, JWTAuth(mgr, false))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing header optional", func(t *testing.T) {
		var got captured
		r := newRouter(&got, JWTAuth(mgr, true))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Zero(t, got.actorID)
	})

	t.Run("bad token optional", func(t *testing.T) {
		var got captured
		r := newRouter(&got, JWTAuth(mgr, true))
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Authorization", "Bearer nope")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireLevel(t *testing.T) {
	mgr := jwt.NewManager("secret", "angple-cms", time.Hour)
	low, err := mgr.Issue(7, "viewer", 1)
	require.NoError(t, err)

	var got captured
	r := newRouter(&got, JWTAuth(mgr, true), RequireLevel(5))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+low)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSecurityHeaders(t *testing.T) {
	var got captured
	r := newRouter(&got, SecurityHeaders(), Metrics(), RequestLogger())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}
