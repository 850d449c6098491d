package middleware

import (
	"github.com/damoang/angple-cms/pkg/i18n"
	"github.com/damoang/angple-cms/pkg/requestcontext"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderSessionID = "X-Session-ID"
	SessionCookie   = "cms_session"

	requestIDKey = "request_id"
	localeKey    = "locale"
)

// RequestContext copies request metadata into the request's context.Context
// so the revision engine can read it without knowing about gin.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()[:8]
		}
		c.Set(requestIDKey, requestID)
		c.Header(HeaderRequestID, requestID)

		locale := i18n.ParseAcceptLanguage(c.GetHeader("Accept-Language"))
		c.Set(localeKey, locale)
		c.Header("Content-Language", string(locale))

		ctx := c.Request.Context()
		ctx = requestcontext.WithRequestID(ctx, requestID)
		ctx = requestcontext.WithClientIP(ctx, c.ClientIP())
		ctx = requestcontext.WithUserAgent(ctx, c.Request.UserAgent())
		ctx = requestcontext.WithLocale(ctx, string(locale))
		if sid := sessionID(c); sid != "" {
			ctx = requestcontext.WithSessionID(ctx, sid)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// sessionID prefers the cookie over the header
func sessionID(c *gin.Context) string {
	if v, err := c.Cookie(SessionCookie); err == nil && v != "" {
		return v
	}
	return c.GetHeader(HeaderSessionID)
}

// GetRequestID returns the id assigned by RequestContext
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// GetLocale returns the locale from the gin context
func GetLocale(c *gin.Context) i18n.Locale {
	if v, exists := c.Get(localeKey); exists {
		if locale, ok := v.(i18n.Locale); ok {
			return locale
		}
	}
	return i18n.LocaleEn
}
