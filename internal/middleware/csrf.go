package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	csrfFormField  = "_csrf_token"
	csrfHeaderName = "X-CSRF-Token"
	csrfContextKey = "CSRFToken"
)

// CSRF protects state-changing page routes with a token derived from the
// admin session id: base64url(HMAC-SHA256(secret, session id)). It must run
// after Session. Safe methods only expose the token to templates; unsafe
// methods must echo it in the X-CSRF-Token header or the _csrf_token field.
func CSRF(secret string) gin.HandlerFunc {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "csrf secret is required"})
		}
	}
	key := []byte(secret)

	return func(c *gin.Context) {
		sid := GetSessionID(c)
		if sid == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "session missing"})
			return
		}
		want := csrfToken(key, sid)
		c.Set(csrfContextKey, want)

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		got := c.GetHeader(csrfHeaderName)
		if got == "" {
			got = c.PostForm(csrfFormField)
		}
		if got == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "CSRF token missing"})
			return
		}
		if !hmac.Equal([]byte(got), []byte(want)) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "CSRF token invalid"})
			return
		}
		c.Next()
	}
}

func csrfToken(key []byte, sessionID string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(sessionID))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// GetCSRFToken returns the token for templates, or "" outside CSRF routes.
func GetCSRFToken(c *gin.Context) string {
	return c.GetString(csrfContextKey)
}
