package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/simp-lee/logger"
)

const (
	sessionKey    = "session_id"
	newSessionKey = "session_new"
)

// SessionConfig configures the admin session cookie.
type SessionConfig struct {
	CookieName string
	Secure     bool
}

// Session makes sure every request carries an admin session id. A missing or
// malformed cookie is replaced with a new UUID. The id keys the caller's
// workspace on the server; it is not an authentication credential.
func Session(cfg SessionConfig) gin.HandlerFunc {
	name := cfg.CookieName
	if name == "" {
		name = "jetadmin_session"
	}

	return func(c *gin.Context) {
		id := ""
		if v, err := c.Cookie(name); err == nil {
			if parsed, err := uuid.Parse(v); err == nil {
				id = parsed.String()
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     name,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				Secure:   cfg.Secure,
				SameSite: http.SameSiteLaxMode,
			})
			c.Set(newSessionKey, true)
		}

		c.Set(sessionKey, id)
		ctx := logger.WithContextAttrs(c.Request.Context(), slog.String("session", id[:8]))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetSessionID returns the id set by Session, or "".
func GetSessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}

// IsNewSession reports whether Session issued the id on this request, i.e.
// the caller sent no usable session cookie.
func IsNewSession(c *gin.Context) bool {
	return c.GetBool(newSessionKey)
}
