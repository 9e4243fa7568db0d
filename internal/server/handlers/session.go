package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/stockroom/internal/service/auth"
)

// SessionCookie carries the access token for browser pages such as the label sheet.
const SessionCookie = "stockroom_session"

const sessionKey = "session"

// BearerToken extracts the access token from the Authorization header or the session cookie.
func BearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}

// SetSession stores the resolved session on the request context.
func SetSession(c *gin.Context, session auth.Session) {
	c.Set(sessionKey, session)
}

// CurrentSession returns the session resolved for the request.
func CurrentSession(c *gin.Context) auth.Session {
	if v, ok := c.Get(sessionKey); ok {
		if session, ok := v.(auth.Session); ok {
			return session
		}
	}
	return auth.Anonymous
}

func actor(c *gin.Context) string {
	return CurrentSession(c).User.Email
}
