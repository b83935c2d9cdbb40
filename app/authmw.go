package app

import (
	"net/http"

	"radio_fleet_tool/auth"

	"github.com/gin-gonic/gin"
)

const SessionCookie = "rft_session"

// PrincipalKey is where AuthRequired leaves the authorized principal in the
// request context.
const PrincipalKey = "principal"

// PublicPaths is the explicit allow-list of operations that bypass the
// session gate. Everything not listed here requires a valid admin session.
var PublicPaths = map[string]bool{
	"/healthz":                true,
	"/api/auth/login":         true,
	"/api/auth/oidc/login":    true,
	"/api/auth/oidc/callback": true,
}

// SessionToken pulls the opaque session token out of the cookie; the token
// itself is never interpreted here.
func SessionToken(c *gin.Context) string {
	ck, err := c.Request.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return ck.Value
}

// AuthRequired is the single authorization entry point. The rejection is the
// same whatever was wrong with the session.
func AuthRequired(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if PublicPaths[c.FullPath()] {
			c.Next()
			return
		}
		p, err := svc.AuthorizeToken(c.Request.Context(), SessionToken(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "invalid credentials or session"})
			return
		}
		c.Set(PrincipalKey, p)
		c.Next()
	}
}
