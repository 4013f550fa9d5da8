package auth

import (
	"convo-hub/domain"
	"convo-hub/errors"
	"convo-hub/infrastructure/http/response"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	SessionKey    = "session"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
	// TokenQueryKey carries the token on websocket upgrades, where browsers
	// cannot set headers.
	TokenQueryKey = "token"
)

// SessionResolver maps the user id of a valid token to a live session.
type SessionResolver interface {
	ResolveSession(userID string) (*domain.Session, error)
}

// RequireSession validates the bearer token, resolves the stored user and
// puts the session in the gin context. Requests without one never reach
// the handlers.
func RequireSession(tokens *TokenIssuer, resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractToken(c)
		if raw == "" {
			abort(c, errors.ErrMissingSession)
			return
		}
		claims, err := tokens.ValidateToken(raw)
		if err != nil {
			abort(c, err)
			return
		}
		session, err := resolver.ResolveSession(claims.UserID)
		if err != nil {
			abort(c, err)
			return
		}
		c.Set(SessionKey, session)
		c.Next()
	}
}

// SessionFrom returns the session set by RequireSession, or nil.
func SessionFrom(c *gin.Context) *domain.Session {
	if value, exists := c.Get(SessionKey); exists {
		if session, ok := value.(*domain.Session); ok {
			return session
		}
	}
	return nil
}

func extractToken(c *gin.Context) string {
	if header := c.GetHeader(AuthHeaderKey); strings.HasPrefix(header, BearerPrefix) {
		return strings.TrimPrefix(header, BearerPrefix)
	}
	return c.Query(TokenQueryKey)
}

func abort(c *gin.Context, err error) {
	response.Fail(c, err)
	c.Abort()
}
