package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// CookieName is the admin session cookie.
const CookieName = "regportal_session"

// ClaimsKey is the gin context key holding the verified Claims.
const ClaimsKey = "claims"

var errNoSession = errors.New("no session")

// Sessions issues, verifies and ends admin sessions carried in a cookie.
type Sessions struct {
	Key     string
	Issuer  string
	TTL     time.Duration
	Revoker Revoker
	// Secure marks the cookie HTTPS-only.
	Secure bool
}

// Start issues a session for subject and sets the cookie.
func (s *Sessions) Start(c *gin.Context, subject string) (Session, error) {
	sess, err := Issue(subject, RoleAdmin, s.Issuer, s.Key, s.TTL)
	if err != nil {
		return Session{}, err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, sess.Token, int(s.TTL.Seconds()), "/", "", s.Secure, true)
	return sess, nil
}

// End revokes the current session, if any, and clears the cookie.
func (s *Sessions) End(c *gin.Context) error {
	var err error
	if claims, verr := s.verify(c.Request.Context(), tokenFrom(c)); verr == nil && s.Revoker != nil {
		err = s.Revoker.Revoke(c.Request.Context(), claims.ID, claims.ExpiresAt.Time)
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, "", -1, "/", "", s.Secure, true)
	return err
}

// Current returns the verified claims of the request's session.
func (s *Sessions) Current(c *gin.Context) (Claims, error) {
	return s.verify(c.Request.Context(), tokenFrom(c))
}

// RequireAdmin rejects requests without a valid admin session. JSON clients
// get 401; browsers are redirected to the login page.
func (s *Sessions) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := s.Current(c)
		if err != nil || claims.Role != RoleAdmin {
			if WantsJSON(c) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized. Please login at /login"})
				return
			}
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

func (s *Sessions) verify(ctx context.Context, token string) (Claims, error) {
	if token == "" {
		return Claims{}, errNoSession
	}
	claims, err := Parse(token, s.Key, s.Issuer)
	if err != nil {
		return Claims{}, err
	}
	if s.Revoker != nil {
		revoked, err := s.Revoker.Revoked(ctx, claims.ID)
		if err != nil {
			return Claims{}, err
		}
		if revoked {
			return Claims{}, errors.New("session revoked")
		}
	}
	return claims, nil
}

// tokenFrom reads the session cookie, falling back to a bearer header.
func tokenFrom(c *gin.Context) string {
	if v, err := c.Cookie(CookieName); err == nil && v != "" {
		return v
	}
	authz := c.GetHeader("Authorization")
	if len(authz) > len("bearer ") && strings.EqualFold(authz[:len("bearer ")], "bearer ") {
		return strings.TrimSpace(authz[len("bearer "):])
	}
	return ""
}

// WantsJSON reports whether the client asked for a JSON response.
func WantsJSON(c *gin.Context) bool {
	return strings.HasPrefix(c.GetHeader("Accept"), "application/json")
}
