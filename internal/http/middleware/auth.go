// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file authenticates tenants. Sessions are owned by a hosted auth
// service which issues HS256 access tokens; we only verify them. The token
// subject is the tenant (user) id.
//
// When no signing secret is configured the middleware runs in development
// mode and trusts the X-User-ID header instead.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// UserIDKey is the Gin context key holding the authenticated tenant id.
	UserIDKey = "userID"
	// UserEmailKey holds the email claim when the token carries one.
	UserEmailKey = "userEmail"
	// HeaderUserID is trusted only in development mode.
	HeaderUserID = "X-User-ID"
)

// AuthOptions configures Auth.
type AuthOptions struct {
	// Secret verifies token signatures. Empty enables development mode.
	Secret string
	// Audience, when set, must appear in the token's aud claim.
	Audience string
}

// Claims are the access-token claims we read.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Auth identifies the caller and stores the tenant id under UserIDKey.
//
//   - A bearer token that fails verification is rejected with 401.
//   - A request without credentials passes through unauthenticated; pair
//     with RequireUser on routes that need a tenant.
//
// The request-scoped logger is enriched with user_id.
func Auth(opts AuthOptions) gin.HandlerFunc {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if opts.Audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(opts.Audience))
	}
	parser := jwt.NewParser(parserOpts...)
	secret := []byte(opts.Secret)

	return func(c *gin.Context) {
		var uid, email string

		if opts.Secret == "" {
			uid = strings.TrimSpace(c.GetHeader(HeaderUserID))
		} else if raw := c.GetHeader("Authorization"); raw != "" {
			scheme, tok, ok := strings.Cut(raw, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(tok) == "" {
				abortUnauthorized(c, "invalid authorization header")
				return
			}
			claims := &Claims{}
			if _, err := parser.ParseWithClaims(strings.TrimSpace(tok), claims, func(*jwt.Token) (any, error) {
				return secret, nil
			}); err != nil {
				LoggerFrom(c).Debug().Err(err).Msg("auth: invalid token")
				abortUnauthorized(c, "invalid or expired token")
				return
			}
			if claims.Subject == "" {
				abortUnauthorized(c, "invalid token claims")
				return
			}
			uid, email = claims.Subject, claims.Email
		}

		if uid != "" {
			c.Set(UserIDKey, uid)
			if email != "" {
				c.Set(UserEmailKey, email)
			}
			l := LoggerFrom(c).With().Str("user_id", uid).Logger()
			c.Set(loggerKey, &l)
			c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))
		}
		c.Next()
	}
}

// RequireUser rejects requests that Auth did not attribute to a tenant.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(UserIDKey) == "" {
			abortUnauthorized(c, "authentication required")
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       "unauthorized",
		"message":    msg,
	})
}
