package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"
)

// HeaderVapiSecret carries the shared secret the voice platform sends with
// every server message.
const HeaderVapiSecret = "X-Vapi-Secret"

// SharedSecret rejects requests whose header does not equal secret. An empty
// secret disables the check.
func SharedSecret(header, secret string) gin.HandlerFunc {
	want := []byte(secret)
	return func(c *gin.Context) {
		if len(want) == 0 {
			c.Next()
			return
		}
		got := []byte(c.GetHeader(header))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			LoggerFrom(c).Warn().Str("header", header).Msg("webhook secret mismatch")
			abortUnauthorized(c, "invalid webhook secret")
			return
		}
		c.Next()
	}
}
