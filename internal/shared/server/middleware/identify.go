package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"enrollment-backend/internal/authclient"
	"enrollment-backend/internal/shared/telemetry"
)

const currentUserKey = "currentUser"

// Identify resolves an optional bearer token against the auth service and
// stores the user in context. Enrollment flows are keyed by the opaque token,
// so unauthenticated guests proceed; identity only changes behavior for
// returning users (account linking, skipping the email-exists check).
func Identify(authc authclient.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.Next()
			return
		}
		bearer := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
		if bearer == "" {
			c.Next()
			return
		}

		user, err := authc.CurrentUser(c.Request.Context(), bearer)
		if err != nil {
			// Identity is optional; proceed as guest rather than failing the
			// request.
			telemetry.Error("identify.failed", map[string]any{
				"request_id": RequestIDFromContext(c),
				"error":      err.Error(),
			})
			c.Next()
			return
		}
		if user != nil {
			c.Set(currentUserKey, user)
		}
		c.Next()
	}
}

// CurrentUser returns the identified user, or nil for guests.
func CurrentUser(c *gin.Context) *authclient.User {
	if c == nil {
		return nil
	}
	val, _ := c.Get(currentUserKey)
	if user, ok := val.(*authclient.User); ok {
		return user
	}
	return nil
}
