package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// identityKey renders the authenticated user for rate-limit and cache keys.
// JWTAuth stores the sub claim under "user_id"; unauthenticated requests
// share the "guest" bucket.
func identityKey(c echo.Context) string {
	v := c.Get("user_id")
	if v == nil {
		return "guest"
	}
	switch id := v.(type) {
	case string:
		if id != "" {
			return id
		}
	case float64:
		return fmt.Sprintf("%.0f", id)
	case uint64:
		return fmt.Sprintf("%d", id)
	}
	return "guest"
}
