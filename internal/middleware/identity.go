package middleware

// identity.go holds helpers shared across middleware files.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// userID returns the authenticated user's id as a string for use in
// cache and rate-limit keys. JWTAuth stores the sub claim under
// "user_id"; numeric claims decode as float64, so both forms are
// handled. Unauthenticated requests map to "anon".
func userID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	}
	return "anon"
}
