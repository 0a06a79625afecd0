package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// profileIDFromContext reads the profile identifier JWTAuth stored under
// "user_id". JWT numbers decode as float64; some issuers encode numeric
// strings instead, so both are accepted. Returns 0 when no usable claim is
// present.
func profileIDFromContext(c echo.Context) uint64 {
	switch v := c.Get("user_id").(type) {
	case float64:
		return uint64(v)
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	case uint64:
		return v
	}
	return 0
}
