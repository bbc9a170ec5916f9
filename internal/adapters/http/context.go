package http

import "github.com/labstack/echo/v4"

// UserContextKey is where the bearer middleware stores the caller's user id.
const UserContextKey = "user"

// getUserIDFromContext extracts the authenticated user id
func getUserIDFromContext(c echo.Context) string {
	userID, ok := c.Get(UserContextKey).(string)
	if !ok {
		return ""
	}
	return userID
}
