package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	contextUserIDKey = "auth_user_id"
	contextRoleKey   = "auth_role"
	contextFreshKey  = "auth_fresh"
)

func SetAuthContext(c echo.Context, userID uuid.UUID, role string, fresh bool) {
	c.Set(contextUserIDKey, userID)
	c.Set(contextRoleKey, role)
	c.Set(contextFreshKey, fresh)
}

func UserIDFromContext(c echo.Context) (uuid.UUID, bool) {
	value := c.Get(contextUserIDKey)
	userID, ok := value.(uuid.UUID)
	return userID, ok
}

func RoleFromContext(c echo.Context) (string, bool) {
	value := c.Get(contextRoleKey)
	role, ok := value.(string)
	return role, ok
}

func FreshFromContext(c echo.Context) bool {
	value := c.Get(contextFreshKey)
	fresh, ok := value.(bool)
	return ok && fresh
}
