package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/security_backend/internal/service"
)

const (
	ContextUsername = "username"
	ContextRole     = "role"
	// ContextAuthSource records whether the token came from the header or the cookie.
	ContextAuthSource = "auth_source"

	AccessCookie = "accessToken"

	SourceHeader = "header"
	SourceCookie = "cookie"
)

func setUserContext(c echo.Context, id *service.Identity) {
	c.Set(ContextUsername, id.Username)
	c.Set(ContextRole, id.Role)
}

// IdentityFrom returns the identity RequireAuth stored on c.
func IdentityFrom(c echo.Context) (service.Identity, bool) {
	username, _ := c.Get(ContextUsername).(string)
	role, _ := c.Get(ContextRole).(string)
	if username == "" {
		return service.Identity{}, false
	}
	return service.Identity{Username: username, Role: role}, true
}
