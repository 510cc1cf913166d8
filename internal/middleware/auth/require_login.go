package auth

import (
	"context"
	"net/http"
	"strings"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/security_backend/internal/service"
)

type Authenticator interface {
	AuthenticateRequest(ctx context.Context, raw string) (*service.Identity, error)
}

// RequireAuth accepts a token from "Authorization: Bearer" or the accessToken
// cookie, header first. Any token failure is a 401.
func RequireAuth(authn Authenticator) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  "identity",
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ,cookie:" + AccessCookie,
		ParseTokenFunc: func(c echo.Context, raw string) (interface{}, error) {
			id, err := authn.AuthenticateRequest(c.Request().Context(), raw)
			if err != nil {
				return nil, err
			}
			setUserContext(c, id)
			c.Set(ContextAuthSource, tokenSource(c, raw))
			return id, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		},
	})
}

func tokenSource(c echo.Context, raw string) string {
	const prefix = "Bearer "
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) && h[len(prefix):] == raw {
		return SourceHeader
	}
	return SourceCookie
}
