package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/security_backend/internal/logging"
	authmw "github.com/Skotchmaster/security_backend/internal/middleware/auth"
	"github.com/Skotchmaster/security_backend/internal/service"
	"github.com/Skotchmaster/security_backend/internal/transport"
)

type AuthHandler struct {
	Auth         *service.AuthService
	SecureCookie bool
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "Register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Info("bind", "status", "fail", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	id, err := h.Auth.Register(ctx, req.Username, req.Password, req.Role)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, transport.IdentityResponse{Username: id.Username, Role: id.Role})
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	res, err := h.Auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		return httpError(err)
	}

	c.SetCookie(CreateCookie(AccessCookie, res.Token, "/", res.ExpiresAt, h.SecureCookie))

	return c.JSON(http.StatusOK, transport.LoginResponse{
		Token:     res.Token,
		TokenType: "Bearer",
		ExpiresAt: res.ExpiresAt,
		Username:  res.Username,
		Role:      res.Role,
	})
}

// LogOut only clears the cookie. Issued tokens stay valid until they expire.
func (h *AuthHandler) LogOut(c echo.Context) error {
	c.SetCookie(ExpireCookie(AccessCookie, "/", h.SecureCookie))
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) Me(c echo.Context) error {
	id, ok := authmw.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return c.JSON(http.StatusOK, transport.IdentityResponse{Username: id.Username, Role: id.Role})
}
