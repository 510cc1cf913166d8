package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/security_backend/internal/service"
)

// httpError maps service errors to HTTP errors. Unknown errors become a bare
// 500 so internal detail never reaches the client.
func httpError(err error) error {
	switch {
	case errors.Is(err, service.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "username already taken")
	case errors.Is(err, service.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, service.ErrInvalidCredentials.Error())
	case errors.Is(err, service.ErrUnauthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrSearchDisabled):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search unavailable")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
