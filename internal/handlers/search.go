package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/security_backend/internal/logging"
	"github.com/Skotchmaster/security_backend/internal/util"
)

func (h *ProductHandler) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	res, err := h.Products.Search(c.Request().Context(), q, page, size)
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("search", "status", "fail", "error", err)
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}
