package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/security_backend/internal/models"
	"github.com/Skotchmaster/security_backend/internal/service"
)

type StudentHandler struct {
	Students *service.StudentRegistry
}

func (h *StudentHandler) GetStudents(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Students.List(c.Request().Context()))
}

func (h *StudentHandler) AddStudent(c echo.Context) error {
	var s models.Student
	if err := c.Bind(&s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	added, err := h.Students.Add(c.Request().Context(), s)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, added)
}
