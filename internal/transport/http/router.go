package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/security_backend/internal/handlers"
	authmw "github.com/Skotchmaster/security_backend/internal/middleware/auth"
	"github.com/Skotchmaster/security_backend/internal/models"
)

type Deps struct {
	AuthHandler    *handlers.AuthHandler
	ProductHandler *handlers.ProductHandler
	StudentHandler *handlers.StudentHandler
	HealthHandler  *handlers.HealthHandler
	Authenticator  authmw.Authenticator
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", d.HealthHandler.Live)
	e.GET("/health/ready", d.HealthHandler.Ready)

	e.POST("/register", d.AuthHandler.Register)
	e.POST("/login", d.AuthHandler.Login)
	e.POST("/logout", d.AuthHandler.LogOut)

	authed := e.Group("", authmw.RequireAuth(d.Authenticator))
	authed.GET("/me", d.AuthHandler.Me)

	admin := authmw.RequireRole(models.RoleAdmin)

	products := authed.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)
	products.GET("/name/:name", d.ProductHandler.GetProductByName)
	products.GET("/search", d.ProductHandler.Search)
	products.POST("", d.ProductHandler.CreateProduct, admin)
	products.PATCH("/:id", d.ProductHandler.PatchProduct, admin)
	products.DELETE("/:id", d.ProductHandler.DeleteProduct, admin)

	students := authed.Group("/students")
	students.GET("", d.StudentHandler.GetStudents)
	students.POST("", d.StudentHandler.AddStudent)
}
