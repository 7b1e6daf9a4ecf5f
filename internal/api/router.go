package api

import (
	"net/http"
	"time"

	"storefront-service/internal/entity"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Cart    *CartHandler
	Order   *OrderHandler
	Catalog *CatalogHandler
	Profile *ProfileHandler
	Guard   *Guard
}

// RegisterRoutes mounts every endpoint on e. Catalog reads and health are
// public; everything else needs a bearer token signed with jwtSecret.
func RegisterRoutes(e *echo.Echo, h Handlers, jwtSecret string) {
	e.Validator = NewValidator()

	e.GET("/api/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"service": "storefront-service",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	e.GET("/api/products", h.Catalog.ListProducts)
	e.GET("/api/products/:id", h.Catalog.GetProduct)
	e.GET("/api/categories", h.Catalog.ListCategories)

	g := e.Group("/api", JWTMiddleware(jwtSecret))

	g.GET("/cart", h.Cart.GetCart)
	g.POST("/cart", h.Cart.SaveCart)
	g.DELETE("/cart", h.Cart.ClearCart)

	staff := h.Guard.RequireRole(entity.RoleStaff, entity.RoleAdmin)
	admin := h.Guard.RequireRole(entity.RoleAdmin)

	g.GET("/orders", h.Order.ListOrders)
	g.POST("/orders", h.Order.CreateOrder)
	g.PUT("/orders", h.Order.UpdateOrder, staff)
	g.DELETE("/orders", h.Order.DeleteOrders, admin)
	g.GET("/orders/:id", h.Order.GetOrder)
	g.GET("/orders/:id/history", h.Order.GetOrderHistory)

	g.POST("/verification/request", h.Profile.RequestVerification)
	g.POST("/profiles", h.Profile.Register)
	g.GET("/profiles/me", h.Profile.Me)
	g.GET("/staff", h.Profile.ListStaff, admin)
	g.PUT("/staff/:subject/active", h.Profile.SetStaffActive, admin)
}
