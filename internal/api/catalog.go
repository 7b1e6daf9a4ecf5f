package api

import (
	"net/http"
	"strconv"

	"storefront-service/internal/entity"
	"storefront-service/internal/service"

	"github.com/labstack/echo/v4"
)

type CatalogHandler struct {
	catalogService *service.CatalogService
}

func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ListProducts --> GET /api/products?category=&newArrival=&bestSeller=&specialOffer=
func (h *CatalogHandler) ListProducts(c echo.Context) error {
	filter := entity.ProductFilter{
		CategoryID:   c.QueryParam("category"),
		NewArrival:   queryFlag(c, "newArrival"),
		BestSeller:   queryFlag(c, "bestSeller"),
		SpecialOffer: queryFlag(c, "specialOffer"),
	}
	products, err := h.catalogService.ListProducts(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "products": products})
}

// GetProduct --> GET /api/products/:id
func (h *CatalogHandler) GetProduct(c echo.Context) error {
	product, err := h.catalogService.GetProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "product": product})
}

// ListCategories --> GET /api/categories
func (h *CatalogHandler) ListCategories(c echo.Context) error {
	categories, err := h.catalogService.ListCategories(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "categories": categories})
}

func queryFlag(c echo.Context, name string) bool {
	v, err := strconv.ParseBool(c.QueryParam(name))
	return err == nil && v
}
