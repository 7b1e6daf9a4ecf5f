package api

import (
	"net/http"

	"storefront-service/internal/entity"
	"storefront-service/internal/service"

	"github.com/labstack/echo/v4"
)

type CartHandler struct {
	cartService *service.CartService
	guard       *Guard
}

func NewCartHandler(cartService *service.CartService, guard *Guard) *CartHandler {
	return &CartHandler{cartService: cartService, guard: guard}
}

type saveCartRequest struct {
	UserID  string            `json:"userId"`
	Items   []entity.CartLine `json:"items" validate:"dive"`
	Version int64             `json:"version" validate:"gte=0"`
}

func cartBody(cart *entity.Cart) map[string]interface{} {
	return map[string]interface{}{"success": true, "cart": cart.Items, "version": cart.Version}
}

// GetCart --> GET /api/cart?userId=
func (h *CartHandler) GetCart(c echo.Context) error {
	userID, err := h.guard.targetUser(c, c.QueryParam("userId"))
	if err != nil {
		return respondError(c, err)
	}
	cart, err := h.cartService.GetCart(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, cartBody(cart))
}

// SaveCart replaces the cart items --> POST /api/cart
func (h *CartHandler) SaveCart(c echo.Context) error {
	req := saveCartRequest{}
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	userID, err := h.guard.targetUser(c, req.UserID)
	if err != nil {
		return respondError(c, err)
	}
	cart, err := h.cartService.SaveCart(c.Request().Context(), userID, req.Items, req.Version)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, cartBody(cart))
}

// ClearCart --> DELETE /api/cart?userId=
func (h *CartHandler) ClearCart(c echo.Context) error {
	userID, err := h.guard.targetUser(c, c.QueryParam("userId"))
	if err != nil {
		return respondError(c, err)
	}
	if err := h.cartService.ClearCart(c.Request().Context(), userID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "cart": []entity.CartLine{}})
}
