package api

import (
	"net/http"

	"storefront-service/internal/entity"
	"storefront-service/internal/service"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	orderService *service.OrderService
	guard        *Guard
}

func NewOrderHandler(orderService *service.OrderService, guard *Guard) *OrderHandler {
	return &OrderHandler{orderService: orderService, guard: guard}
}

type createOrderRequest struct {
	UserID          string                 `json:"userId"`
	Items           []entity.CartLine      `json:"items" validate:"dive"`
	TotalAmount     float64                `json:"totalAmount" validate:"gte=0"`
	ShippingAddress entity.ShippingAddress `json:"shippingAddress"`
}

type updateOrderRequest struct {
	OrderID         string `json:"orderId" validate:"required"`
	Status          string `json:"status" validate:"required"`
	RejectionReason string `json:"rejectionReason"`
}

// CreateOrder checks out the submitted cart --> POST /api/orders
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	req := createOrderRequest{}
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	userID, err := h.guard.targetUser(c, req.UserID)
	if err != nil {
		return respondError(c, err)
	}

	order, err := h.orderService.Checkout(c.Request().Context(), service.CheckoutRequest{
		UserID:          userID,
		Items:           req.Items,
		TotalAmount:     req.TotalAmount,
		ShippingAddress: req.ShippingAddress,
		IdempotencyKey:  c.Request().Header.Get("Idempotency-Key"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"success": true, "order": order})
}

// ListOrders --> GET /api/orders[?userId=]
// Customers always get their own orders. Staff and admin get every order
// unless userId narrows it.
func (h *OrderHandler) ListOrders(c echo.Context) error {
	requested := c.QueryParam("userId")
	userID, err := h.guard.targetUser(c, requested)
	if err != nil {
		return respondError(c, err)
	}
	if requested == "" {
		privileged, err := h.guard.privileged(c)
		if err != nil {
			return respondError(c, err)
		}
		if privileged {
			userID = ""
		}
	}

	orders, err := h.orderService.ListOrders(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "orders": orders})
}

// GetOrder --> GET /api/orders/:id
func (h *OrderHandler) GetOrder(c echo.Context) error {
	order, err := h.visibleOrder(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "order": order})
}

// GetOrderHistory --> GET /api/orders/:id/history
func (h *OrderHandler) GetOrderHistory(c echo.Context) error {
	order, err := h.visibleOrder(c)
	if err != nil {
		return respondError(c, err)
	}
	history, err := h.orderService.History(c.Request().Context(), order.ID.Hex())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "history": history})
}

func (h *OrderHandler) visibleOrder(c echo.Context) (*entity.Order, error) {
	order, err := h.orderService.GetOrder(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	if _, err := h.guard.targetUser(c, order.UserID); err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateOrder moves an order to a new status --> PUT /api/orders
func (h *OrderHandler) UpdateOrder(c echo.Context) error {
	req := updateOrderRequest{}
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	order, err := h.orderService.Transition(c.Request().Context(), service.TransitionRequest{
		OrderID:         req.OrderID,
		Status:          req.Status,
		RejectionReason: req.RejectionReason,
		ChangedBy:       currentClaims(c).Subject,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "order": order})
}

// DeleteOrders removes one order, or every pending order when no orderId is
// given --> DELETE /api/orders[?orderId=]
func (h *OrderHandler) DeleteOrders(c echo.Context) error {
	ctx := c.Request().Context()
	if id := c.QueryParam("orderId"); id != "" {
		if err := h.orderService.DeleteOrder(ctx, id); err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "deleted": 1})
	}

	count, err := h.orderService.DeletePendingOrders(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "deleted": count})
}
