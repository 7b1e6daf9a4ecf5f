package entity

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"    // placed, awaiting staff review
	OrderStatusApproved   OrderStatus = "approved"   // accepted by staff
	OrderStatusRejected   OrderStatus = "rejected"   // refused by staff, carries a reason
	OrderStatusProcessing OrderStatus = "processing" // being packed
	OrderStatusShipped    OrderStatus = "shipped"    // out for delivery
	OrderStatusDelivered  OrderStatus = "delivered"  // received by the customer
	OrderStatusCancelled  OrderStatus = "cancelled"  // withdrawn before shipping
)

var ErrUnknownStatus = errors.New("invalid order status")

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusApproved, OrderStatusRejected, OrderStatusCancelled},
	OrderStatusApproved:   {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

// ParseOrderStatus maps a client supplied string onto the closed status set.
func ParseOrderStatus(status string) (OrderStatus, error) {
	switch s := OrderStatus(strings.ToLower(strings.TrimSpace(status))); s {
	case OrderStatusPending, OrderStatusApproved, OrderStatusRejected,
		OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return s, nil
	default:
		return "", ErrUnknownStatus
	}
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}

type ShippingAddress struct {
	FullName string `json:"fullName" bson:"fullName" validate:"required"`
	Phone    string `json:"phone" bson:"phone" validate:"required"`
	Address  string `json:"address" bson:"address" validate:"required"`
	City     string `json:"city" bson:"city"`
	Country  string `json:"country" bson:"country"`
	// Saved is set once the customer confirmed the address form. It is not
	// persisted.
	Saved bool `json:"saved" bson:"-"`
}

// OrderItem is the cart line captured at checkout time.
type OrderItem = CartLine

type Order struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID          string             `json:"userId" bson:"userId"`
	Items           []OrderItem        `json:"items" bson:"items"`
	Subtotal        float64            `json:"subtotal" bson:"subtotal"`
	DeliveryFee     float64            `json:"deliveryFee" bson:"deliveryFee"`
	TotalAmount     float64            `json:"totalAmount" bson:"totalAmount"`
	Status          OrderStatus        `json:"status" bson:"status"`
	RejectionReason string             `json:"rejectionReason,omitempty" bson:"rejectionReason,omitempty"`
	ShippingAddress ShippingAddress    `json:"shippingAddress" bson:"shippingAddress"`
	IdempotencyKey  string             `json:"-" bson:"idempotencyKey,omitempty"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// StatusChange is one row of the order status history.
type StatusChange struct {
	ID        int64       `json:"id"`
	OrderID   string      `json:"orderId"`
	From      OrderStatus `json:"from"`
	To        OrderStatus `json:"to"`
	Reason    string      `json:"reason,omitempty"`
	ChangedBy string      `json:"changedBy"`
	ChangedAt time.Time   `json:"changedAt"`
}

/*
Mongo collection: orders

	{ userId: 1, createdAt: -1 }
	{ status: 1 }
	{ idempotencyKey: 1 } unique, sparse

MySQL table: order_status_history (see migrations)
*/
