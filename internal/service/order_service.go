package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-service/internal/entity"
	"storefront-service/internal/events"
	"storefront-service/internal/pricing"
	"storefront-service/internal/repository"
)

// OrderService turns carts into orders and drives their status.
type OrderService struct {
	orders      OrderStore
	carts       CartStore
	history     HistoryStore
	publisher   EventPublisher
	idempotency IdempotencyGuard
	now         func() time.Time
}

// NewOrderService wires the order lifecycle. history, publisher and
// idempotency may be nil; the matching side effects are then skipped.
func NewOrderService(orders OrderStore, carts CartStore, history HistoryStore, publisher EventPublisher, idempotency IdempotencyGuard) *OrderService {
	return &OrderService{
		orders:      orders,
		carts:       carts,
		history:     history,
		publisher:   publisher,
		idempotency: idempotency,
		now:         time.Now,
	}
}

type CheckoutRequest struct {
	UserID          string
	Items           []entity.CartLine
	TotalAmount     float64
	ShippingAddress entity.ShippingAddress
	IdempotencyKey  string
}

type TransitionRequest struct {
	OrderID         string
	Status          string
	RejectionReason string
	ChangedBy       string
}

// Checkout creates a pending order from the submitted cart lines and then
// empties the user's persisted cart.
//
// The order insert and the cart clear are separate writes. When the clear
// fails the order still stands; the reconciler consuming order.created clears
// the cart later. A repeated IdempotencyKey returns the order created for it.
func (s *OrderService) Checkout(ctx context.Context, req CheckoutRequest) (*entity.Order, error) {
	if err := validateCheckout(req); err != nil {
		return nil, err
	}
	items, err := normalizeLines(req.Items)
	if err != nil {
		return nil, err
	}

	totals := pricing.Calculate(items)
	if req.TotalAmount != 0 && !pricing.Equal(req.TotalAmount, totals.Total) {
		logger.Warn().Msgf("Checkout total mismatch for user %s: client %.2f, server %.2f", req.UserID, req.TotalAmount, totals.Total)
		return nil, ErrTotalMismatch
	}

	if req.IdempotencyKey != "" {
		if existing, err := s.claimIdempotencyKey(ctx, req.UserID, req.IdempotencyKey); err != nil || existing != nil {
			return existing, err
		}
	}

	address := req.ShippingAddress
	address.Saved = false
	order := &entity.Order{
		UserID:          req.UserID,
		Items:           items,
		Subtotal:        totals.Subtotal,
		DeliveryFee:     totals.DeliveryFee,
		TotalAmount:     totals.Total,
		Status:          entity.OrderStatusPending,
		ShippingAddress: address,
		IdempotencyKey:  req.IdempotencyKey,
		CreatedAt:       s.now().UTC(),
	}

	created, err := s.orders.Create(ctx, order)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) && req.IdempotencyKey != "" {
			return s.replayOrder(ctx, req.UserID, req.IdempotencyKey)
		}
		logger.Error().Err(err).Msgf("Error creating order for user %s", req.UserID)
		s.releaseIdempotencyKey(ctx, req.UserID, req.IdempotencyKey)
		return nil, err
	}

	if err := s.carts.Clear(ctx, req.UserID); err != nil {
		logger.Error().Err(err).Msgf("Order %s created but clearing cart of user %s failed", created.ID.Hex(), req.UserID)
	}

	s.recordChange(ctx, created, "", created.Status, "", req.UserID)
	s.publish(ctx, events.OrderCreated, created)
	return created, nil
}

// claimIdempotencyKey returns the order userID already created for key, if
// any.
func (s *OrderService) claimIdempotencyKey(ctx context.Context, userID, key string) (*entity.Order, error) {
	if s.idempotency == nil {
		return nil, nil
	}
	claimed, err := s.idempotency.Claim(ctx, userID, key)
	if err != nil {
		logger.Error().Err(err).Msgf("Error claiming idempotency key %s", key)
		return nil, err
	}
	if claimed {
		return nil, nil
	}
	return s.replayOrder(ctx, userID, key)
}

// replayOrder looks up the order userID created for key. A key that is
// claimed but has no order yet belongs to a checkout still in flight.
func (s *OrderService) replayOrder(ctx context.Context, userID, key string) (*entity.Order, error) {
	existing, err := s.orders.GetByIdempotencyKey(ctx, userID, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDuplicateRequest
		}
		return nil, err
	}
	if existing.UserID != userID {
		return nil, ErrDuplicateRequest
	}
	logger.Info().Msgf("Replayed checkout for idempotency key %s of user %s", key, userID)
	return existing, nil
}

func (s *OrderService) releaseIdempotencyKey(ctx context.Context, userID, key string) {
	if s.idempotency == nil || key == "" {
		return
	}
	if err := s.idempotency.Release(ctx, userID, key); err != nil {
		logger.Error().Err(err).Msgf("Error releasing idempotency key %s", key)
	}
}

func validateCheckout(req CheckoutRequest) error {
	if strings.TrimSpace(req.UserID) == "" {
		return ErrMissingUser
	}
	a := req.ShippingAddress
	if strings.TrimSpace(a.FullName) == "" || strings.TrimSpace(a.Phone) == "" || strings.TrimSpace(a.Address) == "" {
		return ErrMissingAddress
	}
	if !a.Saved {
		return ErrAddressNotSaved
	}
	if len(req.Items) == 0 {
		return ErrEmptyCart
	}
	return nil
}

// ListOrders returns userID's orders, or all orders for an empty userID,
// newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]*entity.Order, error) {
	orders, err := s.orders.List(ctx, userID)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing orders")
		return nil, err
	}
	return orders, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*entity.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		logger.Error().Err(err).Msgf("Error getting order %s", id)
		return nil, err
	}
	return order, nil
}

// Transition moves an order to a new status. Rejections need a reason.
func (s *OrderService) Transition(ctx context.Context, req TransitionRequest) (*entity.Order, error) {
	to, err := entity.ParseOrderStatus(req.Status)
	if err != nil {
		return nil, ErrInvalidStatus
	}
	reason := strings.TrimSpace(req.RejectionReason)
	if to == entity.OrderStatusRejected && reason == "" {
		return nil, ErrRejectionReasonRequired
	}

	order, err := s.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	from := order.Status
	if from.Terminal() {
		return nil, fmt.Errorf("%w: order is %s and can no longer change", ErrInvalidTransition, from)
	}
	if !from.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, to)
	}

	updated, err := s.orders.UpdateStatus(ctx, req.OrderID, from, to, reason)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// The order vanished or moved on between the read and the write.
			return nil, ErrInvalidTransition
		}
		logger.Error().Err(err).Msgf("Error updating status of order %s", req.OrderID)
		return nil, err
	}

	s.recordChange(ctx, updated, from, to, reason, req.ChangedBy)
	s.publish(ctx, string(to), updated)
	return updated, nil
}

func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if err := s.orders.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrOrderNotFound
		}
		logger.Error().Err(err).Msgf("Error deleting order %s", id)
		return err
	}
	if s.history != nil {
		if err := s.history.DeleteByOrder(ctx, id); err != nil {
			logger.Error().Err(err).Msgf("Error deleting status history of order %s", id)
		}
	}
	s.publish(ctx, events.OrderDeleted, order)
	return nil
}

// DeletePendingOrders removes every order still pending and returns how many
// were removed. Orders in any other status are untouched.
func (s *OrderService) DeletePendingOrders(ctx context.Context) (int64, error) {
	count, err := s.orders.DeleteByStatus(ctx, entity.OrderStatusPending)
	if err != nil {
		logger.Error().Err(err).Msg("Error deleting pending orders")
		return 0, err
	}
	logger.Info().Msgf("Deleted %d pending orders", count)
	return count, nil
}

// History returns the recorded status changes of an order, oldest first.
func (s *OrderService) History(ctx context.Context, orderID string) ([]entity.StatusChange, error) {
	if _, err := s.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []entity.StatusChange{}, nil
	}
	changes, err := s.history.ListByOrder(ctx, orderID)
	if err != nil {
		logger.Error().Err(err).Msgf("Error reading status history of order %s", orderID)
		return nil, err
	}
	return changes, nil
}

func (s *OrderService) recordChange(ctx context.Context, order *entity.Order, from, to entity.OrderStatus, reason, by string) {
	if s.history == nil {
		return
	}
	change := entity.StatusChange{
		OrderID:   order.ID.Hex(),
		From:      from,
		To:        to,
		Reason:    reason,
		ChangedBy: by,
		ChangedAt: s.now().UTC(),
	}
	if err := s.history.Record(ctx, change); err != nil {
		logger.Error().Err(err).Msgf("Error recording status change of order %s", change.OrderID)
	}
}

func (s *OrderService) publish(ctx context.Context, event string, order *entity.Order) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOrderEvent(ctx, event, order); err != nil {
		logger.Error().Err(err).Msgf("Error publishing %s event for order %s", event, order.ID.Hex())
	}
}
