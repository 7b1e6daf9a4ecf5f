package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront-service/internal/entity"
	"storefront-service/internal/events"
	"storefront-service/internal/repository/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderFixture struct {
	svc       *OrderService
	orders    *memstore.OrderStore
	carts     *memstore.CartStore
	history   *memstore.HistoryStore
	publisher *memstore.Publisher
}

func newOrderFixture() *orderFixture {
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	now := func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	f := &orderFixture{
		orders:    memstore.NewOrderStore(now),
		carts:     memstore.NewCartStore(now),
		history:   memstore.NewHistoryStore(),
		publisher: &memstore.Publisher{},
	}
	f.svc = NewOrderService(f.orders, f.carts, f.history, f.publisher, &memstore.Idempotency{})
	f.svc.now = now
	return f
}

func savedAddress() entity.ShippingAddress {
	return entity.ShippingAddress{FullName: "Dana Reyes", Phone: "555-0101", Address: "1 Main St", City: "Springfield", Saved: true}
}

func checkoutFor(userID string, items ...entity.CartLine) CheckoutRequest {
	return CheckoutRequest{UserID: userID, Items: items, ShippingAddress: savedAddress()}
}

func TestCheckoutCreatesPendingOrderAndClearsCart(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	lines := []entity.CartLine{{ProductID: "p1", Name: "Phone", Price: 500, Quantity: 1}}
	_, err := f.carts.Save(ctx, "u1", lines, 0)
	require.NoError(t, err)

	order, err := f.svc.Checkout(ctx, checkoutFor("u1", lines...))
	require.NoError(t, err)

	assert.Equal(t, entity.OrderStatusPending, order.Status)
	assert.Equal(t, 500.0, order.Subtotal)
	assert.Equal(t, 0.0, order.DeliveryFee)
	assert.Equal(t, 500.0, order.TotalAmount)
	assert.False(t, order.ShippingAddress.Saved)
	require.Len(t, order.Items, 1)
	assert.NotEmpty(t, order.Items[0].CartItemID)

	cart, ok := f.carts.Cart("u1")
	require.True(t, ok)
	assert.Empty(t, cart.Items)

	assert.Equal(t, 1, f.orders.Len())
	assert.Equal(t, []string{events.OrderCreated}, f.publisher.Names())

	changes, err := f.svc.History(ctx, order.ID.Hex())
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, entity.OrderStatusPending, changes[0].To)
}

func TestCheckoutTotals(t *testing.T) {
	tests := []struct {
		name        string
		items       []entity.CartLine
		deliveryFee float64
		total       float64
	}{
		{
			name:        "small order pays delivery",
			items:       []entity.CartLine{{ProductID: "p1", Price: 20, Quantity: 2}},
			deliveryFee: 1.5,
			total:       41.5,
		},
		{
			name:        "threshold is inclusive",
			items:       []entity.CartLine{{ProductID: "p1", Price: 50, Quantity: 1}},
			deliveryFee: 1.5,
			total:       51.5,
		},
		{
			name:        "free delivery above threshold",
			items:       []entity.CartLine{{ProductID: "p1", Price: 25.01, Quantity: 2}},
			deliveryFee: 0,
			total:       50.02,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture()
			order, err := f.svc.Checkout(context.Background(), checkoutFor("u1", tt.items...))
			require.NoError(t, err)
			assert.Equal(t, tt.deliveryFee, order.DeliveryFee)
			assert.Equal(t, tt.total, order.TotalAmount)
		})
	}
}

func TestCheckoutValidation(t *testing.T) {
	line := entity.CartLine{ProductID: "p1", Price: 10, Quantity: 1}

	tests := []struct {
		name    string
		mutate  func(*CheckoutRequest)
		wantErr error
	}{
		{"empty cart", func(r *CheckoutRequest) { r.Items = nil }, ErrEmptyCart},
		{"missing user", func(r *CheckoutRequest) { r.UserID = " " }, ErrMissingUser},
		{"missing phone", func(r *CheckoutRequest) { r.ShippingAddress.Phone = "" }, ErrMissingAddress},
		{"address not saved", func(r *CheckoutRequest) { r.ShippingAddress.Saved = false }, ErrAddressNotSaved},
		{"zero quantity", func(r *CheckoutRequest) { r.Items[0].Quantity = 0 }, ErrInvalidQuantity},
		{"client total mismatch", func(r *CheckoutRequest) { r.TotalAmount = 10 }, ErrTotalMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture()
			req := checkoutFor("u1", line)
			tt.mutate(&req)

			_, err := f.svc.Checkout(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Zero(t, f.orders.Len())
			assert.Empty(t, f.publisher.Names())
		})
	}
}

func TestCheckoutAcceptsMatchingClientTotal(t *testing.T) {
	f := newOrderFixture()
	req := checkoutFor("u1", entity.CartLine{ProductID: "p1", Price: 20, Quantity: 2})
	req.TotalAmount = 41.5

	order, err := f.svc.Checkout(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 41.5, order.TotalAmount)
}

func TestCheckoutKeepsOrderWhenCartClearFails(t *testing.T) {
	f := newOrderFixture()
	f.carts.ClearErr = errors.New("connection reset")

	order, err := f.svc.Checkout(context.Background(), checkoutFor("u1", entity.CartLine{ProductID: "p1", Price: 5, Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, 1, f.orders.Len())
	assert.Equal(t, entity.OrderStatusPending, order.Status)
}

func TestCheckoutStoreFailureKeepsCart(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()
	lines := []entity.CartLine{{ProductID: "p1", Price: 5, Quantity: 1}}
	_, err := f.carts.Save(ctx, "u1", lines, 0)
	require.NoError(t, err)
	f.orders.CreateErr = errors.New("write concern timeout")

	_, err = f.svc.Checkout(ctx, checkoutFor("u1", lines...))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)

	cart, ok := f.carts.Cart("u1")
	require.True(t, ok)
	assert.Len(t, cart.Items, 1)
	assert.Empty(t, f.publisher.Names())
}

func TestCheckoutIdempotencyKeyReplays(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()
	req := checkoutFor("u1", entity.CartLine{ProductID: "p1", Price: 5, Quantity: 1})
	req.IdempotencyKey = "checkout-1"

	first, err := f.svc.Checkout(ctx, req)
	require.NoError(t, err)
	second, err := f.svc.Checkout(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.orders.Len())
	assert.Equal(t, []string{events.OrderCreated}, f.publisher.Names())
}

func TestCheckoutIdempotencyKeyIsScopedToUser(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()
	line := entity.CartLine{ProductID: "p1", Price: 5, Quantity: 1}

	aliceReq := checkoutFor("alice", line)
	aliceReq.IdempotencyKey = "k1"
	alice, err := f.svc.Checkout(ctx, aliceReq)
	require.NoError(t, err)

	bobReq := checkoutFor("bob", line)
	bobReq.IdempotencyKey = "k1"
	bobReq.ShippingAddress.FullName = "Bob Stone"
	bob, err := f.svc.Checkout(ctx, bobReq)
	require.NoError(t, err)

	assert.NotEqual(t, alice.ID, bob.ID)
	assert.Equal(t, "bob", bob.UserID)
	assert.Equal(t, "Bob Stone", bob.ShippingAddress.FullName)
	assert.Equal(t, 2, f.orders.Len())
}

func TestCheckoutRetryAfterStoreFailure(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()
	req := checkoutFor("u1", entity.CartLine{ProductID: "p1", Price: 5, Quantity: 1})
	req.IdempotencyKey = "k2"

	f.orders.CreateErr = errors.New("write concern timeout")
	_, err := f.svc.Checkout(ctx, req)
	require.Error(t, err)

	f.orders.CreateErr = nil
	order, err := f.svc.Checkout(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "k2", order.IdempotencyKey)
	assert.Equal(t, 1, f.orders.Len())
}

func TestListOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()
	line := entity.CartLine{ProductID: "p1", Price: 5, Quantity: 1}

	first, err := f.svc.Checkout(ctx, checkoutFor("u1", line))
	require.NoError(t, err)
	second, err := f.svc.Checkout(ctx, checkoutFor("u1", line))
	require.NoError(t, err)
	_, err = f.svc.Checkout(ctx, checkoutFor("u2", line))
	require.NoError(t, err)

	mine, err := f.svc.ListOrders(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID)
	assert.Equal(t, first.ID, mine[1].ID)

	all, err := f.svc.ListOrders(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestTransition(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()
	line := entity.CartLine{ProductID: "p1", Price: 5, Quantity: 1}

	order, err := f.svc.Checkout(ctx, checkoutFor("u1", line))
	require.NoError(t, err)
	id := order.ID.Hex()

	_, err = f.svc.Transition(ctx, TransitionRequest{OrderID: id, Status: "rejected", ChangedBy: "staff-1"})
	assert.ErrorIs(t, err, ErrRejectionReasonRequired)

	_, err = f.svc.Transition(ctx, TransitionRequest{OrderID: id, Status: "teleported"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = f.svc.Transition(ctx, TransitionRequest{OrderID: id, Status: "shipped"})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	approved, err := f.svc.Transition(ctx, TransitionRequest{OrderID: id, Status: "Approved", ChangedBy: "staff-1"})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusApproved, approved.Status)

	_, err = f.svc.Transition(ctx, TransitionRequest{OrderID: id, Status: "pending"})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	changes, err := f.svc.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, entity.OrderStatusPending, changes[1].From)
	assert.Equal(t, entity.OrderStatusApproved, changes[1].To)
	assert.Equal(t, "staff-1", changes[1].ChangedBy)

	assert.Equal(t, []string{events.OrderCreated, "approved"}, f.publisher.Names())
}

func TestTransitionFromFinalStatus(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()
	order, err := f.svc.Checkout(ctx, checkoutFor("u1", entity.CartLine{ProductID: "p1", Price: 5, Quantity: 1}))
	require.NoError(t, err)
	id := order.ID.Hex()

	_, err = f.svc.Transition(ctx, TransitionRequest{OrderID: id, Status: "cancelled", ChangedBy: "staff-1"})
	require.NoError(t, err)

	_, err = f.svc.Transition(ctx, TransitionRequest{OrderID: id, Status: "approved", ChangedBy: "staff-1"})
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, err.Error(), "order is cancelled and can no longer change")
}

func TestTransitionRejectStoresReason(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()
	order, err := f.svc.Checkout(ctx, checkoutFor("u1", entity.CartLine{ProductID: "p1", Price: 5, Quantity: 1}))
	require.NoError(t, err)

	rejected, err := f.svc.Transition(ctx, TransitionRequest{OrderID: order.ID.Hex(), Status: "rejected", RejectionReason: " out of stock "})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusRejected, rejected.Status)
	assert.Equal(t, "out of stock", rejected.RejectionReason)
}

func TestTransitionUnknownOrder(t *testing.T) {
	f := newOrderFixture()
	_, err := f.svc.Transition(context.Background(), TransitionRequest{OrderID: "64b7f0c2a1b2c3d4e5f60718", Status: "approved"})
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = f.svc.GetOrder(context.Background(), "not-an-id")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestDeleteOrder(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()
	order, err := f.svc.Checkout(ctx, checkoutFor("u1", entity.CartLine{ProductID: "p1", Price: 5, Quantity: 1}))
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteOrder(ctx, order.ID.Hex()))
	assert.Zero(t, f.orders.Len())
	assert.Equal(t, []string{events.OrderCreated, events.OrderDeleted}, f.publisher.Names())

	changes, err := f.history.ListByOrder(ctx, order.ID.Hex())
	require.NoError(t, err)
	assert.Empty(t, changes)

	assert.ErrorIs(t, f.svc.DeleteOrder(ctx, order.ID.Hex()), ErrOrderNotFound)
}

func TestDeletePendingOrdersLeavesOthers(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()
	line := entity.CartLine{ProductID: "p1", Price: 5, Quantity: 1}

	var ids []string
	for i := 0; i < 4; i++ {
		order, err := f.svc.Checkout(ctx, checkoutFor("u1", line))
		require.NoError(t, err)
		ids = append(ids, order.ID.Hex())
	}
	_, err := f.svc.Transition(ctx, TransitionRequest{OrderID: ids[0], Status: "approved"})
	require.NoError(t, err)
	_, err = f.svc.Transition(ctx, TransitionRequest{OrderID: ids[1], Status: "rejected", RejectionReason: "fraud"})
	require.NoError(t, err)

	count, err := f.svc.DeletePendingOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	remaining, err := f.svc.ListOrders(ctx, "")
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	for _, o := range remaining {
		assert.NotEqual(t, entity.OrderStatusPending, o.Status)
	}
}
