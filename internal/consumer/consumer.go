package consumer

import (
	"context"
	"encoding/json"
	"time"

	"storefront-service/internal/events"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// MessageReader is the part of *kafka.Reader the reconciler uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// CartClearer empties a cart unless it changed after the given time.
type CartClearer interface {
	ClearIfUnchangedSince(ctx context.Context, userID string, since time.Time) (bool, error)
}

// Reconciler listens for order events and finishes checkouts whose cart
// clear did not go through.
type Reconciler struct {
	reader MessageReader
	carts  CartClearer
}

func NewReconciler(reader MessageReader, carts CartClearer) *Reconciler {
	return &Reconciler{reader: reader, carts: carts}
}

// Run reads messages until ctx is cancelled, then closes the reader.
func (r *Reconciler) Run(ctx context.Context) {
	defer r.reader.Close()

	for {
		msg, err := r.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info().Msg("Order event reconciler stopped")
				return
			}
			log.Error().Msgf("Error reading message: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		r.processMessage(ctx, msg)
	}
}

// processMessage handles one message keyed "order.<event>.<orderID>".
func (r *Reconciler) processMessage(ctx context.Context, msg kafka.Message) {
	event, orderID, ok := events.ParseEventKey(string(msg.Key))
	if !ok {
		log.Error().Msgf("Unexpected message key: %s", msg.Key)
		return
	}

	switch event {
	case events.OrderCreated:
		var payload events.OrderEvent
		if err := json.Unmarshal(msg.Value, &payload); err != nil || payload.Order == nil {
			log.Error().Msgf("Error unmarshalling order %s: %v", orderID, err)
			return
		}
		order := payload.Order
		cleared, err := r.carts.ClearIfUnchangedSince(ctx, order.UserID, order.CreatedAt)
		if err != nil {
			log.Error().Msgf("Error reconciling cart of user %s for order %s: %v", order.UserID, orderID, err)
			return
		}
		if cleared {
			log.Info().Msgf("Cleared leftover cart of user %s after order %s", order.UserID, orderID)
		}
	default:
		log.Debug().Msgf("Ignoring %s event for order %s", event, orderID)
	}
}
