package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"storefront-service/internal/entity"

	"github.com/segmentio/kafka-go"
)

const (
	OrderCreated = "created"
	OrderDeleted = "deleted"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Publisher writes order lifecycle events. Status changes use the new status
// as the event name.
type Publisher struct {
	writer messageWriter
}

func NewPublisher(writer *kafka.Writer) *Publisher {
	return &Publisher{writer: writer}
}

// OrderEvent is the message body; the order travels as-is.
type OrderEvent struct {
	Event string        `json:"event"`
	Order *entity.Order `json:"order"`
}

// PublishOrderEvent writes order under the key "order.<event>.<orderID>".
func (p *Publisher) PublishOrderEvent(ctx context.Context, event string, order *entity.Order) error {
	value, err := json.Marshal(OrderEvent{Event: event, Order: order})
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(EventKey(event, order.ID.Hex())),
		Value: value,
	}
	return p.writer.WriteMessages(ctx, msg)
}

func EventKey(event, orderID string) string {
	return fmt.Sprintf("order.%s.%s", event, orderID)
}

// ParseEventKey splits a key written by PublishOrderEvent.
func ParseEventKey(key string) (event, orderID string, ok bool) {
	parts := strings.Split(key, ".")
	if len(parts) != 3 || parts[0] != "order" {
		return "", "", false
	}
	return parts[1], parts[2], true
}
