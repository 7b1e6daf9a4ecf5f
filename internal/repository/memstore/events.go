package memstore

import (
	"context"
	"sync"

	"storefront-service/internal/entity"
)

// Publisher records published order events.
type Publisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
}

type PublishedEvent struct {
	Event   string
	OrderID string
	Status  entity.OrderStatus
}

func (p *Publisher) PublishOrderEvent(_ context.Context, event string, order *entity.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, PublishedEvent{Event: event, OrderID: order.ID.Hex(), Status: order.Status})
	return nil
}

func (p *Publisher) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, len(p.Events))
	for i, e := range p.Events {
		names[i] = e.Event
	}
	return names
}

// Idempotency is a map backed idempotency guard without expiry.
type Idempotency struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (g *Idempotency) Claim(_ context.Context, userID, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seen == nil {
		g.seen = map[string]bool{}
	}
	k := userID + ":" + key
	if g.seen[k] {
		return false, nil
	}
	g.seen[k] = true
	return true, nil
}

func (g *Idempotency) Release(_ context.Context, userID, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.seen, userID+":"+key)
	return nil
}
