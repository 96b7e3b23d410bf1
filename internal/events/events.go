// Package events publishes domain events after state changes have been
// committed.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RoutingKeyPlanPacked is the routing key of PlanPacked events.
const RoutingKeyPlanPacked = "restock.plan.packed"

// Publisher delivers an event under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, string, any) error { return nil }

// PackedComponent is one component removed from stock by a pack.
type PackedComponent struct {
	ComponentID int64 `json:"component_id"`
	Quantity    int   `json:"quantity"`
}

// PlanPacked is emitted once a restock plan has been packed.
type PlanPacked struct {
	EventID    string            `json:"event_id"`
	PlanID     int64             `json:"restock_plan_id"`
	Components []PackedComponent `json:"components"`
	PackedAt   time.Time         `json:"packed_at"`
}

// NewPlanPacked builds a PlanPacked event with a fresh event id.
func NewPlanPacked(planID int64, components []PackedComponent, at time.Time) PlanPacked {
	if components == nil {
		components = []PackedComponent{}
	}
	return PlanPacked{
		EventID:    uuid.NewString(),
		PlanID:     planID,
		Components: components,
		PackedAt:   at.UTC(),
	}
}
