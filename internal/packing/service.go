package packing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/kitwms/internal/events"
	"github.com/erazemk/kitwms/internal/model"
	"github.com/erazemk/kitwms/internal/store"
)

// Service validates and packs restock plans.
type Service struct {
	db     *sqlx.DB
	events events.Publisher
	log    *slog.Logger
	now    func() time.Time
}

// NewService creates a Service. A nil publisher discards events.
func NewService(db *sqlx.DB, pub events.Publisher, log *slog.Logger) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{db: db, events: pub, log: log, now: time.Now}
}

// ValidatePlan reports whether current stock covers a plan. It changes
// nothing and may be called any number of times.
func (s *Service) ValidatePlan(ctx context.Context, planID int64) (*model.Validation, error) {
	plan, err := store.GetPlan(ctx, s.db, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, fmt.Errorf("%w: restock plan %d", model.ErrNotFound, planID)
	}

	agg, err := Aggregate(ctx, s.db, plan.Bundles)
	if err != nil {
		return nil, err
	}

	v := Validate(agg)
	return &v, nil
}

// Pack moves a plan from PACKING to PACKED, removes every required component
// from stock and writes one outbound record per component, all in one
// transaction. If stock does not cover the plan it returns an
// *model.InsufficientInventoryError and nothing changes.
func (s *Service) Pack(ctx context.Context, planID int64) (*model.PackResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Claim the plan first; a concurrent pack of the same plan fails here.
	if err := store.SetPlanStatus(ctx, tx, planID, model.PlanPacking, model.PlanPacked); err != nil {
		return nil, err
	}

	lines, err := store.GetPlanLines(ctx, tx, planID)
	if err != nil {
		return nil, err
	}
	agg, err := Aggregate(ctx, tx, lines)
	if err != nil {
		return nil, err
	}

	v := Validate(agg)
	if !v.Valid {
		s.log.Info("restock plan short of stock", "plan_id", planID, "shortages", len(v.Shortages))
		return nil, &model.InsufficientInventoryError{PlanID: planID, Shortages: v.Shortages}
	}

	packed := make([]events.PackedComponent, 0, agg.Len())
	for _, r := range agg.Requirements() {
		if err := store.AdjustStock(ctx, tx, r.ID, -r.Required); err != nil {
			return nil, fmt.Errorf("packing component %d: %w", r.ID, err)
		}
		if _, err := store.AppendOutbound(ctx, tx, r.ID, r.Required, model.PackReason, "", &planID); err != nil {
			return nil, fmt.Errorf("packing component %d: %w", r.ID, err)
		}
		packed = append(packed, events.PackedComponent{ComponentID: r.ID, Quantity: r.Required})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing pack: %w", err)
	}

	s.log.Info("restock plan packed", "plan_id", planID, "components", len(packed))

	event := events.NewPlanPacked(planID, packed, s.now())
	if err := s.events.Publish(ctx, events.RoutingKeyPlanPacked, event); err != nil {
		s.log.Warn("publishing plan packed event failed", "plan_id", planID, "error", err)
	}

	return &model.PackResult{Packed: true}, nil
}
