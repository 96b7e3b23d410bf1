// Package packing turns restock plans into per-component stock requirements,
// checks them against current stock and packs plans.
package packing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/erazemk/kitwms/internal/model"
)

// Resolve returns what multiplier copies of a bundle need of each of its
// components, at current stock and prices. It reads only.
func Resolve(ctx context.Context, q sqlx.QueryerContext, bundleID int64, multiplier int) ([]model.Requirement, error) {
	if err := model.ValidatePlanQuantity(multiplier); err != nil {
		return nil, err
	}

	var id int64
	err := sqlx.GetContext(ctx, q, &id, `SELECT id FROM bundles WHERE id = ?`, bundleID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: bundle %d", model.ErrNotFound, bundleID)
	}
	if err != nil {
		return nil, fmt.Errorf("getting bundle: %w", err)
	}

	reqs := []model.Requirement{}
	err = sqlx.SelectContext(ctx, q, &reqs,
		`SELECT c.id, c.name, c.stock_quantity, c.price, bc.quantity
		 FROM bundle_components bc
		 JOIN components c ON c.id = bc.component_id
		 WHERE bc.bundle_id = ?
		 ORDER BY bc.rowid`, bundleID,
	)
	if err != nil {
		return nil, fmt.Errorf("resolving bundle %d: %w", bundleID, err)
	}

	for i := range reqs {
		r := &reqs[i]
		req, err := mulQuantity(r.PerBundle, multiplier)
		if err != nil {
			return nil, fmt.Errorf("component %d of bundle %d: %w", r.ComponentID, bundleID, err)
		}
		r.RequiredQuantity = req
		if r.UnitPrice != nil {
			total := r.UnitPrice.Mul(decimal.NewFromInt(int64(r.RequiredQuantity)))
			r.LineTotal = &total
		}
	}
	return reqs, nil
}

// Aggregation is the per-component total of a plan's requirements, in the
// order components were first seen.
type Aggregation struct {
	order []int64
	byID  map[int64]*model.AggregatedRequirement
}

func newAggregation() *Aggregation {
	return &Aggregation{byID: make(map[int64]*model.AggregatedRequirement)}
}

// add merges one resolved requirement. Required quantities are summed;
// available stock and price keep their first-seen values.
func (a *Aggregation) add(r model.Requirement) error {
	if agg, ok := a.byID[r.ComponentID]; ok {
		sum, err := addQuantity(agg.Required, r.RequiredQuantity)
		if err != nil {
			return fmt.Errorf("component %d: %w", r.ComponentID, err)
		}
		agg.Required = sum
		return nil
	}
	a.order = append(a.order, r.ComponentID)
	a.byID[r.ComponentID] = &model.AggregatedRequirement{
		ID:        r.ComponentID,
		Name:      r.Name,
		Required:  r.RequiredQuantity,
		Available: r.CurrentStock,
		Price:     r.UnitPrice,
	}
	return nil
}

// Len returns the number of distinct components.
func (a *Aggregation) Len() int {
	return len(a.order)
}

// Get returns the aggregated requirement of one component.
func (a *Aggregation) Get(componentID int64) (model.AggregatedRequirement, bool) {
	agg, ok := a.byID[componentID]
	if !ok {
		return model.AggregatedRequirement{}, false
	}
	return *agg, true
}

// Requirements returns a copy of every aggregated requirement.
func (a *Aggregation) Requirements() []model.AggregatedRequirement {
	out := make([]model.AggregatedRequirement, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, *a.byID[id])
	}
	return out
}

// Aggregate resolves every plan line and sums the results per component.
// A plan without lines aggregates to nothing.
func Aggregate(ctx context.Context, q sqlx.QueryerContext, lines []model.PlanLine) (*Aggregation, error) {
	agg := newAggregation()
	for _, l := range lines {
		reqs, err := Resolve(ctx, q, l.BundleID, l.Quantity)
		if err != nil {
			return nil, err
		}
		for _, r := range reqs {
			if err := agg.add(r); err != nil {
				return nil, err
			}
		}
	}
	return agg, nil
}

// Validate compares aggregated requirements against the stock recorded in
// them. It has no side effects.
func Validate(agg *Aggregation) model.Validation {
	v := model.Validation{
		Requirements: agg.Requirements(),
		Shortages:    []model.Shortage{},
	}
	for _, r := range v.Requirements {
		if r.Required > r.Available {
			v.Shortages = append(v.Shortages, model.Shortage{
				AggregatedRequirement: r,
				Shortage:              r.Required - r.Available,
			})
		}
	}
	v.Valid = len(v.Shortages) == 0
	return v
}

// mulQuantity multiplies two non-negative quantities, failing instead of
// wrapping around.
func mulQuantity(a, b int) (int, error) {
	if a < 0 || b < 0 || (b != 0 && a > math.MaxInt/b) {
		return 0, fmt.Errorf("%w: required quantity %d x %d out of range", model.ErrInvalidInput, a, b)
	}
	return a * b, nil
}

// addQuantity adds two non-negative quantities, failing instead of wrapping
// around.
func addQuantity(a, b int) (int, error) {
	if a < 0 || b < 0 || a > math.MaxInt-b {
		return 0, fmt.Errorf("%w: required quantity %d + %d out of range", model.ErrInvalidInput, a, b)
	}
	return a + b, nil
}
