package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PlanStatus is the lifecycle state of a restock plan.
type PlanStatus string

// Plan statuses. PACKING is initial, PACKED is terminal.
const (
	PlanPacking PlanStatus = "PACKING"
	PlanPacked  PlanStatus = "PACKED"
)

// MaxPlanQuantity bounds a single plan line.
const MaxPlanQuantity = 999999

// PackReason is the outbound reason written for every packed component.
const PackReason = "restock plan execution"

// RestockPlan is a fulfillment order composed of bundles.
type RestockPlan struct {
	ID          int64      `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description,omitempty" db:"description"`
	Status      PlanStatus `json:"status" db:"status"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	Bundles     []PlanLine `json:"bundles,omitempty" db:"-"`

	// Joined summary for list views (not always populated).
	BundlesInfo string `json:"bundles_info,omitempty" db:"bundles_info"`
}

// PlanLine is one (bundle, quantity) pair of a restock plan.
type PlanLine struct {
	BundleID int64 `json:"bundle_id" db:"bundle_id"`
	Quantity int   `json:"quantity" db:"quantity"`

	// Joined fields (not always populated).
	BundleName string `json:"bundle_name,omitempty" db:"bundle_name"`
}

// ValidatePlanQuantity checks a single plan line quantity.
func ValidatePlanQuantity(q int) error {
	if q < 1 {
		return fmt.Errorf("%w: quantity must be a positive integer, got %d", ErrInvalidInput, q)
	}
	if q > MaxPlanQuantity {
		return fmt.Errorf("%w: quantity too large: %d, maximum allowed is %d", ErrInvalidInput, q, MaxPlanQuantity)
	}
	return nil
}

// ValidatePlanLines checks every line of a plan submission. Bundle existence
// is checked by the store.
func ValidatePlanLines(lines []PlanLine) error {
	for _, l := range lines {
		if l.BundleID <= 0 {
			return fmt.Errorf("%w: invalid bundle id %d", ErrInvalidInput, l.BundleID)
		}
		if err := ValidatePlanQuantity(l.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// Requirement is what one bundle line needs of one component.
type Requirement struct {
	ComponentID      int64            `json:"id" db:"id"`
	Name             string           `json:"name" db:"name"`
	CurrentStock     int              `json:"stock_quantity" db:"stock_quantity"`
	RequiredQuantity int              `json:"required_quantity" db:"-"`
	UnitPrice        *decimal.Decimal `json:"price,omitempty" db:"price"`
	LineTotal        *decimal.Decimal `json:"total_price,omitempty" db:"-"`

	// Per-bundle component quantity, used to compute RequiredQuantity.
	PerBundle int `json:"-" db:"quantity"`
}

// HidePrices strips financial data.
func (r *Requirement) HidePrices() {
	r.UnitPrice = nil
	r.LineTotal = nil
}

// AggregatedRequirement is the per-component total across a whole plan.
type AggregatedRequirement struct {
	ID        int64            `json:"id"`
	Name      string           `json:"name"`
	Required  int              `json:"required"`
	Available int              `json:"available"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}

// Shortage is an aggregated requirement that exceeds available stock.
type Shortage struct {
	AggregatedRequirement
	Shortage int `json:"shortage"`
}

// Validation is the result of checking a plan against current stock.
type Validation struct {
	Valid        bool                    `json:"valid"`
	Requirements []AggregatedRequirement `json:"requirements"`
	Shortages    []Shortage              `json:"shortages"`
}

// HidePrices strips financial data.
func (v *Validation) HidePrices() {
	for i := range v.Requirements {
		v.Requirements[i].Price = nil
	}
	for i := range v.Shortages {
		v.Shortages[i].Price = nil
	}
}

// PackResult is returned by a successful pack.
type PackResult struct {
	Packed bool `json:"packed"`
}
