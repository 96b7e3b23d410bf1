package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Bundle is a named kit composed of components.
type Bundle struct {
	ID          int64        `json:"id" db:"id"`
	Name        string       `json:"name" db:"name"`
	Description string       `json:"description,omitempty" db:"description"`
	ImageMime   string       `json:"image_mime,omitempty" db:"image_mime"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
	Components  []BundleLine `json:"components" db:"-"`

	// Joined summary for list views (not always populated).
	ComponentsInfo string `json:"components_info,omitempty" db:"components_info"`
}

// BundleLine is one (component, quantity) pair of a bundle.
type BundleLine struct {
	ComponentID int64 `json:"component_id" db:"component_id"`
	Quantity    int   `json:"quantity" db:"quantity"`

	// Joined fields (not always populated).
	Name          string           `json:"name,omitempty" db:"name"`
	Price         *decimal.Decimal `json:"price,omitempty" db:"price"`
	StockQuantity int              `json:"stock_quantity" db:"stock_quantity"`
}

// HidePrices strips financial data.
func (b *Bundle) HidePrices() {
	for i := range b.Components {
		b.Components[i].Price = nil
	}
}

// MaxBundleLineQuantity bounds how many of one component a bundle holds.
const MaxBundleLineQuantity = MaxPlanQuantity

// ValidateBundleLines checks a bundle's component list: at least one line,
// quantities between 1 and MaxBundleLineQuantity, each component at most once.
func ValidateBundleLines(lines []BundleLine) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: bundle must contain at least one component", ErrInvalidInput)
	}
	seen := make(map[int64]bool, len(lines))
	for _, l := range lines {
		if l.ComponentID <= 0 {
			return fmt.Errorf("%w: invalid component id %d", ErrInvalidInput, l.ComponentID)
		}
		if l.Quantity < 1 {
			return fmt.Errorf("%w: quantity for component %d must be at least 1", ErrInvalidInput, l.ComponentID)
		}
		if l.Quantity > MaxBundleLineQuantity {
			return fmt.Errorf("%w: quantity for component %d too large: %d, maximum allowed is %d",
				ErrInvalidInput, l.ComponentID, l.Quantity, MaxBundleLineQuantity)
		}
		if seen[l.ComponentID] {
			return fmt.Errorf("%w: component %d listed more than once", ErrInvalidInput, l.ComponentID)
		}
		seen[l.ComponentID] = true
	}
	return nil
}
