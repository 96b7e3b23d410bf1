package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MaxStockQuantity bounds a component's stock and any single inbound or
// outbound movement.
const MaxStockQuantity = 1_000_000_000_000

// ValidateMovementQuantity checks the quantity of one stock movement.
func ValidateMovementQuantity(q int) error {
	if q < 1 {
		return fmt.Errorf("%w: quantity must be a positive integer, got %d", ErrInvalidInput, q)
	}
	if q > MaxStockQuantity {
		return fmt.Errorf("%w: quantity too large: %d, maximum allowed is %d", ErrInvalidInput, q, MaxStockQuantity)
	}
	return nil
}

// Component is an individual part with its own price and stock level.
type Component struct {
	ID            int64            `json:"id" db:"id"`
	Name          string           `json:"name" db:"name"`
	Description   string           `json:"description,omitempty" db:"description"`
	Price         *decimal.Decimal `json:"price,omitempty" db:"price"`
	StockQuantity int              `json:"stock_quantity" db:"stock_quantity"`
	ImageMime     string           `json:"image_mime,omitempty" db:"image_mime"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`
}

// HidePrices strips financial data.
func (c *Component) HidePrices() {
	c.Price = nil
}

// StockSummary is one row of the stock overview.
type StockSummary struct {
	ID            int64            `json:"id" db:"id"`
	Name          string           `json:"name" db:"name"`
	StockQuantity int              `json:"stock_quantity" db:"stock_quantity"`
	Price         *decimal.Decimal `json:"price,omitempty" db:"price"`
	TotalValue    *decimal.Decimal `json:"total_value,omitempty" db:"-"`
}

// HidePrices strips financial data.
func (s *StockSummary) HidePrices() {
	s.Price = nil
	s.TotalValue = nil
}
