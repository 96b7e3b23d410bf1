package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InboundRecord is an append-only stock addition.
type InboundRecord struct {
	ID          int64     `json:"id" db:"id"`
	ComponentID int64     `json:"component_id" db:"component_id"`
	Quantity    int       `json:"quantity" db:"quantity"`
	Note        string    `json:"note,omitempty" db:"note"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	// Joined fields (not always populated).
	ComponentName string `json:"component_name,omitempty" db:"component_name"`
}

// OutboundRecord is an append-only stock removal. RestockPlanID is a weak
// reference and becomes nil when the plan is deleted.
type OutboundRecord struct {
	ID            int64     `json:"id" db:"id"`
	ComponentID   int64     `json:"component_id" db:"component_id"`
	Quantity      int       `json:"quantity" db:"quantity"`
	Reason        string    `json:"reason" db:"reason"`
	Description   string    `json:"description,omitempty" db:"description"`
	RestockPlanID *int64    `json:"restock_plan_id,omitempty" db:"restock_plan_id"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`

	// Joined fields (not always populated).
	ComponentName     string           `json:"component_name,omitempty" db:"component_name"`
	RestockPlanName   *string          `json:"restock_plan_name,omitempty" db:"restock_plan_name"`
	RestockPlanStatus *string          `json:"restock_plan_status,omitempty" db:"restock_plan_status"`
	OutboundType      string           `json:"outbound_type,omitempty" db:"outbound_type"`
	ComponentPrice    *decimal.Decimal `json:"component_price,omitempty" db:"component_price"`
	TotalValue        *decimal.Decimal `json:"total_value,omitempty" db:"-"`
}

// Outbound types reported in component history.
const (
	OutboundTypePlan   = "Restock Plan"
	OutboundTypeManual = "Manual Outbound"
)

// HidePrices strips financial data.
func (o *OutboundRecord) HidePrices() {
	o.ComponentPrice = nil
	o.TotalValue = nil
}

// OutboundSummary aggregates outbound records per day and reason.
type OutboundSummary struct {
	Date          string           `json:"date" db:"date"`
	Reason        string           `json:"reason" db:"reason"`
	RecordCount   int              `json:"record_count" db:"record_count"`
	TotalQuantity int              `json:"total_quantity" db:"total_quantity"`
	TotalValue    *decimal.Decimal `json:"total_value,omitempty" db:"-"`
}

// HidePrices strips financial data.
func (s *OutboundSummary) HidePrices() {
	s.TotalValue = nil
}
