package model

import (
	"errors"
	"fmt"
)

// Error classes shared by the store, packing and api packages.
// Anything that is not one of these is treated as a storage failure.
var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidInput          = errors.New("invalid input")
	ErrInvalidState          = errors.New("invalid state")
	ErrInsufficientInventory = errors.New("insufficient inventory")
)

// InsufficientInventoryError reports the components a plan is short of.
type InsufficientInventoryError struct {
	PlanID    int64
	Shortages []Shortage
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for restock plan %d: %d component(s) short", e.PlanID, len(e.Shortages))
}

// Is makes errors.Is(err, ErrInsufficientInventory) match.
func (e *InsufficientInventoryError) Is(target error) bool {
	return target == ErrInsufficientInventory
}
