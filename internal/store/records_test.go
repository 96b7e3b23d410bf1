package store

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/erazemk/kitwms/internal/db"
	"github.com/erazemk/kitwms/internal/model"
)

func TestRecordInbound(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	c := mustComponent(t, database, "x", "1", 0)

	rec, err := RecordInbound(ctx, database, c.ID, 7, "delivery")
	if err != nil {
		t.Fatalf("RecordInbound: %v", err)
	}
	if rec.Quantity != 7 || rec.ComponentName != "x" || rec.Note != "delivery" {
		t.Errorf("unexpected record: %+v", rec)
	}

	got, _ := GetComponent(ctx, database, c.ID)
	if got.StockQuantity != 7 {
		t.Errorf("expected stock 7, got %d", got.StockQuantity)
	}

	if _, err := RecordInbound(ctx, database, c.ID, 0, ""); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := RecordInbound(ctx, database, 9999, 1, ""); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	records, _ := ListInbound(ctx, database)
	if len(records) != 1 {
		t.Errorf("expected 1 inbound record, got %d", len(records))
	}
}

func TestRecordOutbound(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	c := mustComponent(t, database, "x", "1.50", 5)

	rec, err := RecordOutbound(ctx, database, OutboundInput{ComponentID: c.ID, Quantity: 2, Reason: "damaged"})
	if err != nil {
		t.Fatalf("RecordOutbound: %v", err)
	}
	if rec.OutboundType != model.OutboundTypeManual || rec.RestockPlanID != nil {
		t.Errorf("unexpected record: %+v", rec)
	}
	if !rec.TotalValue.Equal(decimal.RequireFromString("3")) {
		t.Errorf("expected value 3, got %v", rec.TotalValue)
	}

	_, err = RecordOutbound(ctx, database, OutboundInput{ComponentID: c.ID, Quantity: 4, Reason: "lost"})
	if !errors.Is(err, model.ErrInsufficientInventory) {
		t.Errorf("expected ErrInsufficientInventory, got %v", err)
	}

	got, _ := GetComponent(ctx, database, c.ID)
	if got.StockQuantity != 3 {
		t.Errorf("expected stock 3, got %d", got.StockQuantity)
	}

	records, _ := ListOutbound(ctx, database, 0)
	if len(records) != 1 {
		t.Errorf("expected the refused outbound to leave no record, got %d", len(records))
	}

	if _, err := RecordOutbound(ctx, database, OutboundInput{ComponentID: c.ID, Quantity: 1}); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for missing reason, got %v", err)
	}
}

func TestStockMatchesLedger(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	c := mustComponent(t, database, "x", "1", 10)
	RecordInbound(ctx, database, c.ID, 5, "")
	RecordOutbound(ctx, database, OutboundInput{ComponentID: c.ID, Quantity: 4, Reason: "sample"})
	RecordOutbound(ctx, database, OutboundInput{ComponentID: c.ID, Quantity: 100, Reason: "too much"})

	var in, out int
	database.GetContext(ctx, &in, `SELECT COALESCE(SUM(quantity), 0) FROM inbound_records WHERE component_id = ?`, c.ID)
	database.GetContext(ctx, &out, `SELECT COALESCE(SUM(quantity), 0) FROM outbound_records WHERE component_id = ?`, c.ID)

	got, _ := GetComponent(ctx, database, c.ID)
	if got.StockQuantity != in-out {
		t.Errorf("stock %d does not match ledger %d - %d", got.StockQuantity, in, out)
	}
}

func TestOutboundHistoryAndPlanOutbound(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	c := mustComponent(t, database, "x", "2", 10)
	p := mustPlan(t, database, "plan")

	if _, err := AppendOutbound(ctx, database, c.ID, 3, model.PackReason, "", &p.ID); err != nil {
		t.Fatalf("AppendOutbound: %v", err)
	}
	if _, err := RecordOutbound(ctx, database, OutboundInput{ComponentID: c.ID, Quantity: 1, Reason: "sample"}); err != nil {
		t.Fatalf("RecordOutbound: %v", err)
	}

	history, err := ComponentOutboundHistory(ctx, database, c.ID)
	if err != nil {
		t.Fatalf("ComponentOutboundHistory: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 records, got %d", len(history))
	}
	var plans, manual int
	for _, r := range history {
		switch r.OutboundType {
		case model.OutboundTypePlan:
			plans++
			if r.RestockPlanName == nil || *r.RestockPlanName != "plan" {
				t.Errorf("expected plan name, got %v", r.RestockPlanName)
			}
		case model.OutboundTypeManual:
			manual++
		}
	}
	if plans != 1 || manual != 1 {
		t.Errorf("expected one of each type, got %d plan and %d manual", plans, manual)
	}

	planRecords, err := PlanOutbound(ctx, database, p.ID)
	if err != nil {
		t.Fatalf("PlanOutbound: %v", err)
	}
	if len(planRecords) != 1 || !planRecords[0].TotalValue.Equal(decimal.RequireFromString("6")) {
		t.Errorf("unexpected plan outbound: %+v", planRecords)
	}
}

func TestOutboundSummary(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a := mustComponent(t, database, "a", "1.25", 10)
	b := mustComponent(t, database, "b", "3", 10)

	RecordOutbound(ctx, database, OutboundInput{ComponentID: a.ID, Quantity: 2, Reason: "sample"})
	RecordOutbound(ctx, database, OutboundInput{ComponentID: b.ID, Quantity: 1, Reason: "sample"})
	RecordOutbound(ctx, database, OutboundInput{ComponentID: a.ID, Quantity: 4, Reason: "damaged"})

	summary, err := OutboundSummary(ctx, database, SummaryRange{})
	if err != nil {
		t.Fatalf("OutboundSummary: %v", err)
	}
	if len(summary) != 2 {
		t.Fatalf("expected 2 groups, got %+v", summary)
	}

	// Same day, ordered by reason.
	if summary[0].Reason != "damaged" || summary[0].TotalQuantity != 4 || !summary[0].TotalValue.Equal(decimal.RequireFromString("5")) {
		t.Errorf("unexpected damaged group: %+v", summary[0])
	}
	if summary[1].Reason != "sample" || summary[1].RecordCount != 2 || !summary[1].TotalValue.Equal(decimal.RequireFromString("5.5")) {
		t.Errorf("unexpected sample group: %+v", summary[1])
	}

	none, err := OutboundSummary(ctx, database, SummaryRange{Start: "2000-01-01", End: "2000-01-02"})
	if err != nil {
		t.Fatalf("OutboundSummary with range: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no groups outside range, got %d", len(none))
	}
}

func TestLedgerQuantityLimits(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	c := mustComponent(t, database, "x", "1", 0)

	tests := []struct {
		name     string
		quantity int
	}{
		{"above maximum", model.MaxStockQuantity + 1},
		{"max int", math.MaxInt},
		{"negative", -3},
	}
	for _, tt := range tests {
		if _, err := RecordInbound(ctx, database, c.ID, tt.quantity, ""); !errors.Is(err, model.ErrInvalidInput) {
			t.Errorf("inbound %s: expected ErrInvalidInput, got %v", tt.name, err)
		}
		_, err := RecordOutbound(ctx, database, OutboundInput{ComponentID: c.ID, Quantity: tt.quantity, Reason: "lost"})
		if !errors.Is(err, model.ErrInvalidInput) {
			t.Errorf("outbound %s: expected ErrInvalidInput, got %v", tt.name, err)
		}
	}

	if _, err := RecordInbound(ctx, database, c.ID, model.MaxStockQuantity, ""); err != nil {
		t.Fatalf("inbound up to the maximum: %v", err)
	}
	if _, err := RecordInbound(ctx, database, c.ID, 1, ""); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput past the maximum, got %v", err)
	}

	got, err := GetComponent(ctx, database, c.ID)
	if err != nil {
		t.Fatalf("GetComponent after rejected inbound: %v", err)
	}
	if got.StockQuantity != model.MaxStockQuantity {
		t.Errorf("stock = %d, want %d", got.StockQuantity, model.MaxStockQuantity)
	}

	records, _ := ListInbound(ctx, database)
	if len(records) != 1 {
		t.Errorf("expected 1 inbound record, got %d", len(records))
	}
}
