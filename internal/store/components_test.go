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

func TestCreateAndGetComponent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	c, err := CreateComponent(ctx, database, ComponentInput{
		Name:        "M3 screw",
		Description: "10mm",
		Price:       decimal.RequireFromString("0.15"),
	})
	if err != nil {
		t.Fatalf("CreateComponent: %v", err)
	}
	if c.StockQuantity != 0 {
		t.Errorf("expected zero stock, got %d", c.StockQuantity)
	}
	if c.Price == nil || !c.Price.Equal(decimal.RequireFromString("0.15")) {
		t.Errorf("expected price 0.15, got %v", c.Price)
	}

	missing, err := GetComponent(ctx, database, 9999)
	if err != nil {
		t.Fatalf("GetComponent: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing component")
	}
}

func TestCreateComponentValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateComponent(ctx, database, ComponentInput{Name: " "}); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for blank name, got %v", err)
	}
	if _, err := CreateComponent(ctx, database, ComponentInput{Name: "x", Price: decimal.NewFromInt(-1)}); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for negative price, got %v", err)
	}
}

func TestUpdateAndDeleteComponent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	c := mustComponent(t, database, "nut", "0.05", 3)

	updated, err := UpdateComponent(ctx, database, c.ID, ComponentInput{Name: "M3 nut", Price: decimal.RequireFromString("0.07")})
	if err != nil {
		t.Fatalf("UpdateComponent: %v", err)
	}
	if updated.Name != "M3 nut" || updated.StockQuantity != 3 {
		t.Errorf("unexpected component after update: %+v", updated)
	}

	if _, err := UpdateComponent(ctx, database, 9999, ComponentInput{Name: "x"}); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := DeleteComponent(ctx, database, c.ID); err != nil {
		t.Fatalf("DeleteComponent: %v", err)
	}
	if err := DeleteComponent(ctx, database, c.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestAdjustStock(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	c := mustComponent(t, database, "bolt", "1", 5)

	if err := AdjustStock(ctx, database, c.ID, -5); err != nil {
		t.Fatalf("AdjustStock to zero: %v", err)
	}
	err := AdjustStock(ctx, database, c.ID, -1)
	if !errors.Is(err, model.ErrInsufficientInventory) {
		t.Errorf("expected ErrInsufficientInventory, got %v", err)
	}

	got, _ := GetComponent(ctx, database, c.ID)
	if got.StockQuantity != 0 {
		t.Errorf("expected stock 0, got %d", got.StockQuantity)
	}

	if err := AdjustStock(ctx, database, 9999, 1); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := AdjustStock(ctx, database, c.ID, 0); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for zero delta, got %v", err)
	}
	for _, delta := range []int{model.MaxStockQuantity + 1, -model.MaxStockQuantity - 1, math.MaxInt, math.MinInt} {
		if err := AdjustStock(ctx, database, c.ID, delta); !errors.Is(err, model.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for delta %d, got %v", delta, err)
		}
	}
}

func TestComponentImage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	c := mustComponent(t, database, "washer", "0.01", 0)
	if err := SetComponentImage(ctx, database, c.ID, []byte{1, 2, 3}, "image/jpeg"); err != nil {
		t.Fatalf("SetComponentImage: %v", err)
	}

	data, mime, err := GetComponentImage(ctx, database, c.ID)
	if err != nil {
		t.Fatalf("GetComponentImage: %v", err)
	}
	if len(data) != 3 || mime != "image/jpeg" {
		t.Errorf("unexpected image: %v %q", data, mime)
	}
}

func TestStockOverview(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	mustComponent(t, database, "a", "2.50", 4)
	mustComponent(t, database, "b", "0.10", 0)

	rows, err := StockOverview(ctx, database)
	if err != nil {
		t.Fatalf("StockOverview: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Name != "a" || !rows[0].TotalValue.Equal(decimal.RequireFromString("10")) {
		t.Errorf("unexpected first row: %+v", rows[0])
	}
	if !rows[1].TotalValue.IsZero() {
		t.Errorf("expected zero value for empty stock, got %v", rows[1].TotalValue)
	}
}
