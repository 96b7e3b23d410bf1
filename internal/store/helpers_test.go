package store

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/erazemk/kitwms/internal/model"
)

func mustComponent(t *testing.T, database *sqlx.DB, name, price string, stock int) *model.Component {
	t.Helper()
	ctx := context.Background()

	c, err := CreateComponent(ctx, database, ComponentInput{Name: name, Price: decimal.RequireFromString(price)})
	if err != nil {
		t.Fatalf("CreateComponent(%s): %v", name, err)
	}
	if stock > 0 {
		if _, err := RecordInbound(ctx, database, c.ID, stock, "initial"); err != nil {
			t.Fatalf("RecordInbound(%s): %v", name, err)
		}
	}
	c, _ = GetComponent(ctx, database, c.ID)
	return c
}

func mustBundle(t *testing.T, database *sqlx.DB, name string, lines ...model.BundleLine) *model.Bundle {
	t.Helper()
	b, err := CreateBundle(context.Background(), database, BundleInput{Name: name, Components: lines})
	if err != nil {
		t.Fatalf("CreateBundle(%s): %v", name, err)
	}
	return b
}

func mustPlan(t *testing.T, database *sqlx.DB, name string, lines ...model.PlanLine) *model.RestockPlan {
	t.Helper()
	p, err := CreatePlan(context.Background(), database, PlanInput{Name: name, Bundles: lines})
	if err != nil {
		t.Fatalf("CreatePlan(%s): %v", name, err)
	}
	return p
}
