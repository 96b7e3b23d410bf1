package packing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/erazemk/kitwms/internal/model"
	"github.com/erazemk/kitwms/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

type published struct {
	key   string
	event any
}

func (p *recordingPublisher) Publish(_ context.Context, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{key: key, event: event})
	return p.err
}

var errBrokerDown = errors.New("broker down")

func seedComponent(t *testing.T, database *sqlx.DB, name, price string, stock int) int64 {
	t.Helper()
	ctx := context.Background()

	c, err := store.CreateComponent(ctx, database, store.ComponentInput{Name: name, Price: decimal.RequireFromString(price)})
	if err != nil {
		t.Fatalf("CreateComponent(%s): %v", name, err)
	}
	if stock > 0 {
		if _, err := store.RecordInbound(ctx, database, c.ID, stock, ""); err != nil {
			t.Fatalf("RecordInbound(%s): %v", name, err)
		}
	}
	return c.ID
}

func seedBundle(t *testing.T, database *sqlx.DB, name string, lines ...model.BundleLine) int64 {
	t.Helper()
	b, err := store.CreateBundle(context.Background(), database, store.BundleInput{Name: name, Components: lines})
	if err != nil {
		t.Fatalf("CreateBundle(%s): %v", name, err)
	}
	return b.ID
}

func seedPlan(t *testing.T, database *sqlx.DB, name string, lines ...model.PlanLine) int64 {
	t.Helper()
	p, err := store.CreatePlan(context.Background(), database, store.PlanInput{Name: name, Bundles: lines})
	if err != nil {
		t.Fatalf("CreatePlan(%s): %v", name, err)
	}
	return p.ID
}

func stockOf(t *testing.T, database *sqlx.DB, id int64) int {
	t.Helper()
	c, err := store.GetComponent(context.Background(), database, id)
	if err != nil || c == nil {
		t.Fatalf("GetComponent(%d): %v", id, err)
	}
	return c.StockQuantity
}

func statusOf(t *testing.T, database *sqlx.DB, id int64) model.PlanStatus {
	t.Helper()
	p, err := store.GetPlan(context.Background(), database, id)
	if err != nil || p == nil {
		t.Fatalf("GetPlan(%d): %v", id, err)
	}
	return p.Status
}

func planRecords(t *testing.T, database *sqlx.DB, id int64) []model.OutboundRecord {
	t.Helper()
	records, err := store.PlanOutbound(context.Background(), database, id)
	if err != nil {
		t.Fatalf("PlanOutbound(%d): %v", id, err)
	}
	return records
}
