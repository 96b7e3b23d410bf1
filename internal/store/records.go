package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/erazemk/kitwms/internal/model"
)

// RecordInbound adds stock to a component and appends an inbound record,
// both in one transaction.
func RecordInbound(ctx context.Context, db *sqlx.DB, componentID int64, quantity int, note string) (*model.InboundRecord, error) {
	if componentID <= 0 {
		return nil, fmt.Errorf("%w: component id required", model.ErrInvalidInput)
	}
	if err := model.ValidateMovementQuantity(quantity); err != nil {
		return nil, err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := AdjustStock(ctx, tx, componentID, quantity); err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO inbound_records (component_id, quantity, note) VALUES (?, ?, ?)`,
		componentID, quantity, note,
	)
	if err != nil {
		return nil, fmt.Errorf("recording inbound: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting inbound record id: %w", err)
	}

	rec := &model.InboundRecord{}
	err = tx.GetContext(ctx, rec,
		`SELECT ir.id, ir.component_id, ir.quantity, ir.note, ir.created_at, c.name AS component_name
		 FROM inbound_records ir
		 JOIN components c ON c.id = ir.component_id
		 WHERE ir.id = ?`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("reading inbound record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing inbound: %w", err)
	}
	return rec, nil
}

// OutboundInput describes a manual stock removal.
type OutboundInput struct {
	ComponentID int64
	Quantity    int
	Reason      string
	Description string
}

// RecordOutbound removes stock from a component and appends an outbound
// record, both in one transaction. It fails with ErrInsufficientInventory if
// the component does not hold enough stock.
func RecordOutbound(ctx context.Context, db *sqlx.DB, in OutboundInput) (*model.OutboundRecord, error) {
	if in.ComponentID <= 0 || strings.TrimSpace(in.Reason) == "" {
		return nil, fmt.Errorf("%w: component id and a reason are required", model.ErrInvalidInput)
	}
	if err := model.ValidateMovementQuantity(in.Quantity); err != nil {
		return nil, err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := AdjustStock(ctx, tx, in.ComponentID, -in.Quantity); err != nil {
		return nil, err
	}

	id, err := AppendOutbound(ctx, tx, in.ComponentID, in.Quantity, in.Reason, in.Description, nil)
	if err != nil {
		return nil, err
	}

	rec, err := getOutbound(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing outbound: %w", err)
	}
	return rec, nil
}

// AppendOutbound writes one outbound record. It does not touch stock; the
// caller owns the transaction and the matching decrement.
func AppendOutbound(ctx context.Context, e sqlx.ExtContext, componentID int64, quantity int, reason, description string, planID *int64) (int64, error) {
	result, err := e.ExecContext(ctx,
		`INSERT INTO outbound_records (component_id, quantity, reason, description, restock_plan_id)
		 VALUES (?, ?, ?, ?, ?)`,
		componentID, quantity, reason, description, planID,
	)
	if err != nil {
		return 0, fmt.Errorf("recording outbound: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting outbound record id: %w", err)
	}
	return id, nil
}

const outboundSelect = `SELECT o.id, o.component_id, o.quantity, o.reason, o.description,
       o.restock_plan_id, o.created_at, c.name AS component_name,
       rp.name AS restock_plan_name, rp.status AS restock_plan_status,
       CASE WHEN o.restock_plan_id IS NOT NULL THEN '` + model.OutboundTypePlan + `'
            ELSE '` + model.OutboundTypeManual + `' END AS outbound_type,
       c.price AS component_price
FROM outbound_records o
JOIN components c ON c.id = o.component_id
LEFT JOIN restock_plans rp ON rp.id = o.restock_plan_id`

func getOutbound(ctx context.Context, q sqlx.QueryerContext, id int64) (*model.OutboundRecord, error) {
	rec := &model.OutboundRecord{}
	if err := sqlx.GetContext(ctx, q, rec, outboundSelect+` WHERE o.id = ?`, id); err != nil {
		return nil, fmt.Errorf("reading outbound record: %w", err)
	}
	withValue(rec)
	return rec, nil
}

// ListInbound returns all inbound records, newest first.
func ListInbound(ctx context.Context, db *sqlx.DB) ([]model.InboundRecord, error) {
	records := []model.InboundRecord{}
	err := db.SelectContext(ctx, &records,
		`SELECT ir.id, ir.component_id, ir.quantity, ir.note, ir.created_at, c.name AS component_name
		 FROM inbound_records ir
		 JOIN components c ON c.id = ir.component_id
		 ORDER BY ir.created_at DESC, ir.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing inbound records: %w", err)
	}
	return records, nil
}

// ListOutbound returns outbound records, newest first. A non-zero
// componentID restricts the list to that component.
func ListOutbound(ctx context.Context, db *sqlx.DB, componentID int64) ([]model.OutboundRecord, error) {
	query := outboundSelect
	var args []any
	if componentID != 0 {
		query += ` WHERE o.component_id = ?`
		args = append(args, componentID)
	}
	query += ` ORDER BY o.created_at DESC, o.id DESC`

	records := []model.OutboundRecord{}
	if err := db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("listing outbound records: %w", err)
	}
	for i := range records {
		withValue(&records[i])
	}
	return records, nil
}

// ComponentOutboundHistory returns every outbound record of one component,
// each tagged with whether it came from a restock plan or a manual removal.
func ComponentOutboundHistory(ctx context.Context, db *sqlx.DB, componentID int64) ([]model.OutboundRecord, error) {
	return ListOutbound(ctx, db, componentID)
}

// PlanOutbound returns the outbound records written when a plan was packed,
// ordered by component name, with their value at current prices.
func PlanOutbound(ctx context.Context, db *sqlx.DB, planID int64) ([]model.OutboundRecord, error) {
	records := []model.OutboundRecord{}
	err := db.SelectContext(ctx, &records,
		outboundSelect+` WHERE o.restock_plan_id = ? ORDER BY c.name, o.id`, planID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing restock plan outbound records: %w", err)
	}
	for i := range records {
		withValue(&records[i])
	}
	return records, nil
}

// SummaryRange optionally restricts OutboundSummary to an inclusive range of
// dates formatted as YYYY-MM-DD. Both ends must be set for the range to apply.
type SummaryRange struct {
	Start string
	End   string
}

// OutboundSummary groups outbound records by day and reason, newest day
// first. Values are computed at current component prices.
func OutboundSummary(ctx context.Context, db *sqlx.DB, r SummaryRange) ([]model.OutboundSummary, error) {
	query := `SELECT DATE(o.created_at) AS date, o.reason, o.quantity, c.price
		FROM outbound_records o
		JOIN components c ON c.id = o.component_id`
	var args []any
	if r.Start != "" && r.End != "" {
		query += ` WHERE DATE(o.created_at) BETWEEN ? AND ?`
		args = append(args, r.Start, r.End)
	}
	query += ` ORDER BY date DESC, o.reason, o.id`

	var rows []struct {
		Date     string          `db:"date"`
		Reason   string          `db:"reason"`
		Quantity int             `db:"quantity"`
		Price    decimal.Decimal `db:"price"`
	}
	if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("summarizing outbound records: %w", err)
	}

	summary := []model.OutboundSummary{}
	for _, row := range rows {
		n := len(summary)
		if n == 0 || summary[n-1].Date != row.Date || summary[n-1].Reason != row.Reason {
			zero := decimal.Zero
			summary = append(summary, model.OutboundSummary{Date: row.Date, Reason: row.Reason, TotalValue: &zero})
			n++
		}
		s := &summary[n-1]
		s.RecordCount++
		s.TotalQuantity += row.Quantity
		v := s.TotalValue.Add(row.Price.Mul(decimal.NewFromInt(int64(row.Quantity))))
		s.TotalValue = &v
	}
	return summary, nil
}

func withValue(rec *model.OutboundRecord) {
	if rec.ComponentPrice == nil {
		return
	}
	v := rec.ComponentPrice.Mul(decimal.NewFromInt(int64(rec.Quantity)))
	rec.TotalValue = &v
}
