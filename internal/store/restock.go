package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/kitwms/internal/model"
)

const planColumns = `id, name, description, status, created_at, updated_at`

// PlanInput holds the editable fields of a restock plan, including its full
// bundle list.
type PlanInput struct {
	Name        string
	Description string
	Bundles     []model.PlanLine
}

func (in PlanInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name required", model.ErrInvalidInput)
	}
	return model.ValidatePlanLines(in.Bundles)
}

// CreatePlan creates a restock plan in PACKING state with its bundle lines.
func CreatePlan(ctx context.Context, db *sqlx.DB, in PlanInput) (*model.RestockPlan, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := requireBundles(ctx, tx, in.Bundles); err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO restock_plans (name, description, status) VALUES (?, ?, ?)`,
		in.Name, in.Description, model.PlanPacking,
	)
	if err != nil {
		return nil, fmt.Errorf("creating restock plan: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting restock plan id: %w", err)
	}

	if err := insertPlanLines(ctx, tx, id, in.Bundles); err != nil {
		return nil, err
	}

	p, err := GetPlan(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing restock plan: %w", err)
	}
	return p, nil
}

// GetPlan returns a restock plan with its bundle lines, or nil if it does not
// exist.
func GetPlan(ctx context.Context, q sqlx.QueryerContext, id int64) (*model.RestockPlan, error) {
	p := &model.RestockPlan{}
	err := sqlx.GetContext(ctx, q, p,
		`SELECT `+planColumns+` FROM restock_plans WHERE id = ?`, id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting restock plan: %w", err)
	}

	p.Bundles, err = GetPlanLines(ctx, q, id)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetPlanLines returns a plan's bundle lines in insertion order.
func GetPlanLines(ctx context.Context, q sqlx.QueryerContext, planID int64) ([]model.PlanLine, error) {
	lines := []model.PlanLine{}
	err := sqlx.SelectContext(ctx, q, &lines,
		`SELECT rpb.bundle_id, rpb.quantity, b.name AS bundle_name
		 FROM restock_plan_bundles rpb
		 JOIN bundles b ON b.id = rpb.bundle_id
		 WHERE rpb.restock_plan_id = ?
		 ORDER BY rpb.id`, planID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting restock plan bundles: %w", err)
	}
	return lines, nil
}

// ListPlans returns all restock plans with a one-line bundle summary.
func ListPlans(ctx context.Context, db *sqlx.DB) ([]model.RestockPlan, error) {
	var plans []model.RestockPlan
	err := db.SelectContext(ctx, &plans,
		`SELECT rp.id, rp.name, rp.description, rp.status, rp.created_at, rp.updated_at,
		        COALESCE(GROUP_CONCAT(b.name || ' x' || rpb.quantity, ', '), '') AS bundles_info
		 FROM restock_plans rp
		 LEFT JOIN restock_plan_bundles rpb ON rpb.restock_plan_id = rp.id
		 LEFT JOIN bundles b ON b.id = rpb.bundle_id
		 GROUP BY rp.id
		 ORDER BY rp.created_at DESC, rp.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing restock plans: %w", err)
	}
	return plans, nil
}

// UpdatePlan replaces a PACKING plan's metadata and its entire bundle list.
// Packed plans are immutable.
func UpdatePlan(ctx context.Context, db *sqlx.DB, id int64, in PlanInput) (*model.RestockPlan, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := requireEditable(ctx, tx, id); err != nil {
		return nil, err
	}
	if err := requireBundles(ctx, tx, in.Bundles); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE restock_plans SET name = ?, description = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		in.Name, in.Description, id, model.PlanPacking,
	)
	if err != nil {
		return nil, fmt.Errorf("updating restock plan: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM restock_plan_bundles WHERE restock_plan_id = ?`, id); err != nil {
		return nil, fmt.Errorf("clearing restock plan bundles: %w", err)
	}
	if err := insertPlanLines(ctx, tx, id, in.Bundles); err != nil {
		return nil, err
	}

	p, err := GetPlan(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing restock plan: %w", err)
	}
	return p, nil
}

// DeletePlan deletes a PACKING plan. Outbound records keep their rows with
// the plan reference cleared.
func DeletePlan(ctx context.Context, db *sqlx.DB, id int64) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := requireEditable(ctx, tx, id); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM restock_plans WHERE id = ? AND status = ?`, id, model.PlanPacking,
	); err != nil {
		return fmt.Errorf("deleting restock plan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing restock plan delete: %w", err)
	}
	return nil
}

// SetPlanStatus moves a plan from one status to another. The update only
// matches while the plan is still in from, so of two concurrent callers at
// most one succeeds; the other gets ErrInvalidState.
func SetPlanStatus(ctx context.Context, e sqlx.ExtContext, id int64, from, to model.PlanStatus) error {
	result, err := e.ExecContext(ctx,
		`UPDATE restock_plans SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`,
		to, id, from,
	)
	if err != nil {
		return fmt.Errorf("setting restock plan status: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("setting restock plan status: %w", err)
	}
	if n == 1 {
		return nil
	}

	status, err := planStatus(ctx, e, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: restock plan %d is %s, expected %s", model.ErrInvalidState, id, status, from)
}

// requireEditable fails with ErrNotFound for a missing plan and
// ErrInvalidState for a packed one.
func requireEditable(ctx context.Context, q sqlx.QueryerContext, id int64) error {
	status, err := planStatus(ctx, q, id)
	if err != nil {
		return err
	}
	if status != model.PlanPacking {
		return fmt.Errorf("%w: restock plan %d is %s and cannot be changed", model.ErrInvalidState, id, status)
	}
	return nil
}

func planStatus(ctx context.Context, q sqlx.QueryerContext, id int64) (model.PlanStatus, error) {
	var status model.PlanStatus
	err := sqlx.GetContext(ctx, q, &status, `SELECT status FROM restock_plans WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: restock plan %d", model.ErrNotFound, id)
	}
	if err != nil {
		return "", fmt.Errorf("getting restock plan status: %w", err)
	}
	return status, nil
}

func insertPlanLines(ctx context.Context, tx *sqlx.Tx, planID int64, lines []model.PlanLine) error {
	for _, l := range lines {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO restock_plan_bundles (restock_plan_id, bundle_id, quantity) VALUES (?, ?, ?)`,
			planID, l.BundleID, l.Quantity,
		)
		if err != nil {
			return fmt.Errorf("adding bundle %d to restock plan: %w", l.BundleID, err)
		}
	}
	return nil
}

// requireBundles fails with ErrInvalidInput if any referenced bundle does not
// exist.
func requireBundles(ctx context.Context, tx *sqlx.Tx, lines []model.PlanLine) error {
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.BundleID)
	}
	missing, err := missingIDs(ctx, tx, "bundles", ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: bundle %d does not exist", model.ErrInvalidInput, missing[0])
	}
	return nil
}
