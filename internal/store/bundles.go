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

const bundleColumns = `id, name, description, image_mime, created_at, updated_at`

// BundleInput holds the editable fields of a bundle, including its full
// component list.
type BundleInput struct {
	Name        string
	Description string
	Components  []model.BundleLine
}

func (in BundleInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name required", model.ErrInvalidInput)
	}
	return model.ValidateBundleLines(in.Components)
}

// CreateBundle creates a bundle and its component lines in one transaction.
func CreateBundle(ctx context.Context, db *sqlx.DB, in BundleInput) (*model.Bundle, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := requireComponents(ctx, tx, in.Components); err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO bundles (name, description) VALUES (?, ?)`,
		in.Name, in.Description,
	)
	if err != nil {
		return nil, fmt.Errorf("creating bundle: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting bundle id: %w", err)
	}

	if err := insertBundleLines(ctx, tx, id, in.Components); err != nil {
		return nil, err
	}

	b, err := GetBundle(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing bundle: %w", err)
	}
	return b, nil
}

// UpdateBundle replaces a bundle's metadata and its entire component list.
func UpdateBundle(ctx context.Context, db *sqlx.DB, id int64, in BundleInput) (*model.Bundle, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE bundles SET name = ?, description = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		in.Name, in.Description, id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating bundle: %w", err)
	}
	if err := requireRow(result, "bundle"); err != nil {
		return nil, err
	}

	if err := requireComponents(ctx, tx, in.Components); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM bundle_components WHERE bundle_id = ?`, id); err != nil {
		return nil, fmt.Errorf("clearing bundle components: %w", err)
	}
	if err := insertBundleLines(ctx, tx, id, in.Components); err != nil {
		return nil, err
	}

	b, err := GetBundle(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing bundle: %w", err)
	}
	return b, nil
}

// GetBundle returns a bundle with its component lines, or nil if it does not
// exist.
func GetBundle(ctx context.Context, q sqlx.QueryerContext, id int64) (*model.Bundle, error) {
	b := &model.Bundle{}
	err := sqlx.GetContext(ctx, q, b,
		`SELECT `+bundleColumns+` FROM bundles WHERE id = ?`, id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting bundle: %w", err)
	}

	b.Components, err = GetBundleLines(ctx, q, id)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetBundleLines returns a bundle's component lines joined with the current
// component name, price and stock, in insertion order.
func GetBundleLines(ctx context.Context, q sqlx.QueryerContext, bundleID int64) ([]model.BundleLine, error) {
	lines := []model.BundleLine{}
	err := sqlx.SelectContext(ctx, q, &lines,
		`SELECT bc.component_id, bc.quantity, c.name, c.price, c.stock_quantity
		 FROM bundle_components bc
		 JOIN components c ON c.id = bc.component_id
		 WHERE bc.bundle_id = ?
		 ORDER BY bc.rowid`, bundleID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting bundle components: %w", err)
	}
	return lines, nil
}

// ListBundles returns all bundles with a one-line component summary.
func ListBundles(ctx context.Context, db *sqlx.DB) ([]model.Bundle, error) {
	var bundles []model.Bundle
	err := db.SelectContext(ctx, &bundles,
		`SELECT b.id, b.name, b.description, b.image_mime, b.created_at, b.updated_at,
		        COALESCE(GROUP_CONCAT(c.name || ' x' || bc.quantity, ', '), '') AS components_info
		 FROM bundles b
		 LEFT JOIN bundle_components bc ON bc.bundle_id = b.id
		 LEFT JOIN components c ON c.id = bc.component_id
		 GROUP BY b.id
		 ORDER BY b.created_at DESC, b.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing bundles: %w", err)
	}
	return bundles, nil
}

// DeleteBundle deletes a bundle. Its lines, and lines of PACKING plans
// referencing it, are removed by cascade. A bundle that a PACKED plan
// references cannot be deleted.
func DeleteBundle(ctx context.Context, db *sqlx.DB, id int64) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var packed int
	err = tx.GetContext(ctx, &packed,
		`SELECT COUNT(*) FROM restock_plan_bundles rpb
		 JOIN restock_plans rp ON rp.id = rpb.restock_plan_id
		 WHERE rpb.bundle_id = ? AND rp.status = ?`,
		id, model.PlanPacked,
	)
	if err != nil {
		return fmt.Errorf("checking packed plans: %w", err)
	}
	if packed > 0 {
		return fmt.Errorf("%w: bundle %d is part of a packed restock plan", model.ErrInvalidState, id)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM bundles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting bundle: %w", err)
	}
	if err := requireRow(result, "bundle"); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing bundle delete: %w", err)
	}
	return nil
}

// SetBundleImage sets a bundle's image data.
func SetBundleImage(ctx context.Context, db *sqlx.DB, id int64, image []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE bundles SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting bundle image: %w", err)
	}
	return requireRow(result, "bundle")
}

// GetBundleImage returns a bundle's image data and MIME type.
func GetBundleImage(ctx context.Context, db *sqlx.DB, id int64) ([]byte, string, error) {
	return getImage(ctx, db, "bundles", id)
}

func insertBundleLines(ctx context.Context, tx *sqlx.Tx, bundleID int64, lines []model.BundleLine) error {
	for _, l := range lines {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO bundle_components (bundle_id, component_id, quantity) VALUES (?, ?, ?)`,
			bundleID, l.ComponentID, l.Quantity,
		)
		if err != nil {
			return fmt.Errorf("adding component %d to bundle: %w", l.ComponentID, err)
		}
	}
	return nil
}

// requireComponents fails with ErrInvalidInput if any referenced component
// does not exist.
func requireComponents(ctx context.Context, tx *sqlx.Tx, lines []model.BundleLine) error {
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ComponentID)
	}
	missing, err := missingIDs(ctx, tx, "components", ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: component %d does not exist", model.ErrInvalidInput, missing[0])
	}
	return nil
}

// missingIDs returns the ids that have no row in table, in input order.
func missingIDs(ctx context.Context, tx *sqlx.Tx, table string, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT id FROM `+table+` WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("building lookup: %w", err)
	}

	var found []int64
	if err := tx.SelectContext(ctx, &found, tx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("looking up %s: %w", table, err)
	}

	exists := make(map[int64]bool, len(found))
	for _, id := range found {
		exists[id] = true
	}

	var missing []int64
	for _, id := range ids {
		if !exists[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
