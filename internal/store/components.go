package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/erazemk/kitwms/internal/model"
)

const componentColumns = `id, name, description, price, stock_quantity, image_mime, created_at, updated_at`

// ComponentInput holds the editable fields of a component.
type ComponentInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
}

func (in ComponentInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name required", model.ErrInvalidInput)
	}
	if in.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", model.ErrInvalidInput)
	}
	return nil
}

// CreateComponent creates a new component with zero stock.
func CreateComponent(ctx context.Context, db *sqlx.DB, in ComponentInput) (*model.Component, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO components (name, description, price) VALUES (?, ?, ?)`,
		in.Name, in.Description, in.Price,
	)
	if err != nil {
		return nil, fmt.Errorf("creating component: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting component id: %w", err)
	}

	return GetComponent(ctx, db, id)
}

// GetComponent returns a component by ID, or nil if it does not exist.
func GetComponent(ctx context.Context, q sqlx.QueryerContext, id int64) (*model.Component, error) {
	c := &model.Component{}
	err := sqlx.GetContext(ctx, q, c,
		`SELECT `+componentColumns+` FROM components WHERE id = ?`, id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting component: %w", err)
	}
	return c, nil
}

// ListComponents returns all components, newest first.
func ListComponents(ctx context.Context, db *sqlx.DB) ([]model.Component, error) {
	var components []model.Component
	err := db.SelectContext(ctx, &components,
		`SELECT `+componentColumns+` FROM components ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing components: %w", err)
	}
	return components, nil
}

// UpdateComponent updates a component's metadata. Stock is only changed
// through the ledger.
func UpdateComponent(ctx context.Context, db *sqlx.DB, id int64, in ComponentInput) (*model.Component, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx,
		`UPDATE components SET name = ?, description = ?, price = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		in.Name, in.Description, in.Price, id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating component: %w", err)
	}
	if err := requireRow(result, "component"); err != nil {
		return nil, err
	}

	return GetComponent(ctx, db, id)
}

// DeleteComponent deletes a component. Bundle lines and ledger rows that
// reference it are removed by the schema's cascade rules.
func DeleteComponent(ctx context.Context, db *sqlx.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM components WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting component: %w", err)
	}
	return requireRow(result, "component")
}

// AdjustStock applies a signed delta to a component's stock in a single
// statement. The update only matches while the result stays within
// 0..MaxStockQuantity, so concurrent callers cannot push stock out of range.
func AdjustStock(ctx context.Context, e sqlx.ExtContext, id int64, delta int) error {
	if delta == 0 {
		return fmt.Errorf("%w: delta must be non-zero", model.ErrInvalidInput)
	}
	if delta > model.MaxStockQuantity || delta < -model.MaxStockQuantity {
		return fmt.Errorf("%w: delta %d out of range", model.ErrInvalidInput, delta)
	}

	result, err := e.ExecContext(ctx,
		`UPDATE components SET stock_quantity = stock_quantity + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND stock_quantity >= ? AND stock_quantity <= ?`,
		delta, id, -delta, model.MaxStockQuantity-delta,
	)
	if err != nil {
		return fmt.Errorf("adjusting stock: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjusting stock: %w", err)
	}
	if n == 1 {
		return nil
	}

	// Distinguish a missing component from a guard miss.
	c, err := GetComponent(ctx, e, id)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("%w: component %d", model.ErrNotFound, id)
	}
	if delta > 0 {
		return fmt.Errorf("%w: component %d has %d, adding %d exceeds the maximum of %d",
			model.ErrInvalidInput, id, c.StockQuantity, delta, model.MaxStockQuantity)
	}
	return fmt.Errorf("%w: component %d has %d, cannot apply %d", model.ErrInsufficientInventory, id, c.StockQuantity, delta)
}

// SetComponentImage sets a component's image data.
func SetComponentImage(ctx context.Context, db *sqlx.DB, id int64, image []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE components SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting component image: %w", err)
	}
	return requireRow(result, "component")
}

// GetComponentImage returns a component's image data and MIME type.
func GetComponentImage(ctx context.Context, db *sqlx.DB, id int64) ([]byte, string, error) {
	return getImage(ctx, db, "components", id)
}

// StockOverview returns stock and value per component.
func StockOverview(ctx context.Context, db *sqlx.DB) ([]model.StockSummary, error) {
	var rows []model.StockSummary
	err := db.SelectContext(ctx, &rows,
		`SELECT id, name, stock_quantity, price FROM components ORDER BY name, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("getting stock overview: %w", err)
	}
	for i := range rows {
		if rows[i].Price == nil {
			continue
		}
		v := rows[i].Price.Mul(decimal.NewFromInt(int64(rows[i].StockQuantity)))
		rows[i].TotalValue = &v
	}
	return rows, nil
}

// getImage reads the image columns of a catalog table. table is always a
// constant supplied by this package.
func getImage(ctx context.Context, db *sqlx.DB, table string, id int64) ([]byte, string, error) {
	var image []byte
	var mime string
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM `+table+` WHERE id = ?`, id,
	).Scan(&image, &mime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting image: %w", err)
	}
	return image, mime, nil
}

// requireRow turns a zero-row update into ErrNotFound.
func requireRow(result sql.Result, what string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", model.ErrNotFound, what)
	}
	return nil
}
