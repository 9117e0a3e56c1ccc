package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fekuna/omnipos-fleet-simulator/internal/apperror"
	"github.com/fekuna/omnipos-fleet-simulator/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (id, name, stock, created_at, updated_at)
        VALUES (:id, :name, :stock, :created_at, :updated_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return apperror.StoreUnavailable("insert product", err)
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	query := `SELECT id, name, stock, created_at, updated_at FROM products WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &product, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperror.StoreUnavailable("get product", err)
	}
	return &product, nil
}

func (r *PGRepository) FindAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	query := `SELECT id, name, stock, created_at, updated_at FROM products ORDER BY name ASC`
	if err := r.DB.SelectContext(ctx, &products, query); err != nil {
		return nil, apperror.StoreUnavailable("list products", err)
	}
	return products, nil
}

func (r *PGRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.DB.GetContext(ctx, &count, `SELECT count(*) FROM products`); err != nil {
		return 0, apperror.StoreUnavailable("count products", err)
	}
	return count, nil
}

func (r *PGRepository) SetStock(ctx context.Context, id string, stock int) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE products SET stock = $1, updated_at = NOW() WHERE id = $2`, stock, id)
	return expectOneRow(res, err, "set stock", id)
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	return expectOneRow(res, err, "delete product", id)
}

func (r *PGRepository) IncrementStock(ctx context.Context, id string, delta int) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return apperror.StoreUnavailable("begin tx", err)
	}
	defer tx.Rollback()

	if err := decrement(ctx, tx, model.StockChange{ProductID: id, Quantity: -delta}); err != nil {
		return err
	}
	return apperror.StoreUnavailable("commit", tx.Commit())
}

// ApplyPick runs every decrement in one transaction. The guarded UPDATE is
// the final check against concurrent writers; any miss rolls everything back.
func (r *PGRepository) ApplyPick(ctx context.Context, items []model.StockChange) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return apperror.StoreUnavailable("begin tx", err)
	}
	defer tx.Rollback()

	for _, item := range items {
		if err := decrement(ctx, tx, item); err != nil {
			return err
		}
	}
	return apperror.StoreUnavailable("commit", tx.Commit())
}

func decrement(ctx context.Context, tx *sqlx.Tx, item model.StockChange) error {
	query := `
		UPDATE products
		SET stock = stock - $1, updated_at = NOW()
		WHERE id = $2 AND stock - $1 >= 0
	`
	res, err := tx.ExecContext(ctx, query, item.Quantity, item.ProductID)
	if err != nil {
		return apperror.StoreUnavailable("update stock", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return apperror.StoreUnavailable("update stock", err)
	}
	if rows > 0 {
		return nil
	}

	// Out of stock or gone; look again to report which.
	var p model.Product
	err = tx.GetContext(ctx, &p, `SELECT id, name, stock FROM products WHERE id = $1`, item.ProductID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound("product", item.ProductID)
	}
	if err != nil {
		return apperror.StoreUnavailable("get product", err)
	}
	return apperror.StockInsufficient(p.ID, p.Name, p.Stock, item.Quantity)
}

func expectOneRow(res sql.Result, err error, op, id string) error {
	if err != nil {
		return apperror.StoreUnavailable(op, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return apperror.StoreUnavailable(op, err)
	}
	if rows == 0 {
		return apperror.NotFound("product", id)
	}
	return nil
}
