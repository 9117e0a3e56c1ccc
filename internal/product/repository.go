package product

import (
	"context"

	"github.com/fekuna/omnipos-fleet-simulator/internal/model"
)

// Repository is the product store. FindByID returns (nil, nil) for a missing
// product; mutations of a missing product fail with apperror.ErrNotFound.
type Repository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindAll(ctx context.Context) ([]model.Product, error)
	Count(ctx context.Context) (int, error)
	SetStock(ctx context.Context, id string, stock int) error
	Delete(ctx context.Context, id string) error

	// IncrementStock adds delta (which may be negative) and fails with
	// apperror.ErrStockInsufficient if the result would go below zero.
	IncrementStock(ctx context.Context, id string, delta int) error

	// ApplyPick decrements every item or none of them.
	ApplyPick(ctx context.Context, items []model.StockChange) error
}
