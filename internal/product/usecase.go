package product

import (
	"context"

	"github.com/fekuna/omnipos-fleet-simulator/internal/model"
	"github.com/fekuna/omnipos-fleet-simulator/internal/product/dto"
)

type UseCase interface {
	CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	SetStock(ctx context.Context, id string, stock int) (*model.Product, error)
	AdjustStock(ctx context.Context, id string, delta int) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	// EnsureSampleProducts seeds a few products when the store is empty.
	EnsureSampleProducts(ctx context.Context) error
}
