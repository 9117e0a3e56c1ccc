package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-fleet-simulator/internal/apperror"
	"github.com/fekuna/omnipos-fleet-simulator/internal/event"
	"github.com/fekuna/omnipos-fleet-simulator/internal/model"
	"github.com/fekuna/omnipos-fleet-simulator/internal/product"
	"github.com/fekuna/omnipos-fleet-simulator/internal/product/dto"
	"github.com/fekuna/omnipos-fleet-simulator/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var sampleProducts = []dto.CreateProductInput{
	{Name: "Product A", Stock: 100},
	{Name: "Product B", Stock: 50},
	{Name: "Product C", Stock: 75},
}

type productUseCase struct {
	repo   product.Repository
	events event.Publisher
	logger logger.ZapLogger
}

func NewProductUseCase(repo product.Repository, events event.Publisher, log logger.ZapLogger) product.UseCase {
	return &productUseCase{
		repo:   repo,
		events: events,
		logger: log,
	}
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: product name is required", apperror.ErrInvalidArgument)
	}
	if input.Stock < 0 {
		return nil, apperror.ErrInvalidQuantity
	}

	now := time.Now()
	p := &model.Product{
		BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Name:      name,
		Stock:     input.Stock,
	}
	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	uc.changed(ctx, p.ID)
	return p, nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	if err := product.ValidateID(id); err != nil {
		return nil, err
	}
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperror.NotFound("product", id)
	}
	return p, nil
}

func (uc *productUseCase) ListProducts(ctx context.Context) ([]model.Product, error) {
	return uc.repo.FindAll(ctx)
}

func (uc *productUseCase) SetStock(ctx context.Context, id string, stock int) (*model.Product, error) {
	if err := product.ValidateID(id); err != nil {
		return nil, err
	}
	if stock < 0 {
		return nil, apperror.ErrInvalidQuantity
	}
	if err := uc.repo.SetStock(ctx, id, stock); err != nil {
		return nil, err
	}

	uc.changed(ctx, id)
	return uc.GetProduct(ctx, id)
}

func (uc *productUseCase) AdjustStock(ctx context.Context, id string, delta int) (*model.Product, error) {
	if err := product.ValidateID(id); err != nil {
		return nil, err
	}
	if err := uc.repo.IncrementStock(ctx, id, delta); err != nil {
		return nil, err
	}

	uc.changed(ctx, id)
	return uc.GetProduct(ctx, id)
}

func (uc *productUseCase) DeleteProduct(ctx context.Context, id string) error {
	if err := product.ValidateID(id); err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}

	uc.changed(ctx, id)
	return nil
}

func (uc *productUseCase) EnsureSampleProducts(ctx context.Context) error {
	count, err := uc.repo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for i := range sampleProducts {
		if _, err := uc.CreateProduct(ctx, &sampleProducts[i]); err != nil {
			return err
		}
	}
	uc.logger.Info("Seeded sample products", zap.Int("count", len(sampleProducts)))
	return nil
}

func (uc *productUseCase) changed(ctx context.Context, productID string) {
	uc.events.Publish(ctx, model.Event{Type: model.EventProductsChanged, ProductID: productID})
}
