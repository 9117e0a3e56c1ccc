package usecase

import (
	"context"

	"github.com/fekuna/omnipos-fleet-simulator/internal/apperror"
	"github.com/fekuna/omnipos-fleet-simulator/internal/inventory"
	"github.com/fekuna/omnipos-fleet-simulator/internal/inventory/dto"
	"github.com/fekuna/omnipos-fleet-simulator/internal/model"
	"github.com/fekuna/omnipos-fleet-simulator/internal/product"
	"github.com/fekuna/omnipos-fleet-simulator/pkg/logger"
	"go.uber.org/zap"
)

const pickLockKey = "lock:inventory:pick"

type ledgerUseCase struct {
	products     product.Repository
	reservations inventory.Reservations
	locker       inventory.Locker
	logger       logger.ZapLogger
}

func NewLedgerUseCase(products product.Repository, reservations inventory.Reservations, locker inventory.Locker, log logger.ZapLogger) inventory.UseCase {
	return &ledgerUseCase{
		products:     products,
		reservations: reservations,
		locker:       locker,
		logger:       log,
	}
}

func (uc *ledgerUseCase) AvailableStock(ctx context.Context, productID string) (int, error) {
	if err := product.ValidateID(productID); err != nil {
		return 0, err
	}
	p, err := uc.products.FindByID(ctx, productID)
	if err != nil {
		return 0, err
	}
	if p == nil {
		return 0, apperror.NotFound("product", productID)
	}
	return p.Stock - uc.reservations.Reserved(ctx, productID), nil
}

func (uc *ledgerUseCase) Reserved(ctx context.Context, productID string) int {
	return uc.reservations.Reserved(ctx, productID)
}

func (uc *ledgerUseCase) StockLevels(ctx context.Context) ([]dto.StockLevel, error) {
	products, err := uc.products.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	reserved := uc.reservations.ReservedAll(ctx)

	levels := make([]dto.StockLevel, len(products))
	for i, p := range products {
		levels[i] = dto.StockLevel{
			ProductID: p.ID,
			Name:      p.Name,
			Stock:     p.Stock,
			Reserved:  reserved[p.ID],
			Available: p.Stock - reserved[p.ID],
		}
	}
	return levels, nil
}

func (uc *ledgerUseCase) Reserve(ctx context.Context, robotID model.RobotID, productID string, quantity int, check func(r *model.Robot) error) (model.Robot, error) {
	if quantity <= 0 {
		return model.Robot{}, apperror.ErrInvalidQuantity
	}
	if err := product.ValidateID(productID); err != nil {
		return model.Robot{}, err
	}
	p, err := uc.products.FindByID(ctx, productID)
	if err != nil {
		return model.Robot{}, err
	}
	if p == nil {
		return model.Robot{}, apperror.NotFound("product", productID)
	}

	// Picks change stock under the same lock.
	unlock, err := uc.locker.Lock(ctx, pickLockKey)
	if err != nil {
		return model.Robot{}, err
	}
	defer unlock()

	item := model.LineItem{ProductID: p.ID, ProductName: p.Name, Quantity: quantity}
	return uc.reservations.Reserve(ctx, robotID, item, func(r *model.Robot, reserved int) error {
		if check != nil {
			if err := check(r); err != nil {
				return err
			}
		}
		// Stock is read again next to the reservation total so both come
		// from the same moment. reserved includes this robot's own line, so
		// adding to an existing line is gated on the accumulated amount.
		cur, err := uc.products.FindByID(ctx, productID)
		if err != nil {
			return err
		}
		if cur == nil {
			return apperror.NotFound("product", productID)
		}
		available := cur.Stock - reserved
		if quantity > available {
			return apperror.StockInsufficient(cur.ID, cur.Name, available, quantity)
		}
		return nil
	})
}

func (uc *ledgerUseCase) CommitPick(ctx context.Context, items []model.LineItem) error {
	if len(items) == 0 {
		return nil
	}

	unlock, err := uc.locker.Lock(ctx, pickLockKey)
	if err != nil {
		return err
	}
	defer unlock()

	// Verify everything first; the store applies the batch atomically and
	// re-checks, since reservations are advisory.
	changes := make([]model.StockChange, 0, len(items))
	need := make(map[string]int, len(items))
	for _, item := range items {
		p, err := uc.products.FindByID(ctx, item.ProductID)
		if err != nil {
			return err
		}
		if p == nil {
			return apperror.NotFound("product", item.ProductID)
		}
		need[p.ID] += item.Quantity
		if p.Stock < need[p.ID] {
			return apperror.StockInsufficient(p.ID, p.Name, p.Stock, need[p.ID])
		}
		changes = append(changes, model.StockChange{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    item.Quantity,
		})
	}

	if err := uc.products.ApplyPick(ctx, changes); err != nil {
		return err
	}

	uc.logger.Debug("Committed pick", zap.Int("lines", len(changes)))
	return nil
}
