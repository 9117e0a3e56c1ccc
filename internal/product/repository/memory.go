package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/fekuna/omnipos-fleet-simulator/internal/apperror"
	"github.com/fekuna/omnipos-fleet-simulator/internal/model"
)

// MemoryRepository keeps products in a map. Every method is atomic.
type MemoryRepository struct {
	mu       sync.RWMutex
	products map[string]model.Product
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{products: make(map[string]model.Product)}
}

func (r *MemoryRepository) Create(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = *p
	return nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (*model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *MemoryRepository) FindAll(_ context.Context) ([]model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *MemoryRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.products), nil
}

func (r *MemoryRepository) SetStock(_ context.Context, id string, stock int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return apperror.NotFound("product", id)
	}
	p.Stock = stock
	r.products[id] = p
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return apperror.NotFound("product", id)
	}
	delete(r.products, id)
	return nil
}

func (r *MemoryRepository) IncrementStock(ctx context.Context, id string, delta int) error {
	return r.ApplyPick(ctx, []model.StockChange{{ProductID: id, Quantity: -delta}})
}

func (r *MemoryRepository) ApplyPick(_ context.Context, items []model.StockChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Items may repeat a product, so check against running totals.
	pending := make(map[string]int, len(items))
	for _, item := range items {
		p, ok := r.products[item.ProductID]
		if !ok {
			return apperror.NotFound("product", item.ProductID)
		}
		have := p.Stock - pending[item.ProductID]
		if have < item.Quantity {
			return apperror.StockInsufficient(p.ID, p.Name, have, item.Quantity)
		}
		pending[item.ProductID] += item.Quantity
	}

	for id, qty := range pending {
		p := r.products[id]
		p.Stock -= qty
		r.products[id] = p
	}
	return nil
}
