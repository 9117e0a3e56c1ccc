package repository

import (
	"context"
	"sync"

	"github.com/fekuna/omnipos-fleet-simulator/internal/apperror"
	"github.com/fekuna/omnipos-fleet-simulator/internal/model"
)

type MemoryRepository struct {
	mu     sync.RWMutex
	robots []*model.Robot // roster order
	byID   map[model.RobotID]*model.Robot
	nextID model.RobotID
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:   make(map[model.RobotID]*model.Robot),
		nextID: 1,
	}
}

func (r *MemoryRepository) Add(_ context.Context, init func(bot *model.Robot, index int)) model.Robot {
	r.mu.Lock()
	defer r.mu.Unlock()

	bot := &model.Robot{ID: r.nextID, Status: model.RobotIdle}
	r.nextID++
	if init != nil {
		init(bot, len(r.robots))
	}
	r.robots = append(r.robots, bot)
	r.byID[bot.ID] = bot
	return bot.Clone()
}

func (r *MemoryRepository) FindByID(_ context.Context, id model.RobotID) (*model.Robot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bot, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	out := bot.Clone()
	return &out, nil
}

func (r *MemoryRepository) FindAll(_ context.Context) []model.Robot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Robot, len(r.robots))
	for i, bot := range r.robots {
		out[i] = bot.Clone()
	}
	return out
}

func (r *MemoryRepository) Index(_ context.Context, id model.RobotID) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i, bot := range r.robots {
		if bot.ID == id {
			return i, true
		}
	}
	return 0, false
}

func (r *MemoryRepository) Update(_ context.Context, id model.RobotID, fn func(bot *model.Robot) error) (model.Robot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updateLocked(id, fn)
}

func (r *MemoryRepository) Reserved(_ context.Context, productID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.reservedLocked(productID)
}

func (r *MemoryRepository) ReservedAll(_ context.Context) map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]int)
	for _, bot := range r.robots {
		for _, it := range bot.Items {
			out[it.ProductID] += it.Quantity
		}
	}
	return out
}

func (r *MemoryRepository) Reserve(_ context.Context, id model.RobotID, item model.LineItem, check func(bot *model.Robot, reserved int) error) (model.Robot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reserved := r.reservedLocked(item.ProductID)
	return r.updateLocked(id, func(bot *model.Robot) error {
		if err := check(bot, reserved); err != nil {
			return err
		}
		bot.AddItem(item.ProductID, item.ProductName, item.Quantity)
		return nil
	})
}

func (r *MemoryRepository) updateLocked(id model.RobotID, fn func(bot *model.Robot) error) (model.Robot, error) {
	bot, ok := r.byID[id]
	if !ok {
		return model.Robot{}, apperror.NotFound("robot", id.String())
	}

	// Work on a copy so a failing fn leaves the robot untouched.
	next := bot.Clone()
	if err := fn(&next); err != nil {
		return bot.Clone(), err
	}
	*bot = next
	return next.Clone(), nil
}

func (r *MemoryRepository) reservedLocked(productID string) int {
	total := 0
	for _, bot := range r.robots {
		total += bot.Quantity(productID)
	}
	return total
}
