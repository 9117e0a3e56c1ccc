package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/fekuna/omnipos-fleet-simulator/internal/model"
)

type MemoryRepository struct {
	mu      sync.RWMutex
	records []model.TripRecord
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Insert(_ context.Context, record *model.TripRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := *record
	rec.Items = append([]model.TripItem(nil), record.Items...)
	r.records = append(r.records, rec)
	return nil
}

func (r *MemoryRepository) FindByRobot(_ context.Context, robotID model.RobotID) ([]model.TripRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.TripRecord
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].RobotID != robotID {
			continue
		}
		rec := r.records[i]
		rec.Items = append([]model.TripItem(nil), rec.Items...)
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}
