package repository

import (
	"context"

	"github.com/fekuna/omnipos-fleet-simulator/internal/model"
	"github.com/fekuna/omnipos-fleet-simulator/internal/trip"
	"github.com/fekuna/omnipos-fleet-simulator/pkg/logger"
	"go.uber.org/zap"
)

const (
	TripIndex = "trips"

	tripMapping = `{
		"mappings": {
			"properties": {
				"id":                  {"type": "keyword"},
				"robot_id":            {"type": "long"},
				"timestamp":           {"type": "date"},
				"from_point":          {"type": "keyword"},
				"pickup_point":        {"type": "keyword"},
				"dropoff_point":       {"type": "keyword"},
				"finished_at_station": {"type": "boolean"},
				"items": {
					"properties": {
						"product_id":   {"type": "keyword"},
						"product_name": {"type": "text"},
						"quantity":     {"type": "integer"}
					}
				}
			}
		}
	}`
)

type Indexer interface {
	CreateIndex(ctx context.Context, index, mapping string) error
	Index(ctx context.Context, index, id string, doc interface{}) error
}

// ElasticRepository mirrors the trip log into a search index for reporting
// tools. The wrapped repository stays the source of truth: indexing failures
// are logged and every read goes to it.
type ElasticRepository struct {
	next   trip.Repository
	es     Indexer
	logger logger.ZapLogger
}

func NewElasticRepository(next trip.Repository, es Indexer, log logger.ZapLogger) *ElasticRepository {
	return &ElasticRepository{next: next, es: es, logger: log}
}

func (r *ElasticRepository) EnsureIndex(ctx context.Context) error {
	return r.es.CreateIndex(ctx, TripIndex, tripMapping)
}

func (r *ElasticRepository) Insert(ctx context.Context, record *model.TripRecord) error {
	if err := r.next.Insert(ctx, record); err != nil {
		return err
	}
	if err := r.es.Index(ctx, TripIndex, record.ID, record); err != nil {
		r.logger.Warn("Failed to index trip", zap.String("trip_id", record.ID), zap.Error(err))
	}
	return nil
}

func (r *ElasticRepository) FindByRobot(ctx context.Context, robotID model.RobotID) ([]model.TripRecord, error) {
	return r.next.FindByRobot(ctx, robotID)
}
