package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/fekuna/omnipos-fleet-simulator/internal/model"
	"github.com/fekuna/omnipos-fleet-simulator/pkg/logger"
	"go.uber.org/zap"
)

var ErrQueueFull = errors.New("event queue full")

type Producer interface {
	Publish(ctx context.Context, key, value []byte) error
}

// KafkaPublisher is a bus sink that forwards events to a Kafka topic from
// its own goroutine so the tick loop never waits on the broker.
type KafkaPublisher struct {
	producer Producer
	queue    chan model.Event
	logger   logger.ZapLogger
}

func NewKafkaPublisher(producer Producer, buffer int, log logger.ZapLogger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		queue:    make(chan model.Event, buffer),
		logger:   log,
	}
}

func (p *KafkaPublisher) Publish(_ context.Context, e model.Event) error {
	select {
	case p.queue <- e:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *KafkaPublisher) Start(ctx context.Context) {
	p.logger.Info("Starting Kafka event publisher")
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Stopping Kafka event publisher")
			return
		case e := <-p.queue:
			p.send(ctx, e)
		}
	}
}

func (p *KafkaPublisher) send(ctx context.Context, e model.Event) {
	value, err := json.Marshal(e)
	if err != nil {
		p.logger.Error("Failed to marshal event", zap.Error(err))
		return
	}
	key := []byte(strconv.FormatInt(int64(e.RobotID), 10))
	if err := p.producer.Publish(ctx, key, value); err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Error("Failed to publish event",
			zap.String("type", string(e.Type)),
			zap.Int64("robot_id", int64(e.RobotID)),
			zap.Error(err),
		)
	}
}
