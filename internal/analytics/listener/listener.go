package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-restaurant-service/internal/analytics"
	"github.com/fekuna/omnipos-restaurant-service/internal/apperror"
	"github.com/fekuna/omnipos-restaurant-service/internal/model"
	orderDto "github.com/fekuna/omnipos-restaurant-service/internal/order/dto"
	"github.com/fekuna/omnipos-restaurant-service/pkg/broker"
	"github.com/fekuna/omnipos-restaurant-service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// CompletionListener retrains the demand model after every N completed orders seen on
// the orders topic.
type CompletionListener struct {
	consumer     MessageReader
	uc           analytics.UseCase
	retrainEvery int
	completed    int
	logger       logger.ZapLogger
}

func NewCompletionListener(consumer MessageReader, uc analytics.UseCase, retrainEvery int, log logger.ZapLogger) *CompletionListener {
	if retrainEvery <= 0 {
		retrainEvery = 10
	}
	return &CompletionListener{
		consumer:     consumer,
		uc:           uc,
		retrainEvery: retrainEvery,
		logger:       log.Named("analytics-listener"),
	}
}

const readRetryDelay = time.Second

func (l *CompletionListener) Start(ctx context.Context) {
	l.logger.Info("Starting analytics Kafka listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping analytics Kafka listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				select {
				case <-ctx.Done():
					l.logger.Info("Stopping analytics Kafka listener")
					return
				case <-time.After(readRetryDelay):
				}
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

func (l *CompletionListener) processMessage(ctx context.Context, value []byte) {
	var event broker.Event
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}
	if event.EventType != orderDto.EventOrderStatusChanged {
		return
	}

	var payload orderDto.StatusChangedPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		l.logger.Error("Failed to unmarshal status change", zap.String("event_id", event.EventID), zap.Error(err))
		return
	}
	if payload.To != model.StatusComplete {
		return
	}

	l.completed++
	if l.completed%l.retrainEvery != 0 {
		return
	}

	l.logger.Info("Retraining demand model", zap.Int("completions_seen", l.completed))
	if _, err := l.uc.TrainDemandModel(ctx); err != nil {
		if apperror.Is(err, apperror.KindInsufficientData) {
			l.logger.Debug("Not enough completed orders to retrain yet", zap.Error(err))
			return
		}
		l.logger.Error("Failed to retrain demand model", zap.Error(err))
	}
}
