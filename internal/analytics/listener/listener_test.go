package listener

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fekuna/omnipos-restaurant-service/internal/analytics"
	"github.com/fekuna/omnipos-restaurant-service/internal/analytics/dto"
	"github.com/fekuna/omnipos-restaurant-service/internal/apperror"
	"github.com/fekuna/omnipos-restaurant-service/internal/model"
	orderDto "github.com/fekuna/omnipos-restaurant-service/internal/order/dto"
	"github.com/fekuna/omnipos-restaurant-service/pkg/broker"
	"github.com/fekuna/omnipos-restaurant-service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type queueReader struct {
	msgs chan kafka.Message
}

func (r *queueReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

// brokenReader fails every read without honouring ctx, like a broker that is down.
type brokenReader struct {
	reads chan struct{}
}

func (r *brokenReader) ReadMessage(context.Context) (kafka.Message, error) {
	select {
	case r.reads <- struct{}{}:
	default:
	}
	return kafka.Message{}, errors.New("broker unavailable")
}

type mockUseCase struct {
	analytics.UseCase
	mock.Mock
	calls atomic.Int32
}

func (m *mockUseCase) TrainDemandModel(ctx context.Context) (*dto.TrainingReport, error) {
	m.calls.Add(1)
	args := m.Called(ctx)
	report, _ := args.Get(0).(*dto.TrainingReport)
	return report, args.Error(1)
}

func event(t *testing.T, eventType string, payload interface{}) []byte {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	value, err := json.Marshal(broker.Event{EventID: "e", EventType: eventType, Payload: body, Timestamp: time.Now()})
	require.NoError(t, err)
	return value
}

func statusChange(t *testing.T, id int64, from, to model.OrderStatus) []byte {
	return event(t, orderDto.EventOrderStatusChanged, orderDto.StatusChangedPayload{OrderID: id, From: from, To: to})
}

func TestProcessMessage_RetrainsEveryNCompletions(t *testing.T) {
	uc := &mockUseCase{}
	uc.On("TrainDemandModel", mock.Anything).Return(&dto.TrainingReport{Orders: 10}, nil)
	l := NewCompletionListener(nil, uc, 3, logger.NewNop())
	ctx := context.Background()

	l.processMessage(ctx, event(t, orderDto.EventOrderCreated, orderDto.OrderCreatedPayload{OrderID: 1}))
	l.processMessage(ctx, statusChange(t, 1, model.StatusPending, model.StatusReady))
	l.processMessage(ctx, []byte("not json"))
	uc.AssertNotCalled(t, "TrainDemandModel", mock.Anything)

	for i := int64(1); i <= 7; i++ {
		l.processMessage(ctx, statusChange(t, i, model.StatusReady, model.StatusComplete))
	}
	uc.AssertNumberOfCalls(t, "TrainDemandModel", 2)
}

func TestProcessMessage_InsufficientDataIsTolerated(t *testing.T) {
	uc := &mockUseCase{}
	uc.On("TrainDemandModel", mock.Anything).Return(nil, apperror.New(apperror.KindInsufficientData, "need more"))
	l := NewCompletionListener(nil, uc, 1, logger.NewNop())

	l.processMessage(context.Background(), statusChange(t, 1, model.StatusPending, model.StatusComplete))
	l.processMessage(context.Background(), statusChange(t, 2, model.StatusPending, model.StatusComplete))
	uc.AssertNumberOfCalls(t, "TrainDemandModel", 2)
}

func TestStart_StopsOnCancel(t *testing.T) {
	reader := &queueReader{msgs: make(chan kafka.Message, 2)}
	uc := &mockUseCase{}
	uc.On("TrainDemandModel", mock.Anything).Return(&dto.TrainingReport{}, nil)
	l := NewCompletionListener(reader, uc, 2, logger.NewNop())

	reader.msgs <- kafka.Message{Value: statusChange(t, 1, model.StatusPending, model.StatusComplete)}
	reader.msgs <- kafka.Message{Value: statusChange(t, 2, model.StatusReady, model.StatusComplete)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return uc.calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop")
	}
}

func TestStart_CancelInterruptsRetryBackoff(t *testing.T) {
	reader := &brokenReader{reads: make(chan struct{}, 1)}
	l := NewCompletionListener(reader, &mockUseCase{}, 1, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Start(ctx)
		close(done)
	}()

	select {
	case <-reader.reads:
	case <-time.After(2 * time.Second):
		t.Fatal("listener never read")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(readRetryDelay / 2):
		t.Fatal("listener slept through cancellation")
	}
}
