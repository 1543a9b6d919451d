package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BearBump/FreightDesk/internal/broker/messages"
	"github.com/BearBump/FreightDesk/internal/logger"
)

type publisherMock struct {
	mock.Mock
}

func (m *publisherMock) Publish(ctx context.Context, topic string, key, value []byte) error {
	return m.Called(ctx, topic, key, value).Error(0)
}

func TestEmitter_PublishesKeyedByEntity(t *testing.T) {
	pm := &publisherMock{}
	var got messages.DomainEvent
	pm.On("Publish", mock.Anything, "events", []byte("load-1"), mock.Anything).
		Run(func(args mock.Arguments) {
			require.NoError(t, json.Unmarshal(args.Get(3).([]byte), &got))
		}).
		Return(nil).Once()

	ev, err := messages.DomainEvent{Type: messages.LoadStatusChanged, CompanyID: "A", EntityID: "load-1"}.
		WithPayload(messages.LoadStatusChangedPayload{LoadID: "load-1", From: "in_transit", To: "delivered", Cause: "tracking"})
	require.NoError(t, err)

	NewEmitter(pm, "events", logger.Nop()).Emit(context.Background(), ev)
	pm.AssertExpectations(t)

	require.NotEmpty(t, got.ID)
	require.False(t, got.OccurredAt.IsZero())
	var p messages.LoadStatusChangedPayload
	require.NoError(t, got.Decode(&p))
	require.Equal(t, "delivered", p.To)
}

func TestEmitter_PublishFailureIsSwallowed(t *testing.T) {
	pm := &publisherMock{}
	pm.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down")).Twice()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	NewEmitter(pm, "events", nil).Emit(ctx,
		messages.DomainEvent{Type: messages.PaymentCompleted, EntityID: "p-1"},
		messages.DomainEvent{Type: messages.PaymentCompleted, EntityID: "p-2"},
	)
	pm.AssertExpectations(t)
}
