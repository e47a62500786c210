package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/bankledger/internal/config"
	"github.com/ledgerline/bankledger/internal/logging"
	"github.com/ledgerline/bankledger/internal/models"
)

type fakeEventsRepository struct {
	pending *models.TransactionEvent
	states  map[string]string
}

func (f *fakeEventsRepository) ReserveTransactionProcessedEvent(ctx context.Context) (*models.TransactionEvent, error) {
	e := f.pending
	f.pending = nil

	return e, nil
}

func (f *fakeEventsRepository) SetState(ctx context.Context, uuid string, newState string) error {
	if f.states == nil {
		f.states = map[string]string{}
	}
	f.states[uuid] = newState

	return nil
}

type fakePublisher struct {
	messages []kafka.Message
	err      error
}

func (f *fakePublisher) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)

	return nil
}

func newTestDaemon(t *testing.T, events EventsRepository, publisher Publisher) *Daemon {
	t.Helper()

	lg, err := logging.NewZapLogger(&config.Config{LogLevel: 2})
	require.NoError(t, err)

	return &Daemon{
		lg:        lg,
		events:    events,
		publisher: publisher,
	}
}

func pendingEvent() *models.TransactionEvent {
	return &models.TransactionEvent{
		UUID:  "5b2c6f54-8a51-4f9e-9a3d-2f1f3f60d6a1",
		State: models.TransactionEventNewState,
		Name:  "transaction_processed",
		Meta: &models.TransactionEventMeta{
			Reference:      "A1B2C3D4",
			SenderNumber:   1001,
			ReceiverNumber: 2002,
			Amount:         3000,
			ProcessedAt:    time.Now().UTC(),
		},
	}
}

func TestProcessEventPublishesAndFinishes(t *testing.T) {
	events := &fakeEventsRepository{pending: pendingEvent()}
	publisher := &fakePublisher{}
	dmn := newTestDaemon(t, events, publisher)

	require.NoError(t, dmn.processEvent(context.Background()))

	require.Len(t, publisher.messages, 1)
	assert.Equal(t, []byte("A1B2C3D4"), publisher.messages[0].Key)
	assert.Contains(t, string(publisher.messages[0].Value), `"reference":"A1B2C3D4"`)
	assert.Equal(t, models.TransactionEventFinishedState, events.states["5b2c6f54-8a51-4f9e-9a3d-2f1f3f60d6a1"])
}

func TestProcessEventNothingPending(t *testing.T) {
	events := &fakeEventsRepository{}
	publisher := &fakePublisher{}
	dmn := newTestDaemon(t, events, publisher)

	require.NoError(t, dmn.processEvent(context.Background()))
	assert.Empty(t, publisher.messages)
}

func TestProcessEventMarksFailedOnPublishError(t *testing.T) {
	events := &fakeEventsRepository{pending: pendingEvent()}
	publisher := &fakePublisher{err: errors.New("broker unreachable")}
	dmn := newTestDaemon(t, events, publisher)

	err := dmn.processEvent(context.Background())
	require.Error(t, err)
	assert.Equal(t, models.TransactionEventFailedState, events.states["5b2c6f54-8a51-4f9e-9a3d-2f1f3f60d6a1"])
}
