package queue_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zpqio/zpq/core/queue"
)

// recordingHandler collects the envelopes routed to it.
type recordingHandler struct {
	name string
	mu   sync.Mutex
	ids  []int64
}

func (h *recordingHandler) Name() string { return h.name }

func (h *recordingHandler) Handle(ctx context.Context, e *queue.Envelope) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ids = append(h.ids, e.ID)
	return nil
}

func (h *recordingHandler) IDs() []int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]int64, len(h.ids))
	copy(out, h.ids)
	return out
}

func TestNewConsumer_NilStore(t *testing.T) {
	t.Parallel()

	_, err := queue.NewConsumer(nil)
	assert.ErrorIs(t, err, queue.ErrStoreNil)
}

func TestConsumer_StartWithoutHandlers(t *testing.T) {
	t.Parallel()

	consumer, err := queue.NewConsumer(queue.NewMemoryStore())
	require.NoError(t, err)

	assert.ErrorIs(t, consumer.Start(context.Background()), queue.ErrNoHandlers)
}

func TestConsumer_DeliversInPriorityOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := queue.NewMemoryStore()

	ids := []int64{100, 101, 102, 103}
	priorities := []queue.Priority{queue.PriorityLow, queue.PriorityHigh, queue.PriorityMedium, queue.PriorityHigh}
	for i, p := range priorities {
		require.NoError(t, store.Insert(ctx, newEnvelope(ids[i], "email", p)))
	}

	handler := &recordingHandler{name: "email"}

	consumer, err := queue.NewConsumer(store, queue.WithPollInterval(5*time.Millisecond))
	require.NoError(t, err)
	consumer.RegisterHandler(handler)

	go func() { _ = consumer.Start(ctx) }()

	require.Eventually(t, func() bool {
		return consumer.Stats().Processed == 4
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, consumer.Stop())

	assert.Equal(t, []int64{101, 103, 102, 100}, handler.IDs())

	stats := consumer.Stats()
	assert.Zero(t, stats.Failed)
	assert.Zero(t, stats.DecodeErrors)
}

func TestConsumer_RoutesByTypeWithFallback(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := queue.NewMemoryStore()

	require.NoError(t, store.Insert(ctx, newEnvelope(1, "email", queue.PriorityHigh)))
	require.NoError(t, store.Insert(ctx, newEnvelope(2, "report", queue.PriorityHigh)))
	require.NoError(t, store.Insert(ctx, newEnvelope(3, "backup", queue.PriorityHigh)))

	emailHandler := &recordingHandler{name: "email"}
	fallback := &recordingHandler{name: "default"}

	consumer, err := queue.NewConsumer(store, queue.WithPollInterval(5*time.Millisecond))
	require.NoError(t, err)
	consumer.RegisterHandlers(emailHandler)
	consumer.RegisterFallback(fallback)

	go func() { _ = consumer.Start(ctx) }()

	require.Eventually(t, func() bool {
		return consumer.Stats().Processed == 3
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, consumer.Stop())

	assert.Equal(t, []int64{1}, emailHandler.IDs())
	assert.ElementsMatch(t, []int64{2, 3}, fallback.IDs())
}

func TestConsumer_SkipsMalformedEnvelope(t *testing.T) {
	t.Parallel()

	e := newEnvelope(9, "email", queue.PriorityHigh)

	store := new(mockStore)
	store.On("TakeLowest", mock.Anything).Return(nil, queue.ErrDecode).Once()
	store.On("TakeLowest", mock.Anything).Return(e, nil).Once()
	store.On("TakeLowest", mock.Anything).Return(nil, nil)

	handler := &recordingHandler{name: "email"}

	consumer, err := queue.NewConsumer(store, queue.WithPollInterval(5*time.Millisecond))
	require.NoError(t, err)
	consumer.RegisterHandler(handler)

	go func() { _ = consumer.Start(context.Background()) }()

	require.Eventually(t, func() bool {
		stats := consumer.Stats()
		return stats.DecodeErrors == 1 && stats.Processed == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, consumer.Stop())

	assert.Equal(t, []int64{9}, handler.IDs())
	store.AssertExpectations(t)
}

func TestConsumer_RetriesUnavailableStore(t *testing.T) {
	t.Parallel()

	e := newEnvelope(4, "email", queue.PriorityMedium)

	store := new(mockStore)
	store.On("TakeLowest", mock.Anything).Return(nil, queue.ErrStoreUnavailable).Twice()
	store.On("TakeLowest", mock.Anything).Return(e, nil).Once()
	store.On("TakeLowest", mock.Anything).Return(nil, nil)

	handler := &recordingHandler{name: "email"}

	consumer, err := queue.NewConsumer(store,
		queue.WithPollInterval(5*time.Millisecond),
		queue.WithConsumerBackoff(time.Millisecond, 10*time.Millisecond),
	)
	require.NoError(t, err)
	consumer.RegisterHandler(handler)

	go func() { _ = consumer.Start(context.Background()) }()

	require.Eventually(t, func() bool {
		return consumer.Stats().Processed == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, consumer.Stop())

	assert.Equal(t, []int64{4}, handler.IDs())
	store.AssertExpectations(t)
}

func TestConsumer_RecoversFromHandlerPanic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := queue.NewMemoryStore()

	require.NoError(t, store.Insert(ctx, newEnvelope(1, "email", queue.PriorityHigh)))
	require.NoError(t, store.Insert(ctx, newEnvelope(2, "email", queue.PriorityHigh)))

	var handled []int64
	var mu sync.Mutex

	consumer, err := queue.NewConsumer(store, queue.WithPollInterval(5*time.Millisecond))
	require.NoError(t, err)
	consumer.RegisterHandler(queue.NewHandler("email", func(ctx context.Context, e *queue.Envelope) error {
		if e.ID == 1 {
			panic("boom")
		}
		mu.Lock()
		handled = append(handled, e.ID)
		mu.Unlock()
		return nil
	}))

	go func() { _ = consumer.Start(ctx) }()

	require.Eventually(t, func() bool {
		return consumer.Stats().Processed == 2
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, consumer.Stop())

	stats := consumer.Stats()
	assert.EqualValues(t, 1, stats.Failed)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int64{2}, handled)
}

func TestConsumer_HandlerFailureIsNotRedelivered(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := queue.NewMemoryStore()

	require.NoError(t, store.Insert(ctx, newEnvelope(1, "email", queue.PriorityHigh)))

	var attempts int
	var mu sync.Mutex

	consumer, err := queue.NewConsumer(store, queue.WithPollInterval(5*time.Millisecond))
	require.NoError(t, err)
	consumer.RegisterHandler(queue.NewHandler("email", func(ctx context.Context, e *queue.Envelope) error {
		mu.Lock()
		attempts++
		mu.Unlock()
		return errors.New("processing failed")
	}))

	go func() { _ = consumer.Start(ctx) }()

	require.Eventually(t, func() bool {
		return consumer.Stats().Processed == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, consumer.Stop())

	// The take is the only acknowledgement; the failed envelope is gone.
	size, err := store.Size(ctx)
	require.NoError(t, err)
	assert.Zero(t, size)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, attempts)
	assert.EqualValues(t, 1, consumer.Stats().Failed)
}

func TestConsumer_Healthcheck(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := queue.NewMemoryStore()

	consumer, err := queue.NewConsumer(store, queue.WithPollInterval(5*time.Millisecond))
	require.NoError(t, err)
	consumer.RegisterHandler(&recordingHandler{name: "email"})

	assert.ErrorIs(t, consumer.Healthcheck(ctx), queue.ErrConsumerNotRunning)

	go func() { _ = consumer.Start(ctx) }()

	require.Eventually(t, func() bool {
		return consumer.Stats().IsRunning
	}, time.Second, 5*time.Millisecond)

	assert.NoError(t, consumer.Healthcheck(ctx))

	require.NoError(t, consumer.Stop())
	assert.ErrorIs(t, consumer.Healthcheck(ctx), queue.ErrConsumerNotRunning)
}
