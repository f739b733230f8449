package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"sjsage522/promolink/internal/pipeline"
	"sjsage522/promolink/services/publisher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockPublisher implements the publisher.Publisher interface for testing
type MockPublisher struct {
	mu         sync.Mutex
	messages   [][]byte
	publishErr error
	trims      int
}

// Ensure MockPublisher implements publisher.Publisher
var _ publisher.Publisher = (*MockPublisher)(nil)

func (m *MockPublisher) Publish(ctx context.Context, message []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.publishErr != nil {
		return "", m.publishErr
	}
	m.messages = append(m.messages, append([]byte(nil), message...))
	return "msg-id", nil
}

func (m *MockPublisher) TrimStreams(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trims++
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}

func (m *MockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

// MockObserver records publish measurements
type MockObserver struct {
	mu       sync.Mutex
	ok       int
	failures []error
	depth    int
}

func (m *MockObserver) ObservePublish(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.failures = append(m.failures, err)
		return
	}
	m.ok++
}

func (m *MockObserver) SetQueueDepth(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.depth = n
}

func envelope(share string) pipeline.Envelope {
	price := 99.9
	return pipeline.Envelope{
		Store:     "Amazon",
		Title:     "Kindle",
		Price:     &price,
		ShareURL:  share,
		FinalURL:  "https://www.amazon.com.br/dp/B0",
		ParseHint: "amazon_html_v3",
	}
}

func TestWorkerPublishesQueuedEnvelopes(t *testing.T) {
	pub := &MockPublisher{}
	obs := &MockObserver{}
	w := NewWorker(pub, 10, 0, obs)

	require.True(t, w.Enqueue(envelope("https://amzn.to/1")))
	require.True(t, w.Enqueue(envelope("https://amzn.to/2")))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return pub.count() == 2 }, time.Second, 10*time.Millisecond)
	cancel()
	<-done

	var got pipeline.Envelope
	require.NoError(t, json.Unmarshal(pub.messages[0], &got))
	assert.Equal(t, "https://amzn.to/1", got.ShareURL)
	assert.Equal(t, 99.9, *got.Price)
	assert.Equal(t, 2, obs.ok)
	assert.Equal(t, 0, obs.depth)
}

func TestWorkerSkipsFailedEnvelopes(t *testing.T) {
	w := NewWorker(&MockPublisher{}, 1, 0, nil)
	env := pipeline.ErrorEnvelope("https://x", errors.New("boom"))
	assert.False(t, w.Enqueue(env))
	assert.Equal(t, 0, len(w.queue))
}

func TestWorkerDropsWhenFull(t *testing.T) {
	obs := &MockObserver{}
	w := NewWorker(&MockPublisher{}, 1, 0, obs)

	assert.True(t, w.Enqueue(envelope("https://amzn.to/1")))
	assert.False(t, w.Enqueue(envelope("https://amzn.to/2")))
	require.Len(t, obs.failures, 1)
	assert.EqualError(t, obs.failures[0], "publish queue full")
}

func TestWorkerDrainsOnShutdown(t *testing.T) {
	pub := &MockPublisher{}
	w := NewWorker(pub, 5, 0, nil)
	for _, u := range []string{"a", "b", "c"} {
		require.True(t, w.Enqueue(envelope("https://amzn.to/"+u)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Run(ctx)

	assert.Equal(t, 3, pub.count())
	assert.False(t, w.Enqueue(envelope("https://amzn.to/late")))
}

func TestWorkerRecordsPublishErrors(t *testing.T) {
	pub := &MockPublisher{publishErr: errors.New("redis down")}
	obs := &MockObserver{}
	w := NewWorker(pub, 2, 0, obs)
	require.True(t, w.Enqueue(envelope("https://amzn.to/1")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Run(ctx)

	require.Len(t, obs.failures, 1)
	assert.EqualError(t, obs.failures[0], "redis down")
	assert.Equal(t, 0, obs.ok)
}

func TestWorkerTrimsStreams(t *testing.T) {
	pub := &MockPublisher{}
	w := NewWorker(pub, 1, 20*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return pub.trims >= 2
	}, time.Second, 10*time.Millisecond)
	cancel()
	<-done
}
