package worker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"sjsage522/promolink/internal/pipeline"
	"sjsage522/promolink/logger"
	"sjsage522/promolink/services/publisher"
)

// drainTimeout bounds publishing of queued envelopes after shutdown starts
const drainTimeout = 5 * time.Second

// Observer receives publish measurements
type Observer interface {
	ObservePublish(err error)
	SetQueueDepth(n int)
}

// Worker publishes parsed envelopes in the background so HTTP responses
// never wait on the broker
type Worker struct {
	publisher    publisher.Publisher
	queue        chan pipeline.Envelope
	trimInterval time.Duration
	observer     Observer
	log          *logger.Logger

	mu     sync.RWMutex
	closed bool
}

// NewWorker creates a worker with a queue of the given size.
// trimInterval <= 0 disables periodic stream trimming.
func NewWorker(pub publisher.Publisher, queueSize int, trimInterval time.Duration, observer Observer) *Worker {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Worker{
		publisher:    pub,
		queue:        make(chan pipeline.Envelope, queueSize),
		trimInterval: trimInterval,
		observer:     observer,
		log:          logger.ForWorker(),
	}
}

// Enqueue schedules env for publishing. Failed envelopes are ignored, and
// when the queue is full the envelope is dropped. It reports whether env was queued.
func (w *Worker) Enqueue(env pipeline.Envelope) bool {
	if env.Failed() {
		return false
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return false
	}

	select {
	case w.queue <- env:
		w.setDepth()
		return true
	default:
		w.log.Warn().
			Str("share_url", env.ShareURL).
			Int("capacity", cap(w.queue)).
			Msg("publish queue full, dropping envelope")
		if w.observer != nil {
			w.observer.ObservePublish(errQueueFull)
		}
		return false
	}
}

// Run publishes queued envelopes until ctx is cancelled, then drains what is left
func (w *Worker) Run(ctx context.Context) {
	var tick <-chan time.Time
	if w.trimInterval > 0 {
		ticker := time.NewTicker(w.trimInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	w.log.Info().Int("capacity", cap(w.queue)).Msg("publish worker started")

	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case env := <-w.queue:
			w.setDepth()
			w.publish(ctx, env)
		case <-tick:
			if err := w.publisher.TrimStreams(ctx); err != nil {
				w.log.Error().Err(err).Msg("failed to trim streams")
			}
		}
	}
}

// drain stops accepting envelopes and publishes the ones already queued
func (w *Worker) drain() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	drained := 0
	for {
		select {
		case env := <-w.queue:
			w.publish(ctx, env)
			drained++
		default:
			w.setDepth()
			w.log.Info().Int("drained", drained).Msg("publish worker stopped")
			return
		}
	}
}

func (w *Worker) publish(ctx context.Context, env pipeline.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		w.log.Error().Err(err).Str("share_url", env.ShareURL).Msg("failed to encode envelope")
		return
	}

	id, err := w.publisher.Publish(ctx, data)
	if w.observer != nil {
		w.observer.ObservePublish(err)
	}
	if err != nil {
		w.log.Error().
			Err(err).
			Str("share_url", env.ShareURL).
			Msg("failed to publish envelope")
		return
	}

	w.log.Debug().
		Str("message_id", id).
		Str("store", env.Store).
		Str("share_url", env.ShareURL).
		Msg("envelope published")
}

func (w *Worker) setDepth() {
	if w.observer != nil {
		w.observer.SetQueueDepth(len(w.queue))
	}
}

type queueError string

func (e queueError) Error() string { return string(e) }

const errQueueFull = queueError("publish queue full")
