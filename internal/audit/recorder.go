package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultBufferSize bounds the number of events waiting to be written.
	DefaultBufferSize = 256

	insertTimeout    = 5 * time.Second
	maxInsertRetries = 3
)

// Recorder writes scan events asynchronously. Record never blocks the
// request path: when the buffer is full the event is dropped and counted,
// not queued.
type Recorder struct {
	store  *Store
	events chan ScanEvent

	wg      sync.WaitGroup
	closeMu sync.Mutex
	closed  bool
}

// NewRecorder starts a recorder draining into store. A bufferSize of 0 or
// less selects DefaultBufferSize.
func NewRecorder(store *Store, bufferSize int) *Recorder {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	r := &Recorder{
		store:  store,
		events: make(chan ScanEvent, bufferSize),
	}
	r.wg.Add(1)
	go r.drain()
	return r
}

// Record enqueues an event for persistence. Fire-and-forget: a full buffer
// or a closed recorder drops the event with a warning.
func (r *Recorder) Record(ev ScanEvent) {
	r.closeMu.Lock()
	defer r.closeMu.Unlock()
	if r.closed {
		return
	}
	select {
	case r.events <- ev:
	default:
		slog.Warn("audit buffer full, dropping scan event", "barcode", ev.Barcode)
	}
}

// Close stops accepting events and waits for the queue to drain.
func (r *Recorder) Close() {
	r.closeMu.Lock()
	if r.closed {
		r.closeMu.Unlock()
		return
	}
	r.closed = true
	close(r.events)
	r.closeMu.Unlock()
	r.wg.Wait()
}

func (r *Recorder) drain() {
	defer r.wg.Done()
	for ev := range r.events {
		r.insertWithRetry(ev)
	}
}

// insertWithRetry writes one event, retrying transient failures with
// exponential backoff. Gives up after maxInsertRetries attempts; audit loss
// is logged, never propagated.
func (r *Recorder) insertWithRetry(ev ScanEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxInsertRetries-1),
		ctx,
	)
	err := backoff.Retry(func() error {
		return r.store.Insert(ctx, &ev)
	}, bo)
	if err != nil {
		slog.Error("failed to persist scan event", "barcode", ev.Barcode, "error", err)
	}
}
