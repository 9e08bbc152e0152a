// Package workers persists click events off the redirect path.
package workers

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"shortlink/apperrors"
	"shortlink/clientinfo"
	"shortlink/models"
)

// ClickRecorder is satisfied by *services.LinkService.
type ClickRecorder interface {
	RecordClick(ctx context.Context, shortID string, client clientinfo.Context) (*models.Link, error)
}

// ClickQueue feeds click events from the redirect handler to a pool of
// workers. Enqueue never blocks the redirect; workers append on a background
// context so a client disconnect cannot cancel an in-flight click.
type ClickQueue struct {
	events  chan models.ClickEvent
	timeout time.Duration
	wg      sync.WaitGroup
}

// StartClickWorkers creates the queue and launches workerCount goroutines
// draining it.
func StartClickWorkers(workerCount, bufferSize int, timeout time.Duration, recorder ClickRecorder) *ClickQueue {
	q := &ClickQueue{
		events:  make(chan models.ClickEvent, bufferSize),
		timeout: timeout,
	}
	for i := 0; i < workerCount; i++ {
		q.wg.Add(1)
		go q.worker(recorder)
	}
	return q
}

// Enqueue offers an event to the pool. Returns false when the buffer is
// full; the caller drops the event rather than delaying the redirect.
func (q *ClickQueue) Enqueue(ev models.ClickEvent) bool {
	select {
	case q.events <- ev:
		return true
	default:
		return false
	}
}

// Close stops accepting events and waits for the workers to drain what is
// already queued.
func (q *ClickQueue) Close() {
	close(q.events)
	q.wg.Wait()
}

func (q *ClickQueue) worker(recorder ClickRecorder) {
	defer q.wg.Done()
	for ev := range q.events {
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		_, err := recorder.RecordClick(ctx, ev.ShortID, ev.Client)
		cancel()
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			// Link deleted between resolution and append; the redirect
			// already went out, only this click is lost.
			log.Printf("click dropped, link %q no longer exists", ev.ShortID)
		case err != nil:
			log.Printf("failed to record click for %q: %v", ev.ShortID, err)
		}
	}
}
