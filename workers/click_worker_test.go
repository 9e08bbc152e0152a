package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortlink/apperrors"
	"shortlink/clientinfo"
	"shortlink/models"
)

// countingRecorder tallies appends per short id.
type countingRecorder struct {
	mu    sync.Mutex
	calls map[string]int
	err   error
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{calls: map[string]int{}}
}

func (r *countingRecorder) RecordClick(ctx context.Context, shortID string, client clientinfo.Context) (*models.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[shortID]++
	if r.err != nil {
		return nil, r.err
	}
	return &models.Link{ShortID: shortID}, nil
}

func (r *countingRecorder) count(shortID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[shortID]
}

func TestClickQueue_DrainsAllEvents(t *testing.T) {
	rec := newCountingRecorder()
	q := StartClickWorkers(3, 100, time.Second, rec)

	const n = 50
	for i := 0; i < n; i++ {
		require.True(t, q.Enqueue(models.ClickEvent{ShortID: "abc12345"}))
	}
	q.Close()

	assert.Equal(t, n, rec.count("abc12345"))
}

func TestClickQueue_EnqueueNeverBlocks(t *testing.T) {
	rec := newCountingRecorder()
	// No workers: the buffer fills and further events are refused, not
	// queued behind a blocking send.
	q := StartClickWorkers(0, 2, time.Second, rec)
	defer q.Close()

	assert.True(t, q.Enqueue(models.ClickEvent{ShortID: "a"}))
	assert.True(t, q.Enqueue(models.ClickEvent{ShortID: "b"}))
	assert.False(t, q.Enqueue(models.ClickEvent{ShortID: "c"}))
}

func TestClickQueue_SurvivesRecorderErrors(t *testing.T) {
	rec := newCountingRecorder()
	rec.err = apperrors.ErrNotFound
	q := StartClickWorkers(2, 10, time.Second, rec)

	for i := 0; i < 5; i++ {
		require.True(t, q.Enqueue(models.ClickEvent{ShortID: "gone1234"}))
	}
	q.Close()

	// Every event was attempted despite the failures.
	assert.Equal(t, 5, rec.count("gone1234"))
}
