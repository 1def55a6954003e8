package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Closer allows flushing and stopping the async handler.
type Closer interface {
	Close()
}

type nopCloser struct{}

func (nopCloser) Close() {}

// asyncQueue is shared by an AsyncHandler and every handler derived from it.
type asyncQueue struct {
	ch      chan queued
	wg      sync.WaitGroup
	once    sync.Once
	dropped atomic.Int64
}

// queued pairs a record with the handler (and its attrs/groups) that must write it.
type queued struct {
	rec slog.Record
	dst slog.Handler
}

// AsyncHandler writes records on background workers. When the buffer is
// full the record is dropped and counted rather than blocking the request.
type AsyncHandler struct {
	inner slog.Handler
	q     *asyncQueue
}

// NewAsyncHandler starts workers draining a buffer of chanSize records.
func NewAsyncHandler(inner slog.Handler, chanSize, workers int) *AsyncHandler {
	q := &asyncQueue{ch: make(chan queued, chanSize)}
	for range workers {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for item := range q.ch {
				_ = item.dst.Handle(context.Background(), item.rec)
			}
		}()
	}
	return &AsyncHandler{inner: inner, q: q}
}

// Enabled delegates to the inner handler.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle enqueues a clone of the record.
func (h *AsyncHandler) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	select {
	case h.q.ch <- queued{rec: rec.Clone(), dst: h.inner}:
	default:
		h.q.dropped.Add(1)
	}
	return nil
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithAttrs(attrs), q: h.q}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithGroup(name), q: h.q}
}

// DroppedCount returns the number of records lost to a full buffer.
func (h *AsyncHandler) DroppedCount() int64 {
	return h.q.dropped.Load()
}

// Close stops accepting records and waits until the buffer is written out.
// Safe to call more than once.
func (h *AsyncHandler) Close() {
	h.q.once.Do(func() {
		close(h.q.ch)
		h.q.wg.Wait()
	})
}
