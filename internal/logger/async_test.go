package logger

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Strob0t/rentalmanager/internal/config"
)

func newAsyncLogger(t *testing.T, buf *bytes.Buffer) (*slog.Logger, *AsyncHandler) {
	t.Helper()
	l, closer := NewWithWriter(config.Logging{Level: "info", Service: "rental-manager", Async: true}, buf)
	ah, ok := closer.(*AsyncHandler)
	if !ok {
		t.Fatalf("closer = %T, want *AsyncHandler when async is on", closer)
	}
	t.Cleanup(ah.Close)
	return l, ah
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var rec map[string]any
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("line is not JSON: %v (%s)", err, sc.Text())
		}
		out = append(out, rec)
	}
	return out
}

func TestAsyncLogger_KeepsRequestScope(t *testing.T) {
	var buf bytes.Buffer
	l, ah := newAsyncLogger(t, &buf)

	ctx := WithUserID(WithRequestID(context.Background(), "req-upload"), "landlord-1")
	l.With("component", "documents").InfoContext(ctx, "document uploaded", "document_id", "d1")
	ah.Close()

	recs := decodeLines(t, &buf)
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1", len(recs))
	}
	want := map[string]string{
		"msg":         "document uploaded",
		"service":     "rental-manager",
		"component":   "documents",
		"document_id": "d1",
		"request_id":  "req-upload",
		"user_id":     "landlord-1",
	}
	for k, v := range want {
		if recs[0][k] != v {
			t.Errorf("%s = %v, want %q", k, recs[0][k], v)
		}
	}
}

func TestAsyncLogger_ConcurrentRequestsAllWritten(t *testing.T) {
	var buf bytes.Buffer
	l, ah := newAsyncLogger(t, &buf)

	const requests, perRequest = 8, 50
	var wg sync.WaitGroup
	for i := range requests {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := WithRequestID(context.Background(), fmt.Sprintf("req-%d", i))
			for j := range perRequest {
				l.InfoContext(ctx, "list served", "n", j)
			}
		}()
	}
	wg.Wait()
	ah.Close()

	perID := make(map[any]int)
	for _, rec := range decodeLines(t, &buf) {
		perID[rec["request_id"]]++
	}
	if len(perID) != requests {
		t.Fatalf("request ids = %d, want %d", len(perID), requests)
	}
	for id, n := range perID {
		if n != perRequest {
			t.Errorf("%v: %d records, want %d", id, n, perRequest)
		}
	}
	if d := ah.DroppedCount(); d != 0 {
		t.Errorf("dropped = %d, want 0", d)
	}
}

// gatedHandler blocks every write until gate is closed.
type gatedHandler struct {
	gate    chan struct{}
	written atomic.Int64
}

func (h *gatedHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *gatedHandler) Handle(context.Context, slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	<-h.gate
	h.written.Add(1)
	return nil
}

func (h *gatedHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *gatedHandler) WithGroup(string) slog.Handler      { return h }

func TestAsyncHandler_SlowOutputDropsInsteadOfBlocking(t *testing.T) {
	inner := &gatedHandler{gate: make(chan struct{})}
	ah := NewAsyncHandler(inner, 2, 1)
	l := slog.New(ah)

	start := time.Now()
	for range 10 {
		l.Info("request served")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("logging blocked for %s behind a stalled writer", elapsed)
	}

	// One record may sit with the worker, two in the buffer.
	dropped := ah.DroppedCount()
	if dropped < 7 {
		t.Errorf("dropped = %d, want >= 7", dropped)
	}

	close(inner.gate)
	ah.Close()
	ah.Close()
	if got := inner.written.Load(); got+dropped != 10 {
		t.Errorf("written %d + dropped %d, want 10", got, dropped)
	}
}

func TestAsyncLogger_LevelCheckedBeforeQueueing(t *testing.T) {
	var buf bytes.Buffer
	l, closer := NewWithWriter(config.Logging{Level: "warn", Async: true}, &buf)
	ah := closer.(*AsyncHandler)

	l.Info("below threshold")
	l.Warn("kept")
	ah.Close()

	recs := decodeLines(t, &buf)
	if len(recs) != 1 || recs[0]["msg"] != "kept" {
		t.Errorf("records = %v, want only the warning", recs)
	}
	if d := ah.DroppedCount(); d != 0 {
		t.Errorf("dropped = %d, want 0", d)
	}
}
