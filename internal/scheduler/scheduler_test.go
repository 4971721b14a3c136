package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"fieldvisits_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type fakeMarker struct {
	marked  []uuid.UUID
	result  bool
	err     error
	cutoffs []time.Time
}

func (f *fakeMarker) MarkMissed(_ context.Context, id uuid.UUID) (bool, error) {
	f.marked = append(f.marked, id)
	return f.result, f.err
}

func (f *fakeMarker) MarkMissedBefore(_ context.Context, cutoff time.Time) (int, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	return 3, f.err
}

func TestHandleMissedVisitCheck(t *testing.T) {
	marker := &fakeMarker{result: true}
	w := &Worker{marker: marker, log: logger.Nop()}
	id := uuid.New()

	task, err := NewMissedVisitCheckTask(id)
	if err != nil {
		t.Fatalf("NewMissedVisitCheckTask() error = %v", err)
	}
	if task.Type() != TaskMissedVisitCheck {
		t.Fatalf("task type = %q", task.Type())
	}

	if err := w.handleMissedVisitCheck(context.Background(), task); err != nil {
		t.Fatalf("handle error = %v", err)
	}
	if len(marker.marked) != 1 || marker.marked[0] != id {
		t.Fatalf("marked = %v", marker.marked)
	}
}

func TestHandleMissedVisitCheckRetriesStoreFailures(t *testing.T) {
	boom := errors.New("connection reset")
	w := &Worker{marker: &fakeMarker{err: boom}, log: logger.Nop()}
	task, _ := NewMissedVisitCheckTask(uuid.New())

	if err := w.handleMissedVisitCheck(context.Background(), task); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestHandleMissedVisitCheckSkipsMalformedPayload(t *testing.T) {
	marker := &fakeMarker{}
	w := &Worker{marker: marker, log: logger.Nop()}

	err := w.handleMissedVisitCheck(context.Background(), asynq.NewTask(TaskMissedVisitCheck, []byte(`{"visitId":"nope"}`)))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("err = %v, want SkipRetry", err)
	}
	if len(marker.marked) != 0 {
		t.Fatal("malformed payload reached the marker")
	}
}

func TestSweepUsesGraceCutoff(t *testing.T) {
	marker := &fakeMarker{}
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	sweep := NewMissedVisitSweep(marker, logger.Nop(), time.Minute, 2*time.Hour)
	sweep.now = func() time.Time { return now }

	sweep.sweep(context.Background())

	if len(marker.cutoffs) != 1 || !marker.cutoffs[0].Equal(now.Add(-2*time.Hour)) {
		t.Fatalf("cutoffs = %v", marker.cutoffs)
	}
}

func TestRedisClientOpt(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		insecure bool
		wantAddr string
		wantTLS  bool
		wantSkip bool
	}{
		{"plain", "redis://:secret@localhost:6379/2", false, "localhost:6379", false, false},
		{"tls", "rediss://cache.internal:6380", false, "cache.internal:6380", true, false},
		{"insecure tls", "rediss://cache.internal:6380", true, "cache.internal:6380", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt, err := redisClientOpt(tt.url, tt.insecure)
			if err != nil {
				t.Fatalf("redisClientOpt() error = %v", err)
			}
			if opt.Addr != tt.wantAddr {
				t.Errorf("addr = %q", opt.Addr)
			}
			if (opt.TLSConfig != nil) != tt.wantTLS {
				t.Fatalf("tls = %v", opt.TLSConfig)
			}
			if tt.wantTLS && opt.TLSConfig.InsecureSkipVerify != tt.wantSkip {
				t.Errorf("InsecureSkipVerify = %v", opt.TLSConfig.InsecureSkipVerify)
			}
		})
	}
}

func TestNilClientIsNoop(t *testing.T) {
	var c *Client
	if err := c.ScheduleMissedVisitCheck(context.Background(), uuid.New(), time.Now()); err != nil {
		t.Fatalf("err = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
}
