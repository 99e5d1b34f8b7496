package queue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestJobsRunInArrivalOrderEvenWhenOneFails(t *testing.T) {
	t.Parallel()

	q := New(testLogger())

	var mu sync.Mutex
	var order []int
	record := func(n int) {
		mu.Lock()
		order = append(order, n)
		mu.Unlock()
	}

	q.Enqueue(func(ctx context.Context) error {
		record(1)
		return errors.New("boom")
	})
	q.Enqueue(func(ctx context.Context) error {
		record(2)
		panic("worse boom")
	})
	q.Enqueue(func(ctx context.Context) error {
		record(3)
		return nil
	})

	q.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 {
		t.Fatalf("unexpected job count: got=%d want=3", len(order))
	}
	for i, n := range order {
		if n != i+1 {
			t.Fatalf("jobs ran out of order: got=%v", order)
		}
	}
}

func TestEnqueueNeverBlocksWhileWorkerIsBusy(t *testing.T) {
	t.Parallel()

	q := New(testLogger())

	release := make(chan struct{})
	started := make(chan struct{})
	q.Enqueue(func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started

	enqueued := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			q.Enqueue(func(ctx context.Context) error { return nil })
		}
		close(enqueued)
	}()

	select {
	case <-enqueued:
	case <-time.After(2 * time.Second):
		t.Fatal("enqueue blocked while worker was busy")
	}

	close(release)
	q.Close()
}

func TestJobsAtMostOneAtATime(t *testing.T) {
	t.Parallel()

	q := New(testLogger())

	var mu sync.Mutex
	running, maxRunning := 0, 0

	for i := 0; i < 10; i++ {
		q.Enqueue(func(ctx context.Context) error {
			mu.Lock()
			running++
			if running > maxRunning {
				maxRunning = running
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			running--
			mu.Unlock()
			return nil
		})
	}

	q.Close()

	mu.Lock()
	defer mu.Unlock()
	if maxRunning != 1 {
		t.Fatalf("expected serialized execution, saw %d concurrent jobs", maxRunning)
	}
}
