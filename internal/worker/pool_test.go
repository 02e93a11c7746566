package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

type testJob struct {
	id int
	fn func(ctx context.Context) error
}

type testResult struct {
	id  int
	err error
}

func (r *testResult) GetError() error { return r.err }

func (j *testJob) Execute(ctx context.Context) Result {
	var err error
	if j.fn != nil {
		err = j.fn(ctx)
	}
	return &testResult{id: j.id, err: err}
}

func TestPool_ExecutesAllJobs(t *testing.T) {
	pool := NewPool(context.Background(), 3)
	pool.Start()

	var executed atomic.Int32
	for i := 0; i < 20; i++ {
		pool.Submit(&testJob{id: i, fn: func(ctx context.Context) error {
			executed.Add(1)
			return nil
		}})
	}

	results := pool.Wait()
	if len(results) != 20 {
		t.Errorf("expected 20 results, got %d", len(results))
	}
	if executed.Load() != 20 {
		t.Errorf("expected 20 executions, got %d", executed.Load())
	}
}

// Submitting far more jobs than the channel buffers hold must not block:
// results are drained concurrently, so the submitter never waits on a
// full result channel.
func TestPool_ManyJobsExceedingBuffers(t *testing.T) {
	workers := 2
	pool := NewPool(context.Background(), workers)
	pool.Start()

	var executed atomic.Int32
	count := workers*2 + workers + workers*2 + 50
	for i := 0; i < count; i++ {
		pool.Submit(&testJob{id: i, fn: func(ctx context.Context) error {
			executed.Add(1)
			return nil
		}})
	}

	results := pool.Wait()
	if len(results) != count {
		t.Errorf("expected %d results, got %d", count, len(results))
	}
	if executed.Load() != int32(count) {
		t.Errorf("expected %d executions, got %d", count, executed.Load())
	}
}

func TestPool_CollectsErrors(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()

	wantErr := errors.New("boom")
	pool.Submit(&testJob{id: 0, fn: func(ctx context.Context) error { return wantErr }})
	pool.Submit(&testJob{id: 1})

	results := pool.Wait()
	failed := 0
	for _, r := range results {
		if r.GetError() != nil {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("expected 1 failed result, got %d", failed)
	}
}

func TestPool_ParentCancellationStopsNewWork(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, 1)
	pool.Start()

	cancel()
	pool.Shutdown()

	// Submissions after cancellation are dropped, not queued.
	pool.Submit(&testJob{id: 0, fn: func(ctx context.Context) error {
		t.Error("job must not run after cancellation")
		return nil
	}})
}

func TestResultCollector(t *testing.T) {
	c := NewResultCollector()
	c.Add(&testResult{id: 0})
	c.Add(&testResult{id: 1, err: errors.New("boom")})

	if res := c.Results(); len(res) != 2 {
		t.Errorf("expected 2 results, got %d", len(res))
	}
}

func TestPool_MinimumOneWorker(t *testing.T) {
	pool := NewPool(context.Background(), 0)
	pool.Start()
	pool.Submit(&testJob{id: 0})
	if results := pool.Wait(); len(results) != 1 {
		t.Errorf("expected 1 result, got %d", len(results))
	}
}
