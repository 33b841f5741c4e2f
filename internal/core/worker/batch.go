package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"
)

var ErrTaskFault = errors.New("task panicked")

// Batch is a join point over tasks submitted to a Pool: Go N tasks, then
// Wait until N of them have finished.
type Batch struct {
	pool *Pool
	wg   sync.WaitGroup

	mu   sync.Mutex
	errs error
}

func NewBatch(pool *Pool) *Batch {
	return &Batch{pool: pool}
}

// Go submits task. A panicking task still counts as finished; the panic is
// recorded for Wait and then re-raised so the pool retires that worker. A
// task the pool drops without running also counts as finished, and Wait
// reports why it was dropped.
func (b *Batch) Go(task Task) error {
	b.wg.Add(1)
	err := b.pool.submit(func() {
		defer func() {
			if r := recover(); r != nil {
				b.fail(fmt.Errorf("%w: %v", ErrTaskFault, r))
				b.wg.Done()
				panic(r)
			}
			b.wg.Done()
		}()
		task()
	}, func(reason error) {
		b.fail(fmt.Errorf("task not run: %w", reason))
		b.wg.Done()
	})
	if err != nil {
		b.wg.Done()
		return err
	}
	return nil
}

// Wait blocks until every task passed to Go has finished or ctx is done.
// It returns the combined task faults, or ctx.Err() on cancellation.
func (b *Batch) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.errs
}

func (b *Batch) fail(err error) {
	b.mu.Lock()
	b.errs = multierr.Append(b.errs, err)
	b.mu.Unlock()
}
