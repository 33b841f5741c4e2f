package worker

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	ErrClosed    = errors.New("worker pool is shut down")
	ErrNoWorkers = errors.New("worker pool has no live workers")
)

// State is the pool lifecycle: Running -> ShuttingDown -> Stopped.
type State int32

const (
	Running State = iota
	ShuttingDown
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case ShuttingDown:
		return "shutting-down"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Task is one unit of queued work.
type Task func()

// job is a queued task. abandon, when set, is called with the reason if the
// task is dropped without running.
type job struct {
	run     Task
	abandon func(error)
}

// Pool is a fixed set of goroutines draining one FIFO queue.
//
// Shutdown does not drain: queued tasks that have not started are dropped.
// A task that panics is recovered and logged, and the goroutine that ran it
// exits, so the pool loses one worker for good. When the last worker exits,
// queued tasks are abandoned and Submit fails with ErrNoWorkers.
type Pool struct {
	mu    sync.Mutex
	cond  *sync.Cond
	queue []job
	state State

	size  int
	alive atomic.Int32
	wg    sync.WaitGroup
	log   *zap.Logger
}

// New starts n workers. n <= 0 means runtime.NumCPU().
func New(n int, log *zap.Logger) *Pool {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if log == nil {
		log = zap.NewNop()
	}
	p := &Pool{
		queue: make([]job, 0, 64),
		size:  n,
		log:   log,
	}
	p.cond = sync.NewCond(&p.mu)
	p.alive.Store(int32(n))
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go p.loop(i)
	}
	return p
}

// Submit appends task to the queue and wakes one idle worker.
func (p *Pool) Submit(task Task) error {
	return p.submit(task, nil)
}

func (p *Pool) submit(task Task, abandon func(error)) error {
	if task == nil {
		return errors.New("nil task")
	}
	p.mu.Lock()
	if p.state != Running {
		p.mu.Unlock()
		return ErrClosed
	}
	if p.alive.Load() == 0 {
		p.mu.Unlock()
		return ErrNoWorkers
	}
	p.queue = append(p.queue, job{run: task, abandon: abandon})
	p.mu.Unlock()
	p.cond.Signal()
	return nil
}

// Shutdown stops every worker and waits for them to exit. Tasks already
// running finish; queued tasks are discarded and their count returned.
// Calling Shutdown more than once is a no-op returning 0.
func (p *Pool) Shutdown() int {
	p.mu.Lock()
	if p.state != Running {
		p.mu.Unlock()
		return 0
	}
	p.state = ShuttingDown
	queued := p.queue
	p.queue = nil
	p.mu.Unlock()
	p.cond.Broadcast()
	dropped := abandonAll(queued, ErrClosed)

	p.wg.Wait()

	p.mu.Lock()
	p.state = Stopped
	p.mu.Unlock()

	if dropped > 0 {
		p.log.Warn("worker pool stopped with queued tasks", zap.Int("dropped", dropped))
	}
	return dropped
}

// Size is the number of workers the pool started with.
func (p *Pool) Size() int { return p.size }

// Alive is the number of workers still serving the queue.
func (p *Pool) Alive() int { return int(p.alive.Load()) }

// Pending is the number of queued tasks not yet picked up.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

func (p *Pool) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pool) loop(id int) {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && p.state == Running {
			p.cond.Wait()
		}
		if p.state != Running {
			p.mu.Unlock()
			return
		}
		j := p.queue[0]
		p.queue[0] = job{}
		p.queue = p.queue[1:]
		p.mu.Unlock()

		if !p.run(id, j.run) {
			return
		}
	}
}

// run executes task outside the queue lock. It reports false when the task
// panicked; the calling worker then exits.
func (p *Pool) run(id int, task Task) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			p.mu.Lock()
			left := p.alive.Add(-1)
			var orphans []job
			if left == 0 {
				orphans = p.queue
				p.queue = nil
			}
			p.mu.Unlock()

			p.log.Error("task panicked, worker exiting",
				zap.Int("worker", id),
				zap.Any("panic", r),
				zap.Int32("workers_left", left),
			)
			if n := abandonAll(orphans, ErrNoWorkers); n > 0 {
				p.log.Error("last worker gone, queued tasks abandoned", zap.Int("abandoned", n))
			}
			ok = false
		}
	}()
	task()
	return true
}

// abandonAll notifies the owner of every dropped job and returns how many
// there were.
func abandonAll(jobs []job, reason error) int {
	for _, j := range jobs {
		if j.abandon != nil {
			j.abandon(reason)
		}
	}
	return len(jobs)
}
