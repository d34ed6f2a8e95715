package jobs

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Task is a unit of CPU-bound work executed on the pool.
type Task func(context.Context) error

// PoolConfig configures worker pool behaviour.
type PoolConfig struct {
	Workers int
	Logger  *zap.Logger
}

// Pool serialises CPU-bound work onto a fixed number of goroutines so heavy
// tasks cannot starve lighter concurrent request handling. Submit blocks the
// caller until its task has run, propagating the task's error.
type Pool struct {
	name    string
	workers int
	logger  *zap.Logger

	tasks   chan submission
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

type submission struct {
	ctx  context.Context
	task Task
	done chan error
}

// NewPool builds a pool with the provided worker count.
func NewPool(name string, cfg PoolConfig) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Pool{
		name:    name,
		workers: cfg.Workers,
		logger:  cfg.Logger,
		tasks:   make(chan submission),
	}
}

// Start begins worker consumption. Safe to call once.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	p.started = true
	p.logger.Sugar().Infow("pool started", "pool", p.name, "workers", p.workers)
}

// Stop cancels workers and waits for them to exit.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.cancel()
	p.mu.Unlock()
	p.wg.Wait()
	p.logger.Sugar().Infow("pool stopped", "pool", p.name)
}

// Submit runs the task on a pool worker and waits for it to finish. It
// returns early when the caller's context is cancelled before a worker
// picks the task up.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	p.mu.Lock()
	poolCtx := p.ctx
	started := p.started
	p.mu.Unlock()

	if !started {
		return fmt.Errorf("pool %s not started", p.name)
	}

	sub := submission{ctx: ctx, task: task, done: make(chan error, 1)}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-poolCtx.Done():
		return fmt.Errorf("pool %s stopped: %w", p.name, poolCtx.Err())
	case p.tasks <- sub:
	}

	select {
	case <-poolCtx.Done():
		return fmt.Errorf("pool %s stopped: %w", p.name, poolCtx.Err())
	case err := <-sub.done:
		return err
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case sub := <-p.tasks:
			if err := sub.ctx.Err(); err != nil {
				sub.done <- err
				continue
			}
			sub.done <- sub.task(sub.ctx)
		}
	}
}
