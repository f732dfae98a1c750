package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/jackzampolin/folio/internal/report"
)

// ErrQueueFull is returned by Submit when the pool queue has no free slot.
var ErrQueueFull = errors.New("worker queue full")

// Unit is one document queued for segmentation.
type Unit struct {
	Index     int
	Path      string
	OutputDir string
}

// Result is the outcome of one Unit.
type Result struct {
	Unit   *Unit
	Report *report.Report
	Err    error
}

// Handler processes a single unit.
type Handler func(ctx context.Context, unit *Unit) Result

// Pool runs units on a fixed set of workers.
// All workers share a single queue - natural load balancing via Go channel semantics.
type Pool struct {
	name        string
	logger      *slog.Logger
	workerCount int
	handler     Handler

	// Single shared queue (all workers pull from this)
	queue chan *Unit

	// Results channel (workers -> collector)
	results chan Result

	wg       sync.WaitGroup
	inFlight atomic.Int32
}

// PoolConfig configures a new Pool.
type PoolConfig struct {
	Name        string
	Logger      *slog.Logger
	Handler     Handler
	WorkerCount int // Number of worker goroutines (default: runtime.NumCPU())
	QueueSize   int // Queue size (default: 1024)
}

// PoolStatus is a point-in-time view of a pool.
type PoolStatus struct {
	Name       string `json:"name"`
	Workers    int    `json:"workers"`
	InFlight   int    `json:"in_flight"`
	QueueDepth int    `json:"queue_depth"`
}

// NewPool creates a new pool. Call Start before Submit.
func NewPool(cfg PoolConfig) *Pool {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	name := cfg.Name
	if name == "" {
		name = "batch"
	}

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 1024
	}

	workerCount := cfg.WorkerCount
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}

	return &Pool{
		name:        name,
		logger:      logger.With("pool", name, "workers", workerCount),
		workerCount: workerCount,
		handler:     cfg.Handler,
		queue:       make(chan *Unit, queueSize),
		results:     make(chan Result, queueSize),
	}
}

// Start launches the workers. They stop when ctx is cancelled or the
// queue is closed by Close.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	p.logger.Debug("pool started")
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return

		case unit, ok := <-p.queue:
			if !ok {
				return
			}
			p.logger.Debug("worker received unit", "worker_id", id, "file", unit.Path)
			p.inFlight.Add(1)
			result := p.process(ctx, unit)
			p.inFlight.Add(-1)

			select {
			case p.results <- result:
			case <-ctx.Done():
				return
			}
		}
	}
}

// process runs the handler, turning a panic into a failed result.
func (p *Pool) process(ctx context.Context, unit *Unit) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("handler panic", "file", unit.Path, "panic", r)
			result = Result{Unit: unit, Err: fmt.Errorf("panic processing %s: %v", unit.Path, r)}
		}
	}()
	if p.handler == nil {
		return Result{Unit: unit, Err: fmt.Errorf("no handler registered for pool %s", p.name)}
	}
	result = p.handler(ctx, unit)
	result.Unit = unit
	return result
}

// Submit adds a unit to the queue without blocking.
func (p *Pool) Submit(unit *Unit) error {
	select {
	case p.queue <- unit:
		return nil
	default:
		p.logger.Warn("pool queue full", "file", unit.Path)
		return fmt.Errorf("%w: %s", ErrQueueFull, p.name)
	}
}

// Results returns the channel results are delivered on.
// It is closed by Close once every worker has exited.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Close stops accepting work and waits for the workers to finish.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
	close(p.results)
}

// Status returns current pool status.
func (p *Pool) Status() PoolStatus {
	return PoolStatus{
		Name:       p.name,
		Workers:    p.workerCount,
		InFlight:   int(p.inFlight.Load()),
		QueueDepth: len(p.queue),
	}
}
