package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/docscaffold/internal/config"
	"github.com/dgallion1/docscaffold/internal/doctree"
	"github.com/dgallion1/docscaffold/internal/generator"
	"github.com/google/uuid"
)

var (
	ErrQueueFull          = errors.New("invocation queue is full")
	ErrStopped            = errors.New("orchestrator stopped")
	ErrUnsupportedMessage = errors.New("unsupported message type")
)

// Orchestrator serializes command invocations against one document tree.
// A single worker drains the queue, so at most one command mutates the tree
// at a time.
type Orchestrator struct {
	jobs   *JobStore
	queue  chan *Job
	worker *Worker
	tree   doctree.Tree
	stats  *Stats
	log    *slog.Logger
	cfg    config.Config

	// treeMu is held for every tree mutation, including imports.
	treeMu sync.Mutex

	mu      sync.Mutex
	stopped bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to begin processing.
func NewOrchestrator(cfg config.Config, tree doctree.Tree, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:   NewJobStore(cfg.JobTTL),
		queue:  make(chan *Job, cfg.MaxQueueSize),
		worker: NewWorker(tree, log, generator.WithFrameSize(cfg.FrameWidth, cfg.FrameHeight)),
		tree:   tree,
		stats:  NewStats(cfg.JobTTL),
		log:    log,
		cfg:    cfg,
	}
}

// Start launches the worker goroutine and the job cleanup loop.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		for {
			select {
			case <-workerCtx.Done():
				return
			case job, ok := <-o.queue:
				if !ok {
					return
				}
				o.run(workerCtx, job)
			}
		}
	}()

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

func (o *Orchestrator) run(ctx context.Context, job *Job) {
	o.treeMu.Lock()
	defer o.treeMu.Unlock()
	start := time.Now()
	o.worker.Process(ctx, job)
	o.stats.Record(time.Since(start), job.Snapshot().Status)
	job.finish()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()

	// Fail whatever the worker never picked up.
	for job := range o.queue {
		job.SetError(ErrStopped)
		job.SetStatus(StatusFailed, "queued")
		job.finish()
	}
}

// Submit queues msg for processing. Messages that are not actionable are
// rejected with ErrUnsupportedMessage and never reach the queue.
func (o *Orchestrator) Submit(msg Message, host Host) (*Job, error) {
	if !msg.Actionable() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMessage, msg.Type)
	}
	job := NewJob(uuid.NewString(), msg.Payload, host)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return nil, ErrStopped
	}
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return job, nil
	default:
		job.SetError(ErrQueueFull)
		job.SetStatus(StatusFailed, "queue_full")
		job.finish()
		return nil, fmt.Errorf("%w (%d)", ErrQueueFull, o.cfg.MaxQueueSize)
	}
}

// Wait blocks until job finishes or ctx is done.
func (o *Orchestrator) Wait(ctx context.Context, job *Job) (JobSnapshot, error) {
	select {
	case <-job.Done():
		return job.Snapshot(), nil
	case <-ctx.Done():
		return job.Snapshot(), ctx.Err()
	}
}

// Exclusive runs fn with the tree while no invocation is in progress.
func (o *Orchestrator) Exclusive(fn func(doctree.Tree) error) error {
	o.treeMu.Lock()
	defer o.treeMu.Unlock()
	return fn(o.tree)
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Stats returns the invocation latency tracker.
func (o *Orchestrator) Stats() *Stats {
	return o.stats
}
