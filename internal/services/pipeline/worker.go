package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/voxnote/snippets-api/internal/services/snippets"
)

// Worker is a background worker that drains the snippet queue
type Worker struct {
	id           string
	snippets     snippets.Service
	processor    *Processor
	maxInFlight  int
	pollInterval time.Duration
	stopChan     chan struct{}
	wg           sync.WaitGroup
}

// NewWorker creates a new worker instance
func NewWorker(id string, snippetService snippets.Service, processor *Processor, maxInFlight int, pollInterval time.Duration) *Worker {
	return &Worker{
		id:           id,
		snippets:     snippetService,
		processor:    processor,
		maxInFlight:  maxInFlight,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
	}
}

// Start starts the worker in a goroutine
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop stops the worker gracefully
func (w *Worker) Stop() {
	close(w.stopChan)
	w.wg.Wait()
}

// run is the main worker loop
func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	log.Printf("Worker %s starting", w.id)
	defer log.Printf("Worker %s stopped", w.id)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-ticker.C:
			if err := w.ProcessNext(ctx); err != nil {
				log.Printf("Worker %s: error processing snippet: %v", w.id, err)
			}
		}
	}
}

// ProcessNext claims and processes the next queued snippet. An empty queue
// or a closed gate is not an error.
func (w *Worker) ProcessNext(ctx context.Context) error {
	snippet, err := w.snippets.ClaimNextQueued(ctx, w.maxInFlight)
	if err != nil {
		if errors.Is(err, snippets.ErrNoneAvailable) {
			return nil
		}
		return fmt.Errorf("failed to claim snippet: %w", err)
	}

	log.Printf("Worker %s claimed snippet %d [%d-%d]", w.id, snippet.ID, snippet.StartTime, snippet.EndTime)

	if err := w.processor.Process(ctx, snippet); err != nil {
		stage := FailureStage(err)
		if failErr := w.snippets.Fail(ctx, snippet.ID, stage, err.Error()); failErr != nil {
			log.Printf("Worker %s: failed to mark snippet %d as failed: %v", w.id, snippet.ID, failErr)
		}
		return fmt.Errorf("snippet processing failed: %w", err)
	}

	log.Printf("Worker %s completed snippet %d", w.id, snippet.ID)
	return nil
}

// WorkerPool manages multiple workers
type WorkerPool struct {
	workers []*Worker
	mu      sync.RWMutex
	started bool
}

// NewWorkerPool creates a pool of identical workers sharing one
// processor. The in-flight gate lives in the store, so adding workers
// never increases concurrent pipeline runs beyond maxInFlight.
func NewWorkerPool(snippetService snippets.Service, processor *Processor, workerCount, maxInFlight int, pollInterval time.Duration) *WorkerPool {
	pool := &WorkerPool{
		workers: make([]*Worker, workerCount),
	}

	for i := 0; i < workerCount; i++ {
		workerID := fmt.Sprintf("worker-%d", i+1)
		pool.workers[i] = NewWorker(workerID, snippetService, processor, maxInFlight, pollInterval)
	}

	return pool
}

// Start starts all workers
func (p *WorkerPool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("worker pool already started")
	}

	log.Printf("Starting worker pool with %d workers", len(p.workers))

	for _, worker := range p.workers {
		worker.Start(ctx)
	}

	p.started = true
	return nil
}

// Stop stops all workers gracefully
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	log.Printf("Stopping worker pool")

	for _, worker := range p.workers {
		worker.Stop()
	}

	p.started = false
}
