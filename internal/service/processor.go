package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultQueueSize = 64

var (
	ErrQueueFull       = errors.New("batch queue is full")
	ErrProcessorHalted = errors.New("processor halted")
	ErrBatchNotFound   = errors.New("batch not found")
)

// BatchRunner runs one batch to completion.
type BatchRunner interface {
	RunBatch(ctx context.Context, batch *domain.Batch) (*domain.BatchReport, error)
}

// Processor queues batches and runs them one at a time in the background.
// A recomputation drift halts it: intake stops and queued batches are
// cancelled until an operator restarts the process.
type Processor struct {
	runner BatchRunner
	logger *zap.Logger

	queue  chan *domain.Batch
	stopCh chan struct{}
	wg     sync.WaitGroup

	mu       sync.RWMutex
	reports  map[uuid.UUID]*domain.BatchReport
	haltErr  error
	cancelFn context.CancelFunc
}

func NewProcessor(runner BatchRunner, queueSize int, logger *zap.Logger) *Processor {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Processor{
		runner:  runner,
		logger:  logger,
		queue:   make(chan *domain.Batch, queueSize),
		stopCh:  make(chan struct{}),
		reports: make(map[uuid.UUID]*domain.BatchReport),
	}
}

// Submit enqueues a batch and returns its id.
func (p *Processor) Submit(batch *domain.Batch) (uuid.UUID, error) {
	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.haltErr != nil {
		return uuid.Nil, ErrProcessorHalted
	}
	select {
	case p.queue <- batch:
	default:
		return uuid.Nil, ErrQueueFull
	}
	p.reports[batch.ID] = &domain.BatchReport{
		BatchID:   batch.ID,
		Status:    domain.BatchQueued,
		StartedAt: time.Now().UTC(),
	}
	return batch.ID, nil
}

// Report returns a copy of the latest report for a batch.
func (p *Processor) Report(id uuid.UUID) (*domain.BatchReport, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	r, ok := p.reports[id]
	if !ok {
		return nil, ErrBatchNotFound
	}
	cp := *r
	return &cp, nil
}

// Halted returns the reason the processor stopped taking work, if it has.
func (p *Processor) Halted() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.haltErr
}

// Halt stops intake and cancels the batch in flight.
func (p *Processor) Halt(reason error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.haltErr != nil {
		return
	}
	p.haltErr = reason
	if p.cancelFn != nil {
		p.cancelFn()
	}
	p.logger.Error("batch processor halted", zap.Error(reason))
}

// Start runs the queue worker in a background goroutine.
func (p *Processor) Start() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.logger.Info("batch processor started", zap.Int("queue_size", cap(p.queue)))
		for {
			select {
			case batch := <-p.queue:
				p.process(batch)
			case <-p.stopCh:
				p.logger.Info("batch processor stopped")
				return
			}
		}
	}()
}

// Stop cancels the batch in flight and waits for the worker to exit.
// Checkpoints let a cancelled batch be resubmitted later.
func (p *Processor) Stop() {
	p.mu.Lock()
	if p.cancelFn != nil {
		p.cancelFn()
	}
	p.mu.Unlock()
	close(p.stopCh)
	p.wg.Wait()
}

func (p *Processor) process(batch *domain.Batch) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p.mu.Lock()
	if p.haltErr != nil {
		p.setStatusLocked(batch.ID, domain.BatchCancelled, p.haltErr)
		p.mu.Unlock()
		return
	}
	p.cancelFn = cancel
	p.setStatusLocked(batch.ID, domain.BatchRunning, nil)
	p.mu.Unlock()

	report, err := p.runner.RunBatch(ctx, batch)

	p.mu.Lock()
	p.cancelFn = nil
	if report != nil {
		p.reports[batch.ID] = report
	}
	p.mu.Unlock()

	if errors.Is(err, domain.ErrRecomputationDrift) {
		p.Halt(err)
	}
}

func (p *Processor) setStatusLocked(id uuid.UUID, status domain.BatchStatus, err error) {
	r, ok := p.reports[id]
	if !ok {
		r = &domain.BatchReport{BatchID: id, StartedAt: time.Now().UTC()}
		p.reports[id] = r
	}
	r.Status = status
	if err != nil {
		r.Error = err.Error()
	}
}
