package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/syllabest/internal/chunker"
	"github.com/dgallion1/syllabest/internal/config"
	"github.com/dgallion1/syllabest/internal/parser"
)

// ErrQueueFull is returned by Submit when no worker can take the job.
var ErrQueueFull = errors.New("job queue is full")

// Orchestrator runs uploaded files through the parse pipeline on a bounded
// worker pool.
type Orchestrator struct {
	jobs     *JobStore
	queue    chan *Job
	stats    *ParseStats
	log      *slog.Logger
	cfg      config.Config
	popts    parser.Options
	chunkCfg chunker.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline; Start launches its workers.
func NewOrchestrator(cfg config.Config, stats *ParseStats, log *slog.Logger) *Orchestrator {
	if stats == nil {
		stats = NewParseStats(0)
	}
	return &Orchestrator{
		jobs:  NewJobStore(cfg.JobTTL),
		queue: make(chan *Job, cfg.MaxQueueSize),
		stats: stats,
		log:   log,
		cfg:   cfg,
		popts: parser.Options{Pdftotext: cfg.PDFFallbackPdftotext, Log: log},
		chunkCfg: chunker.Config{
			ChunkSize:    cfg.ChunkSize,
			ChunkOverlap: cfg.ChunkOverlap,
		},
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.log, o.popts, o.chunkCfg, o.stats)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

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

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues data for parsing. A file already submitted with the same
// kind and content returns the earlier job with duplicate set.
func (o *Orchestrator) Submit(kind Kind, filename string, data []byte) (job *Job, duplicate bool, err error) {
	if prev := o.jobs.FindByHash(kind, ContentHashHex(data)); prev != nil {
		o.log.Info("duplicate upload", "job_id", prev.ID, "filename", filename)
		return prev, true, nil
	}

	job = NewJob(uuid.NewString(), kind, filename, data)
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return job, false, nil
	default:
		job.Fail("queue_full", ErrQueueFull)
		return job, false, fmt.Errorf("%w (%d)", ErrQueueFull, o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Stats returns the parse latency tracker.
func (o *Orchestrator) Stats() *ParseStats {
	return o.stats
}
