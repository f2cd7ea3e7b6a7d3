package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/syllabest/internal/chunker"
	"github.com/dgallion1/syllabest/internal/parser"
)

// Worker processes a single parse job.
type Worker struct {
	log      *slog.Logger
	popts    parser.Options
	chunkCfg chunker.Config
	stats    *ParseStats
}

func NewWorker(log *slog.Logger, popts parser.Options, chunkCfg chunker.Config, stats *ParseStats) *Worker {
	return &Worker{
		log:      log,
		popts:    popts,
		chunkCfg: chunkCfg,
		stats:    stats,
	}
}

// Process runs load, assemble and chunk for a job. A panic while parsing
// fails the job instead of the worker.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "kind", job.Kind, "file", job.Filename)
	phase := "parsing"
	defer func() {
		if p := recover(); p != nil {
			log.Error("panic while processing", "phase", phase, "panic", p)
			job.Fail(phase, fmt.Errorf("panic: %v", p))
		}
	}()

	if err := ctx.Err(); err != nil {
		job.Fail("queued", err)
		return
	}

	// Phase 1: Load
	job.SetStatus(JobParsing, phase)
	start := time.Now()
	src, err := parser.Load(bytes.NewReader(job.FileData()), job.Filename, w.popts)
	if err != nil {
		log.Error("load failed", "error", err)
		job.Fail(phase, fmt.Errorf("load: %w", err))
		return
	}

	// Phase 2: Assemble and enrich
	phase = "assembling"
	job.SetStatus(JobAssembling, phase)
	out, err := Assemble(job.Kind, src)
	w.stats.Record(job.Kind, time.Since(start))
	if err != nil {
		log.Error("assemble failed", "error", err)
		job.Fail(phase, err)
		return
	}
	out.EnrichProject()
	if len(out.Enrich.Missed) > 0 {
		log.Debug("fields not recovered", "fields", out.Enrich.Missed)
	}

	// Phase 3: Chunk
	phase = "chunking"
	job.SetStatus(JobChunking, phase)
	out.Project(w.chunkCfg, chunker.Options{DocumentPath: src.Name})
	log.Info("parsed document", "pages", src.PageCount, "tables", len(src.Tables), "chunks", len(out.Chunks))

	job.Complete(out)
}
