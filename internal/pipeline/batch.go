package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/syllabest/internal/chunker"
	"github.com/dgallion1/syllabest/internal/config"
	"github.com/dgallion1/syllabest/internal/doctree"
	"github.com/dgallion1/syllabest/internal/document"
	"github.com/dgallion1/syllabest/internal/enrich"
	"github.com/dgallion1/syllabest/internal/export"
	"github.com/dgallion1/syllabest/internal/parser"
)

// Batch steps besides the three parse steps named after their Kind.
const (
	StepClean  = "clean"
	StepChunk  = "chunk"
	StepExport = "export"
	StepAll    = "all"
)

// Steps lists the batch steps in the order StepAll runs them.
var Steps = []string{string(KindCourse), string(KindSubject), string(KindProject), StepClean, StepChunk, StepExport}

// CatalogueFile is the name of the workbook written by the export step.
const CatalogueFile = "catalogue.xlsx"

const dumpSuffix = "_non_table.txt"

// Runner executes batch steps over the data directory. Files are handled
// one at a time; a failing file is recorded and the step moves on.
type Runner struct {
	DataDir   string
	OutputDir string
	CleanDir  string
	Parser    parser.Options
	Chunk     chunker.Config
	Stats     *ParseStats
	RunID     string

	log *slog.Logger
}

func NewRunner(cfg config.Config, log *slog.Logger) *Runner {
	runID := uuid.NewString()
	log = log.With("run_id", runID)
	return &Runner{
		DataDir:   cfg.DataDir,
		OutputDir: cfg.OutputDir,
		CleanDir:  cfg.CleanDir,
		Parser:    parser.Options{Pdftotext: cfg.PDFFallbackPdftotext, Log: log},
		Chunk:     chunker.Config{ChunkSize: cfg.ChunkSize, ChunkOverlap: cfg.ChunkOverlap},
		Stats:     NewParseStats(0),
		RunID:     runID,
		log:       log,
	}
}

// Run executes one step, or every step in order for StepAll.
func (r *Runner) Run(ctx context.Context, step string) (Report, error) {
	if step == StepAll {
		var total Report
		for _, s := range Steps {
			rep, err := r.Run(ctx, s)
			total.Merge(rep)
			if err != nil {
				return total, err
			}
		}
		return total, nil
	}

	switch step {
	case StepClean:
		return r.clean(ctx)
	case StepChunk:
		return r.chunk(ctx)
	case StepExport:
		return r.export(ctx)
	}
	kind, err := ParseKind(step)
	if err != nil {
		return Report{}, fmt.Errorf("unknown step %q", step)
	}
	return r.parse(ctx, kind)
}

func (r *Runner) parse(ctx context.Context, kind Kind) (Report, error) {
	in := filepath.Join(r.DataDir, kind.DocType())
	names, err := listFiles(in, nil)
	if err != nil {
		return Report{}, err
	}
	return r.forEach(ctx, string(kind), in, names, func(path string, log *slog.Logger) (string, error) {
		start := time.Now()
		src, err := parser.LoadFile(path, r.Parser)
		if err != nil {
			return "", err
		}
		out, err := Assemble(kind, src)
		r.Stats.Record(kind, time.Since(start))
		if err != nil {
			return "", err
		}
		log.Debug("parsed", "pages", src.PageCount, "tables", len(src.Tables))

		dir := filepath.Join(r.OutputDir, kind.DocType())
		stem := parser.Stem(path)
		target := filepath.Join(dir, stem+".json")
		var v any = out.Document
		if kind == KindCourse {
			v = out.Course
		}
		// The dump goes first: a document on disk always has its dump.
		if kind == KindProject {
			if err := writeFile(filepath.Join(dir, stem+dumpSuffix), []byte(out.Dump)); err != nil {
				return "", err
			}
		}
		if err := writeJSON(target, v); err != nil {
			return "", err
		}
		return target, nil
	})
}

func (r *Runner) clean(ctx context.Context) (Report, error) {
	in := filepath.Join(r.OutputDir, doctree.TypeProject)
	names, err := listFiles(in, isJSON)
	if err != nil {
		return Report{}, err
	}
	return r.forEach(ctx, StepClean, in, names, func(path string, log *slog.Logger) (string, error) {
		doc, err := readDocument(path)
		if err != nil {
			return "", err
		}
		dumpPath := strings.TrimSuffix(path, ".json") + dumpSuffix
		dump, err := os.ReadFile(dumpPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			log.Warn("no dump, copying document unchanged", "dump", filepath.Base(dumpPath))
		case err != nil:
			return "", fmt.Errorf("read dump: %w", err)
		default:
			var sum enrich.Summary
			doc, sum = enrich.Run(doc, string(dump))
			for _, f := range sum.Missed {
				log.Debug("field not recovered", "field", f)
			}
			log.Info("enriched", "updated", len(sum.Updated), "missed", len(sum.Missed))
		}
		if err := document.Validate(doc); err != nil {
			return "", err
		}
		target := filepath.Join(r.CleanDir, filepath.Base(path))
		return target, writeJSON(target, doc)
	})
}

func (r *Runner) chunk(ctx context.Context) (Report, error) {
	var total Report

	courses := filepath.Join(r.OutputDir, doctree.TypeCourse)
	rep, err := r.chunkDir(ctx, courses, filepath.Join(courses, "chunk"), func(path string) ([]doctree.Chunk, error) {
		var course doctree.CourseDocument
		if err := readJSON(path, &course); err != nil {
			return nil, err
		}
		opts := chunker.Options{DocumentPath: filepath.Join(r.DataDir, doctree.TypeCourse, course.Meta.Source)}
		return chunker.ProjectCourse(course, r.Chunk, opts), nil
	})
	total.Merge(rep)
	if err != nil {
		return total, err
	}

	for _, src := range []struct{ in, docType string }{
		{filepath.Join(r.OutputDir, doctree.TypeSubject), doctree.TypeSubject},
		{r.CleanDir, doctree.TypeProject},
	} {
		out := filepath.Join(r.OutputDir, src.docType, "chunks")
		rep, err := r.chunkDir(ctx, src.in, out, func(path string) ([]doctree.Chunk, error) {
			doc, err := readDocument(path)
			if err != nil {
				return nil, err
			}
			opts := chunker.Options{DocumentPath: filepath.Join(r.DataDir, src.docType, doc.Source)}
			return chunker.Project(doc, chunker.Label(src.docType), opts), nil
		})
		total.Merge(rep)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (r *Runner) chunkDir(ctx context.Context, in, out string, project func(string) ([]doctree.Chunk, error)) (Report, error) {
	names, err := listFiles(in, isJSON)
	if err != nil {
		return Report{}, err
	}
	return r.forEach(ctx, StepChunk, in, names, func(path string, log *slog.Logger) (string, error) {
		chunks, err := project(path)
		if err != nil {
			return "", err
		}
		target := filepath.Join(out, parser.Stem(path)+"_chunks.json")
		if err := writeJSON(target, chunks); err != nil {
			return "", err
		}
		log.Debug("chunked", "chunks", len(chunks))
		return target, nil
	})
}

func (r *Runner) export(ctx context.Context) (Report, error) {
	log := r.log.With("step", StepExport)
	var cat export.Catalogue

	for _, path := range r.jsonPaths(filepath.Join(r.OutputDir, doctree.TypeCourse), log) {
		var c doctree.CourseDocument
		if err := readJSON(path, &c); err != nil {
			log.Warn("skipping unreadable course", "file", filepath.Base(path), "error", err)
			continue
		}
		cat.Courses = append(cat.Courses, c)
	}
	cat.Subjects = r.readDocuments(filepath.Join(r.OutputDir, doctree.TypeSubject), log)
	cat.Projects = r.readDocuments(r.CleanDir, log)
	if len(cat.Projects) == 0 {
		cat.Projects = r.readDocuments(filepath.Join(r.OutputDir, doctree.TypeProject), log)
	}

	var rep Report
	if len(cat.Courses)+len(cat.Subjects)+len(cat.Projects) == 0 {
		log.Warn("nothing to export")
		rep.Empty = append(rep.Empty, StepExport)
		return rep, ctx.Err()
	}

	target := filepath.Join(r.OutputDir, CatalogueFile)
	res := Result{Step: StepExport, Path: r.OutputDir}
	_, err := safely(func() (string, error) {
		b, err := export.Write(cat, log)
		if err != nil {
			return "", err
		}
		return target, writeFile(target, b)
	})
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		log.Error("export failed", "error", err)
	} else {
		res.Status, res.Output = StatusSucceeded, target
	}
	rep.add(res)
	return rep, nil
}

func (r *Runner) jsonPaths(dir string, log *slog.Logger) []string {
	names, err := listFiles(dir, isJSON)
	if err != nil {
		log.Warn("cannot list directory", "dir", dir, "error", err)
		return nil
	}
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
	}
	return paths
}

func (r *Runner) readDocuments(dir string, log *slog.Logger) []doctree.Document {
	var docs []doctree.Document
	for _, path := range r.jsonPaths(dir, log) {
		doc, err := readDocument(path)
		if err != nil {
			log.Warn("skipping unreadable document", "file", filepath.Base(path), "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs
}

// forEach applies fn to every file of names. ErrUnsupported marks the file
// skipped; any other error or a panic marks it failed.
func (r *Runner) forEach(ctx context.Context, step, dir string, names []string, fn func(path string, log *slog.Logger) (string, error)) (Report, error) {
	var rep Report
	log := r.log.With("step", step)
	if len(names) == 0 {
		log.Warn("no input files", "dir", dir)
		rep.Empty = append(rep.Empty, step+":"+dir)
		return rep, nil
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		path := filepath.Join(dir, name)
		flog := log.With("file", name)
		res := Result{Step: step, Path: path}

		out, err := safely(func() (string, error) { return fn(path, flog) })
		switch {
		case errors.Is(err, parser.ErrUnsupported):
			res.Status, res.Err = StatusSkipped, err
			flog.Info("skipped", "error", err)
		case err != nil:
			res.Status, res.Err = StatusFailed, err
			flog.Error("failed", "error", err)
		default:
			res.Status, res.Output = StatusSucceeded, out
			flog.Info("done", "output", out)
		}
		rep.add(res)
	}
	return rep, nil
}

func safely(fn func() (string, error)) (out string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn()
}

// listFiles returns the regular, non-hidden files of dir accepted by keep,
// sorted by name. A missing directory has no files.
func listFiles(dir string, keep func(string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if keep == nil || keep(name) {
			names = append(names, name)
		}
	}
	return names, nil
}

func isJSON(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".json")
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readDocument(path string) (doctree.Document, error) {
	var doc doctree.Document
	err := readJSON(path, &doc)
	return doc, err
}

func writeJSON(path string, v any) error {
	b, err := doctree.Encode(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return writeFile(path, b)
}

// writeFile replaces path in one step through a temporary file in the same
// directory, so readers never see a partial file.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
