package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/syllabest/internal/parser"
	"github.com/dgallion1/syllabest/internal/pipeline"
)

// kindParam reads the {kind} URL parameter, writing a 404 when it names no
// document kind.
func kindParam(w http.ResponseWriter, r *http.Request) (pipeline.Kind, bool) {
	kind, err := pipeline.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return "", false
	}
	return kind, true
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	// Limit total request size, with 1MB for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	job, dup, err := s.orchestrator.Submit(kind, filename, data)
	if errors.Is(err, pipeline.ErrQueueFull) {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	code := http.StatusAccepted
	if dup {
		code = http.StatusOK
	}
	writeJSON(w, code, jobRef(job, dup))
}

func (s *Server) handleBatchParse(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	results := make([]map[string]any, 0, len(files))
	for _, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		fail := func(msg string) {
			results = append(results, map[string]any{"filename": filename, "error": msg})
		}
		if !parser.IsSupportedExtension(filename) {
			fail(fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)))
			continue
		}
		data, err := s.readPart(fh)
		if err != nil {
			fail(err.Error())
			continue
		}
		job, dup, err := s.orchestrator.Submit(kind, filename, data)
		if err != nil {
			fail(err.Error())
			continue
		}
		ref := jobRef(job, dup)
		ref["filename"] = filename
		results = append(results, ref)
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"jobs": results})
}

func (s *Server) readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, errors.New("failed to open file")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	if err != nil || int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, errors.New("file too large or read error")
	}
	return data, nil
}

func jobRef(job *pipeline.Job, dup bool) map[string]any {
	snap := job.Snapshot()
	return map[string]any{
		"job_id":    snap.ID,
		"kind":      snap.Kind,
		"status":    snap.Status,
		"duplicate": dup,
		"poll_url":  fmt.Sprintf("/api/jobs/%s", snap.ID),
	}
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
