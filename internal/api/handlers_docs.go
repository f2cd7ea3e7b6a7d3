package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/syllabest/internal/document"
	"github.com/dgallion1/syllabest/internal/pipeline"
)

// completedJob returns a finished job. Unknown jobs get a 404, failed ones
// a 422 and jobs still running a 409.
func (s *Server) completedJob(w http.ResponseWriter, r *http.Request) (*pipeline.Job, bool) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return nil, false
	}
	snap := job.Snapshot()
	switch snap.Status {
	case pipeline.JobCompleted:
		return job, true
	case pipeline.JobFailed:
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "job failed",
			"phase":  snap.Phase,
			"errors": snap.Progress.Errors,
		})
	default:
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":  "job not finished",
			"status": snap.Status,
		})
	}
	return nil, false
}

// handleJobDocument returns the assembled document: the page list of a
// course or the sectioned syllabus, enriched for projects.
func (s *Server) handleJobDocument(w http.ResponseWriter, r *http.Request) {
	job, ok := s.completedJob(w, r)
	if !ok {
		return
	}
	out := job.Output()
	if out.Kind == pipeline.KindCourse {
		writeJSON(w, http.StatusOK, out.Course)
		return
	}
	writeJSON(w, http.StatusOK, out.Document)
}

func (s *Server) handleJobChunks(w http.ResponseWriter, r *http.Request) {
	job, ok := s.completedJob(w, r)
	if !ok {
		return
	}
	chunks := job.Chunks()
	writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(chunks),
		"chunks": chunks,
	})
}

// handleSchema returns the JSON Schema every parsed syllabus of a kind
// satisfies.
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}
	if kind == pipeline.KindCourse {
		jsonError(w, "courses have no section schema", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, document.JSONSchema(kind.DocType()))
}
