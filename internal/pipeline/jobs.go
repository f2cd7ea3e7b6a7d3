package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/syllabest/internal/doctree"
)

// JobStatus represents the state of a parse job.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobParsing    JobStatus = "parsing"
	JobAssembling JobStatus = "assembling"
	JobChunking   JobStatus = "chunking"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Job tracks the parsing of one uploaded file.
type Job struct {
	mu sync.Mutex

	ID       string    `json:"job_id"`
	Kind     Kind      `json:"kind"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	output   *Output
	errors   []string
}

// NewJob creates a queued job for data.
func NewJob(id string, kind Kind, filename string, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:          id,
		Kind:        kind,
		Status:      JobQueued,
		Phase:       "queued",
		Filename:    filename,
		ContentHash: ContentHashHex(data),
		CreatedAt:   now,
		UpdatedAt:   now,
		fileData:    data,
	}
}

// Progress summarizes what a job produced.
type Progress struct {
	Chunks        int      `json:"chunks"`
	FieldsUpdated int      `json:"fields_updated"`
	FieldsMissed  int      `json:"fields_missed"`
	Errors        []string `json:"errors"`
}

// JobStore is a thread-safe in-memory job registry with TTL eviction. Jobs
// are also indexed by kind and content hash so a repeated upload finds the
// earlier job.
type JobStore struct {
	mu     sync.Mutex
	jobs   map[string]*Job
	byHash map[string]string
	ttl    time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs:   make(map[string]*Job),
		byHash: make(map[string]string),
		ttl:    ttl,
	}
}

func hashKey(kind Kind, hash string) string {
	return string(kind) + "/" + hash
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	if job.ContentHash != "" {
		s.byHash[hashKey(job.Kind, job.ContentHash)] = job.ID
	}
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// FindByHash returns the live job for the same kind and content, or nil.
// Failed jobs are not reused.
func (s *JobStore) FindByHash(kind Kind, hash string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	job := s.jobs[s.byHash[hashKey(kind, hash)]]
	if job == nil || job.CurrentStatus() == JobFailed {
		return nil
	}
	return job
}

// Len returns the number of stored jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.LastUpdate()) > s.ttl {
			delete(s.jobs, id)
			key := hashKey(job.Kind, job.ContentHash)
			if s.byHash[key] == id {
				delete(s.byHash, key)
			}
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// CurrentStatus reads the status under the job lock.
func (j *Job) CurrentStatus() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status
}

// LastUpdate reads UpdatedAt under the job lock.
func (j *Job) LastUpdate() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.UpdatedAt = time.Now()
}

// Complete stores the output and marks the job completed. The uploaded
// bytes are released.
func (j *Job) Complete(out *Output) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.output = out
	j.fileData = nil
	j.Status = JobCompleted
	j.Phase = "done"
	j.UpdatedAt = time.Now()
}

// Fail records err and marks the job failed in phase.
func (j *Job) Fail(phase string, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err.Error())
	j.fileData = nil
	j.Status = JobFailed
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// Output returns the result of a completed job, or nil.
func (j *Job) Output() *Output {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.output
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	Kind        Kind      `json:"kind"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Filename    string    `json:"filename"`
	ContentHash string    `json:"content_hash"`
	Sections    []string  `json:"sections,omitempty"`
	Progress    Progress  `json:"progress"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.errors...)
	p := Progress{Errors: errs}
	var sections []string
	if j.output != nil {
		p.Chunks = len(j.output.Chunks)
		p.FieldsUpdated = len(j.output.Enrich.Updated)
		p.FieldsMissed = len(j.output.Enrich.Missed)
		sections = j.output.Document.Sections.Names()
	}
	return JobSnapshot{
		ID:          j.ID,
		Kind:        j.Kind,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		ContentHash: j.ContentHash,
		Sections:    sections,
		Progress:    p,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// Chunks returns the chunks of a completed job.
func (j *Job) Chunks() []doctree.Chunk {
	out := j.Output()
	if out == nil {
		return nil
	}
	return out.Chunks
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
