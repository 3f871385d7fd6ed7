package mcp

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the current state of a build job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

func (s JobStatus) active() bool {
	return s == JobStatusPending || s == JobStatusRunning
}

// Job represents a background site build
type Job struct {
	ID           string         `json:"id"`
	Status       JobStatus      `json:"status"`
	Clean        bool           `json:"clean"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  time.Time      `json:"completed_at,omitempty"`
	Pages        int            `json:"pages"`
	Assets       int            `json:"assets"`
	Bytes        int64          `json:"bytes"`
	Errors       map[string]int `json:"errors,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`

	ctx    context.Context
	cancel context.CancelFunc
}

// JobManager tracks build jobs. At most one build runs at a time since all
// builds share the output directory.
type JobManager struct {
	mu      sync.RWMutex
	jobs    map[string]*Job
	running string // ID of the active job, "" if none
}

// NewJobManager creates a new job manager
func NewJobManager() *JobManager {
	return &JobManager{jobs: make(map[string]*Job)}
}

// CreateJob registers a new pending build. If a build is already active it
// is returned with created == false.
func (m *JobManager) CreateJob(clean bool) (job Job, created bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.jobs[m.running]; ok && existing.Status.active() {
		return *existing, false
	}

	ctx, cancel := context.WithCancel(context.Background())
	j := &Job{
		ID:        uuid.New().String(),
		Status:    JobStatusPending,
		Clean:     clean,
		StartedAt: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
	}
	m.jobs[j.ID] = j
	m.running = j.ID
	return *j, true
}

// GetJob returns a snapshot of the job
func (m *JobManager) GetJob(jobID string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.jobs[jobID]
	if !ok {
		return Job{}, false
	}
	return j.snapshot(), true
}

// Running returns a snapshot of the active job, if any
func (m *JobManager) Running() (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.jobs[m.running]
	if !ok || !j.Status.active() {
		return Job{}, false
	}
	return j.snapshot(), true
}

// UpdateStatus updates the status of a job. Terminal statuses release the
// running slot. A cancelled job keeps its status.
func (m *JobManager) UpdateStatus(jobID string, status JobStatus, errorMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[jobID]
	if !ok || j.Status == JobStatusCancelled {
		return
	}
	j.Status = status
	if !status.active() {
		j.CompletedAt = time.Now()
		if m.running == jobID {
			m.running = ""
		}
	}
	if errorMsg != "" {
		j.ErrorMessage = errorMsg
	}
}

// RecordResult copies build counters onto the job
func (m *JobManager) RecordResult(jobID string, pages, assets int, bytes int64, errs map[string]int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if j, ok := m.jobs[jobID]; ok {
		j.Pages = pages
		j.Assets = assets
		j.Bytes = bytes
		if len(errs) > 0 {
			j.Errors = make(map[string]int, len(errs))
			for k, v := range errs {
				j.Errors[k] = v
			}
		}
	}
}

// CancelJob cancels an active job
func (m *JobManager) CancelJob(jobID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[jobID]
	if !ok || !j.Status.active() {
		return false
	}
	m.cancelLocked(j)
	return true
}

// CancelAll cancels every active job
func (m *JobManager) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, j := range m.jobs {
		if j.Status.active() {
			m.cancelLocked(j)
		}
	}
}

func (m *JobManager) cancelLocked(j *Job) {
	j.cancel()
	j.Status = JobStatusCancelled
	j.CompletedAt = time.Now()
	if m.running == j.ID {
		m.running = ""
	}
}

// ListJobs returns snapshots of all jobs, oldest first
func (m *JobManager) ListJobs() []Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		jobs = append(jobs, j.snapshot())
	}
	sort.Slice(jobs, func(a, b int) bool { return jobs[a].StartedAt.Before(jobs[b].StartedAt) })
	return jobs
}

// GetContext returns the context for running a job
func (m *JobManager) GetContext(jobID string) context.Context {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if j, ok := m.jobs[jobID]; ok {
		return j.ctx
	}
	return context.Background()
}

func (j *Job) snapshot() Job {
	c := *j
	if j.Errors != nil {
		c.Errors = make(map[string]int, len(j.Errors))
		for k, v := range j.Errors {
			c.Errors[k] = v
		}
	}
	return c
}
