package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobManager_CreateJob(t *testing.T) {
	m := NewJobManager()

	job, created := m.CreateJob(true)
	require.True(t, created)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.True(t, job.Clean)
	assert.False(t, job.StartedAt.IsZero())

	got, ok := m.GetJob(job.ID)
	require.True(t, ok)
	assert.Equal(t, job.ID, got.ID)

	_, ok = m.GetJob("nonexistent")
	assert.False(t, ok)
}

func TestJobManager_SingleActiveBuild(t *testing.T) {
	m := NewJobManager()

	first, created := m.CreateJob(false)
	require.True(t, created)

	second, created := m.CreateJob(true)
	assert.False(t, created, "a second build must not start while one is active")
	assert.Equal(t, first.ID, second.ID)

	running, ok := m.Running()
	require.True(t, ok)
	assert.Equal(t, first.ID, running.ID)

	m.UpdateStatus(first.ID, JobStatusCompleted, "")
	_, ok = m.Running()
	assert.False(t, ok)

	third, created := m.CreateJob(false)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestJobManager_UpdateStatus(t *testing.T) {
	m := NewJobManager()
	job, _ := m.CreateJob(false)

	m.UpdateStatus(job.ID, JobStatusRunning, "")
	got, _ := m.GetJob(job.ID)
	assert.Equal(t, JobStatusRunning, got.Status)
	assert.True(t, got.CompletedAt.IsZero())

	m.UpdateStatus(job.ID, JobStatusFailed, "boom")
	got, _ = m.GetJob(job.ID)
	assert.Equal(t, JobStatusFailed, got.Status)
	assert.Equal(t, "boom", got.ErrorMessage)
	assert.False(t, got.CompletedAt.IsZero())

	// unknown IDs are ignored
	m.UpdateStatus("nonexistent", JobStatusCompleted, "")
}

func TestJobManager_RecordResult(t *testing.T) {
	m := NewJobManager()
	job, _ := m.CreateJob(false)

	errs := map[string]int{"Filesystem": 2}
	m.RecordResult(job.ID, 5, 3, 1024, errs)
	errs["Filesystem"] = 99

	got, _ := m.GetJob(job.ID)
	assert.Equal(t, 5, got.Pages)
	assert.Equal(t, 3, got.Assets)
	assert.Equal(t, int64(1024), got.Bytes)
	assert.Equal(t, map[string]int{"Filesystem": 2}, got.Errors)

	// snapshots are independent of the manager's copy
	got.Errors["Filesystem"] = 7
	again, _ := m.GetJob(job.ID)
	assert.Equal(t, 2, again.Errors["Filesystem"])
}

func TestJobManager_Cancel(t *testing.T) {
	m := NewJobManager()
	job, _ := m.CreateJob(false)
	ctx := m.GetContext(job.ID)

	assert.True(t, m.CancelJob(job.ID))
	assert.Error(t, ctx.Err())

	got, _ := m.GetJob(job.ID)
	assert.Equal(t, JobStatusCancelled, got.Status)

	// the build goroutine reporting completion must not overwrite the cancellation
	m.UpdateStatus(job.ID, JobStatusCompleted, "")
	got, _ = m.GetJob(job.ID)
	assert.Equal(t, JobStatusCancelled, got.Status)

	assert.False(t, m.CancelJob(job.ID), "already cancelled")
	assert.False(t, m.CancelJob("nonexistent"))

	_, created := m.CreateJob(false)
	assert.True(t, created)
}

func TestJobManager_CancelAll(t *testing.T) {
	m := NewJobManager()
	done, _ := m.CreateJob(false)
	m.UpdateStatus(done.ID, JobStatusCompleted, "")
	active, _ := m.CreateJob(false)

	m.CancelAll()

	got, _ := m.GetJob(done.ID)
	assert.Equal(t, JobStatusCompleted, got.Status)
	got, _ = m.GetJob(active.ID)
	assert.Equal(t, JobStatusCancelled, got.Status)
}

func TestJobManager_ListJobs(t *testing.T) {
	m := NewJobManager()
	assert.Empty(t, m.ListJobs())

	first, _ := m.CreateJob(false)
	m.UpdateStatus(first.ID, JobStatusCompleted, "")
	second, _ := m.CreateJob(false)

	jobs := m.ListJobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, first.ID, jobs[0].ID)
	assert.Equal(t, second.ID, jobs[1].ID)
}

func TestJobManager_GetContextUnknown(t *testing.T) {
	m := NewJobManager()
	assert.NoError(t, m.GetContext("nonexistent").Err())
}
