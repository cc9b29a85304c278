package service

import (
	"context"
	"errors"
	"time"

	"github.com/graphmine/community-detection/pkg/louvain"
)

// ErrNotFound is returned when a dataset, job or result does not exist.
var ErrNotFound = errors.New("not found")

// JobStatus is the lifecycle state of a clustering job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// JobParameters configures one clustering run. Zero values select the
// algorithm defaults; Seed below zero keeps the deterministic ascending-ID
// visitation order.
type JobParameters struct {
	MaxLevels     int     `json:"max_levels,omitempty"`
	MaxIterations int     `json:"max_iterations,omitempty"`
	Tolerance     float64 `json:"tolerance,omitempty"`
	Seed          int64   `json:"seed,omitempty"`
	Parallel      bool    `json:"parallel,omitempty"`
}

// Job is a background clustering run over one dataset.
type Job struct {
	ID         string        `json:"id"`
	DatasetID  string        `json:"dataset_id"`
	Parameters JobParameters `json:"parameters"`
	Status     JobStatus     `json:"status"`
	Error      string        `json:"error,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`

	cancel context.CancelFunc
}

// snapshot copies the job for handing to callers. The caller must hold the
// service lock; the copy carries no cancel func and stops tracking the live
// entry's mutations.
func (j *Job) snapshot() *Job {
	snap := *j
	snap.cancel = nil
	return &snap
}

// ClusteringResult is a completed job's output, with vertex identifiers
// mapped back to the dataset's original IDs.
type ClusteringResult struct {
	JobID           string              `json:"job_id"`
	DatasetID       string              `json:"dataset_id"`
	Modularity      float64             `json:"modularity"`
	NumLevels       int                 `json:"num_levels"`
	NumCommunities  int                 `json:"num_communities"`
	IterationCapped bool                `json:"iteration_capped"`
	Communities     map[int][]string    `json:"communities"`
	Levels          []louvain.LevelInfo `json:"levels"`
}
