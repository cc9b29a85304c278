package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/graphmine/community-detection/pkg/config"
	"github.com/graphmine/community-detection/pkg/louvain"
	"github.com/graphmine/community-detection/pkg/metrics"
)

// JobService runs clustering jobs in the background and retains their
// results until the TTL expires.
type JobService struct {
	mu       sync.RWMutex
	jobs     map[string]*Job
	results  map[string]*ClusteringResult
	finished map[string]time.Time

	datasets *DatasetService
	metrics  *metrics.Registry
	workers  chan struct{}

	jobTimeout      time.Duration
	resultTTL       time.Duration
	cleanupInterval time.Duration
}

// NewJobService creates a job service and starts its cleanup loop.
func NewJobService(datasets *DatasetService, m *metrics.Registry, cfg config.JobConfig) *JobService {
	maxWorkers := cfg.MaxWorkers
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	s := &JobService{
		jobs:            make(map[string]*Job),
		results:         make(map[string]*ClusteringResult),
		finished:        make(map[string]time.Time),
		datasets:        datasets,
		metrics:         m,
		workers:         make(chan struct{}, maxWorkers),
		jobTimeout:      cfg.JobTimeout,
		resultTTL:       cfg.ResultTTL,
		cleanupInterval: cfg.CleanupInterval,
	}

	if s.cleanupInterval > 0 {
		go s.cleanupLoop()
	}

	return s
}

// Submit queues a clustering job for a dataset.
func (s *JobService) Submit(datasetID string, params JobParameters) (*Job, error) {
	if _, err := s.datasets.Get(datasetID); err != nil {
		return nil, err
	}
	if err := validateParameters(params); err != nil {
		return nil, err
	}

	now := time.Now()
	job := &Job{
		ID:         uuid.New().String(),
		DatasetID:  datasetID,
		Parameters: params,
		Status:     JobStatusQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	snap := job.snapshot()
	s.mu.Unlock()

	log.Info().
		Str("job_id", job.ID).
		Str("dataset_id", datasetID).
		Msg("job submitted")

	go s.processJob(job.ID)

	return snap, nil
}

// Get retrieves a job by ID. The returned Job is a snapshot; the live entry
// keeps changing while the job runs, so it is never handed out directly.
func (s *JobService) Get(jobID string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("job %s: %w", jobID, ErrNotFound)
	}
	return job.snapshot(), nil
}

// GetResult retrieves the result of a completed job.
func (s *JobService) GetResult(jobID string) (*ClusteringResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, exists := s.results[jobID]
	if !exists {
		return nil, fmt.Errorf("result for job %s: %w", jobID, ErrNotFound)
	}
	return result, nil
}

// Cancel aborts a queued or running job.
func (s *JobService) Cancel(jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return fmt.Errorf("job %s: %w", jobID, ErrNotFound)
	}
	if job.Status != JobStatusQueued && job.Status != JobStatusRunning {
		return fmt.Errorf("job %s already %s", jobID, job.Status)
	}
	if job.cancel != nil {
		job.cancel()
	}
	return nil
}

func (s *JobService) processJob(jobID string) {
	s.workers <- struct{}{}
	defer func() { <-s.workers }()

	s.mu.Lock()
	job, exists := s.jobs[jobID]
	if !exists {
		s.mu.Unlock()
		return
	}

	ctx := context.Background()
	var cancel context.CancelFunc
	if s.jobTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.jobTimeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	job.cancel = cancel
	job.Status = JobStatusRunning
	job.UpdatedAt = time.Now()
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.JobsInFlight.Inc()
		defer s.metrics.JobsInFlight.Dec()
	}

	start := time.Now()
	result, err := s.runClustering(ctx, job)

	s.mu.Lock()
	defer s.mu.Unlock()

	job.UpdatedAt = time.Now()
	s.finished[jobID] = job.UpdatedAt

	switch {
	case err != nil && ctx.Err() != nil:
		job.Status = JobStatusCancelled
		job.Error = ctx.Err().Error()
	case err != nil:
		job.Status = JobStatusFailed
		job.Error = err.Error()
	default:
		job.Status = JobStatusCompleted
		s.results[jobID] = result
	}

	if s.metrics != nil {
		s.metrics.JobsTotal.WithLabelValues(string(job.Status)).Inc()
		s.metrics.JobDuration.Observe(time.Since(start).Seconds())
		if job.Status == JobStatusCompleted {
			s.metrics.FinalModularity.Set(result.Modularity)
			s.metrics.LevelsPerRun.Observe(float64(result.NumLevels))
		}
	}

	log.Info().
		Str("job_id", jobID).
		Str("status", string(job.Status)).
		Dur("duration", time.Since(start)).
		Msg("job finished")
}

func (s *JobService) runClustering(ctx context.Context, job *Job) (*ClusteringResult, error) {
	dataset, err := s.datasets.Get(job.DatasetID)
	if err != nil {
		return nil, err
	}

	graph, err := dataset.EdgeList().Graph()
	if err != nil {
		return nil, err
	}

	result, err := louvain.Run(ctx, graph, buildConfig(job.Parameters))
	if err != nil {
		return nil, err
	}

	return &ClusteringResult{
		JobID:           job.ID,
		DatasetID:       dataset.ID,
		Modularity:      result.Modularity,
		NumLevels:       result.NumLevels,
		NumCommunities:  result.NumCommunities(),
		IterationCapped: result.IterationCapped,
		Communities:     dataset.EdgeList().CommunitiesByOriginalID(result.FinalCommunities),
		Levels:          result.Levels,
	}, nil
}

func buildConfig(params JobParameters) *louvain.Config {
	cfg := louvain.NewConfig()
	cfg.Set("logging.level", "warn")

	if params.MaxLevels > 0 {
		cfg.Set("algorithm.max_levels", params.MaxLevels)
	}
	if params.MaxIterations > 0 {
		cfg.Set("algorithm.max_iterations", params.MaxIterations)
	}
	if params.Tolerance > 0 {
		cfg.Set("algorithm.tolerance", params.Tolerance)
	}
	if params.Seed >= 0 {
		cfg.Set("algorithm.random_seed", params.Seed)
	}
	if params.Parallel {
		cfg.Set("performance.parallel", true)
	}

	return cfg
}

func validateParameters(params JobParameters) error {
	if params.MaxLevels < 0 {
		return fmt.Errorf("max_levels must be non-negative, got %d", params.MaxLevels)
	}
	if params.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must be non-negative, got %d", params.MaxIterations)
	}
	if params.Tolerance < 0 {
		return fmt.Errorf("tolerance must be non-negative, got %f", params.Tolerance)
	}
	return nil
}

// cleanupLoop drops jobs and results whose TTL has expired.
func (s *JobService) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-s.resultTTL)

		s.mu.Lock()
		for jobID, finishedAt := range s.finished {
			if finishedAt.Before(cutoff) {
				delete(s.jobs, jobID)
				delete(s.results, jobID)
				delete(s.finished, jobID)
			}
		}
		s.mu.Unlock()
	}
}
