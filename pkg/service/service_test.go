package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/graphmine/community-detection/pkg/config"
)

// Two 4-cliques joined by a single bridge edge.
const twoCliques = `
# clique one
0 1
0 2
0 3
1 2
1 3
2 3
# clique two
4 5
4 6
4 7
5 6
5 7
6 7
# bridge
3 4
`

func testJobConfig() config.JobConfig {
	return config.JobConfig{
		MaxWorkers:      2,
		JobTimeout:      30 * time.Second,
		CleanupInterval: 0,
		ResultTTL:       time.Hour,
	}
}

func newTestServices(t *testing.T) (*DatasetService, *JobService) {
	t.Helper()
	datasets := NewDatasetService(nil)
	jobs := NewJobService(datasets, nil, testJobConfig())
	return datasets, jobs
}

func waitForJob(t *testing.T, jobs *JobService, jobID string) *Job {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		job, err := jobs.Get(jobID)
		if err != nil {
			t.Fatalf("Get(%s) failed: %v", jobID, err)
		}
		if job.Status != JobStatusQueued && job.Status != JobStatusRunning {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish in time", jobID)
	return nil
}

func TestDatasetUpload(t *testing.T) {
	datasets, _ := newTestServices(t)

	ds, err := datasets.Upload("cliques", strings.NewReader(twoCliques))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if ds.NumNodes != 8 {
		t.Errorf("expected 8 nodes, got %d", ds.NumNodes)
	}
	if ds.NumEdges != 13 {
		t.Errorf("expected 13 edges, got %d", ds.NumEdges)
	}

	got, err := datasets.Get(ds.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "cliques" {
		t.Errorf("expected name %q, got %q", "cliques", got.Name)
	}

	if len(datasets.List()) != 1 {
		t.Errorf("expected 1 dataset in list")
	}
}

func TestDatasetNotFound(t *testing.T) {
	datasets, _ := newTestServices(t)

	if _, err := datasets.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := datasets.Delete("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDatasetUploadMalformed(t *testing.T) {
	datasets, _ := newTestServices(t)

	if _, err := datasets.Upload("bad", strings.NewReader("0 1 not-a-weight\n")); err == nil {
		t.Error("expected error for malformed edge list")
	}
}

func TestJobLifecycle(t *testing.T) {
	datasets, jobs := newTestServices(t)

	ds, err := datasets.Upload("cliques", strings.NewReader(twoCliques))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	job, err := jobs.Submit(ds.ID, JobParameters{Seed: -1})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if job.Status != JobStatusQueued {
		t.Errorf("expected queued status, got %s", job.Status)
	}

	done := waitForJob(t, jobs, job.ID)
	if done.Status != JobStatusCompleted {
		t.Fatalf("expected completed, got %s (error: %s)", done.Status, done.Error)
	}

	result, err := jobs.GetResult(job.ID)
	if err != nil {
		t.Fatalf("GetResult failed: %v", err)
	}
	if result.Modularity <= 0 {
		t.Errorf("expected positive modularity, got %f", result.Modularity)
	}
	if result.NumCommunities != 2 {
		t.Errorf("expected 2 communities, got %d", result.NumCommunities)
	}

	covered := 0
	for _, members := range result.Communities {
		covered += len(members)
	}
	if covered != 8 {
		t.Errorf("expected all 8 vertices assigned, got %d", covered)
	}
}

func TestJobUnknownDataset(t *testing.T) {
	_, jobs := newTestServices(t)

	if _, err := jobs.Submit("missing", JobParameters{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestJobInvalidParameters(t *testing.T) {
	datasets, jobs := newTestServices(t)

	ds, err := datasets.Upload("cliques", strings.NewReader(twoCliques))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if _, err := jobs.Submit(ds.ID, JobParameters{MaxLevels: -1}); err == nil {
		t.Error("expected error for negative max_levels")
	}
	if _, err := jobs.Submit(ds.ID, JobParameters{Tolerance: -0.5}); err == nil {
		t.Error("expected error for negative tolerance")
	}
}

func TestGetReturnsIndependentCopy(t *testing.T) {
	datasets, jobs := newTestServices(t)

	ds, err := datasets.Upload("cliques", strings.NewReader(twoCliques))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	submitted, err := jobs.Submit(ds.ID, JobParameters{})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	// Mutating a returned job must not touch the stored entry.
	submitted.Status = JobStatusFailed
	submitted.Error = "scribbled"

	got, err := jobs.Get(submitted.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status == JobStatusFailed || got.Error == "scribbled" {
		t.Error("stored job shares state with the copy handed to callers")
	}

	got.Status = JobStatusFailed
	again, err := jobs.Get(submitted.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if again.Status == JobStatusFailed {
		t.Error("consecutive Get calls share the same Job value")
	}
}

// Readers encode job snapshots while the worker goroutine is updating the
// live entry; run with the race detector enabled.
func TestConcurrentJobPolling(t *testing.T) {
	datasets, jobs := newTestServices(t)

	// Large enough that the run overlaps with the polling goroutines.
	var sb strings.Builder
	const n = 500
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "%d %d\n", i, (i+1)%n)
		fmt.Fprintf(&sb, "%d %d\n", i, rng.Intn(n))
	}

	ds, err := datasets.Upload("ring", strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	job, err := jobs.Submit(ds.ID, JobParameters{Seed: -1})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				polled, err := jobs.Get(job.ID)
				if err != nil {
					t.Errorf("Get failed: %v", err)
					return
				}
				if _, err := json.Marshal(polled); err != nil {
					t.Errorf("Marshal failed: %v", err)
					return
				}
			}
		}()
	}

	done := waitForJob(t, jobs, job.ID)
	close(stop)
	wg.Wait()

	if done.Status != JobStatusCompleted {
		t.Fatalf("expected completed, got %s (error: %s)", done.Status, done.Error)
	}
}

func TestJobCancelFinished(t *testing.T) {
	datasets, jobs := newTestServices(t)

	ds, err := datasets.Upload("cliques", strings.NewReader(twoCliques))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	job, err := jobs.Submit(ds.ID, JobParameters{})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	waitForJob(t, jobs, job.ID)

	if err := jobs.Cancel(job.ID); err == nil {
		t.Error("expected error cancelling a finished job")
	}
}
