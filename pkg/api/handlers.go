package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/graphmine/community-detection/pkg/service"
)

// Handlers contains HTTP request handlers.
type Handlers struct {
	datasetService *service.DatasetService
	jobService     *service.JobService
}

// NewHandlers creates new API handlers.
func NewHandlers(datasetService *service.DatasetService, jobService *service.JobService) *Handlers {
	return &Handlers{
		datasetService: datasetService,
		jobService:     jobService,
	}
}

// UploadDataset handles edge list upload.
func (h *Handlers) UploadDataset(w http.ResponseWriter, r *http.Request) {
	err := r.ParseMultipartForm(100 << 20) // 100MB max
	if err != nil {
		log.Error().Err(err).Msg("Failed to parse multipart form")
		writeError(w, http.StatusBadRequest, "Invalid multipart form", err)
		return
	}

	name := r.FormValue("name")
	if name == "" {
		name = "Unnamed Dataset"
	}

	file, _, err := r.FormFile("edgeFile")
	if err != nil {
		log.Error().Err(err).Msg("Missing edge list file")
		writeError(w, http.StatusBadRequest, "Missing required file: edgeFile", err)
		return
	}
	defer file.Close()

	dataset, err := h.datasetService.Upload(name, file)
	if err != nil {
		log.Error().Err(err).Msg("Dataset upload failed")
		writeError(w, http.StatusBadRequest, "Dataset upload failed", err)
		return
	}

	log.Info().
		Str("dataset_id", dataset.ID).
		Str("name", dataset.Name).
		Int("nodes", dataset.NumNodes).
		Int("edges", dataset.NumEdges).
		Msg("Dataset uploaded successfully")

	writeSuccess(w, "Dataset uploaded successfully", dataset)
}

// ListDatasets lists all datasets.
func (h *Handlers) ListDatasets(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, "Datasets retrieved successfully", h.datasetService.List())
}

// GetDataset retrieves a specific dataset.
func (h *Handlers) GetDataset(w http.ResponseWriter, r *http.Request) {
	datasetID := mux.Vars(r)["datasetId"]

	dataset, err := h.datasetService.Get(datasetID)
	if err != nil {
		writeError(w, statusFor(err), "Dataset not found", err)
		return
	}

	writeSuccess(w, "Dataset retrieved successfully", dataset)
}

// DeleteDataset deletes a dataset.
func (h *Handlers) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	datasetID := mux.Vars(r)["datasetId"]

	if err := h.datasetService.Delete(datasetID); err != nil {
		writeError(w, statusFor(err), "Dataset deletion failed", err)
		return
	}

	writeSuccess(w, "Dataset deleted successfully", nil)
}

// StartClustering submits a clustering job for a dataset.
func (h *Handlers) StartClustering(w http.ResponseWriter, r *http.Request) {
	datasetID := mux.Vars(r)["datasetId"]

	params := service.JobParameters{Seed: -1}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			log.Error().Err(err).Msg("Invalid request body")
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	job, err := h.jobService.Submit(datasetID, params)
	if err != nil {
		writeError(w, statusFor(err), "Failed to start clustering", err)
		return
	}

	log.Info().
		Str("job_id", job.ID).
		Str("dataset_id", datasetID).
		Msg("Clustering job started")

	writeSuccess(w, "Clustering job started", job)
}

// GetJob retrieves the status of a job.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	job, err := h.jobService.Get(jobID)
	if err != nil {
		writeError(w, statusFor(err), "Job not found", err)
		return
	}

	writeSuccess(w, "Job retrieved successfully", job)
}

// CancelJob cancels a queued or running job.
func (h *Handlers) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	if err := h.jobService.Cancel(jobID); err != nil {
		writeError(w, statusFor(err), "Failed to cancel job", err)
		return
	}

	writeSuccess(w, "Job cancelled", nil)
}

// GetJobResult retrieves the result of a completed job.
func (h *Handlers) GetJobResult(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	result, err := h.jobService.GetResult(jobID)
	if err != nil {
		writeError(w, statusFor(err), "Result not available", err)
		return
	}

	writeSuccess(w, "Result retrieved successfully", result)
}

// HealthCheck reports service liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, "Service is healthy", map[string]string{"status": "ok"})
}

func statusFor(err error) int {
	if errors.Is(err, service.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}
