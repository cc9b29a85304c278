package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRoutes registers all API endpoints on the router.
func SetupRoutes(router *mux.Router, handlers *Handlers, metricsHandler http.Handler) {
	// API version prefix
	api := router.PathPrefix("/api/v1").Subrouter()

	// Dataset management endpoints
	datasets := api.PathPrefix("/datasets").Subrouter()
	datasets.HandleFunc("", handlers.ListDatasets).Methods("GET")
	datasets.HandleFunc("", handlers.UploadDataset).Methods("POST")
	datasets.HandleFunc("/{datasetId}", handlers.GetDataset).Methods("GET")
	datasets.HandleFunc("/{datasetId}", handlers.DeleteDataset).Methods("DELETE")

	// Clustering endpoints
	datasets.HandleFunc("/{datasetId}/clustering", handlers.StartClustering).Methods("POST")

	// Job management endpoints
	jobs := api.PathPrefix("/jobs").Subrouter()
	jobs.HandleFunc("/{jobId}", handlers.GetJob).Methods("GET")
	jobs.HandleFunc("/{jobId}/cancel", handlers.CancelJob).Methods("POST")
	jobs.HandleFunc("/{jobId}/result", handlers.GetJobResult).Methods("GET")

	// Health check endpoint
	api.HandleFunc("/health", handlers.HealthCheck).Methods("GET")

	// Prometheus metrics endpoint
	if metricsHandler != nil {
		router.Handle("/metrics", metricsHandler).Methods("GET")
	}
}
