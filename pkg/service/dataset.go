package service

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/graphmine/community-detection/pkg/metrics"
	"github.com/graphmine/community-detection/pkg/parser"
)

// Dataset is an uploaded edge list held in memory.
type Dataset struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	NumNodes  int       `json:"num_nodes"`
	NumEdges  int       `json:"num_edges"`
	CreatedAt time.Time `json:"created_at"`

	edgeList *parser.EdgeList
}

// EdgeList returns the parsed edge list backing the dataset.
func (d *Dataset) EdgeList() *parser.EdgeList {
	return d.edgeList
}

// DatasetService stores uploaded datasets in memory.
type DatasetService struct {
	mu       sync.RWMutex
	datasets map[string]*Dataset
	metrics  *metrics.Registry
}

// NewDatasetService creates an empty dataset store.
func NewDatasetService(m *metrics.Registry) *DatasetService {
	return &DatasetService{
		datasets: make(map[string]*Dataset),
		metrics:  m,
	}
}

// Upload parses an edge list and stores it under a fresh dataset ID.
func (s *DatasetService) Upload(name string, r io.Reader) (*Dataset, error) {
	el, err := parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}

	dataset := &Dataset{
		ID:        uuid.New().String(),
		Name:      name,
		NumNodes:  el.NumNodes,
		NumEdges:  len(el.Edges),
		CreatedAt: time.Now(),
		edgeList:  el,
	}

	s.mu.Lock()
	s.datasets[dataset.ID] = dataset
	count := len(s.datasets)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.DatasetsLoaded.Set(float64(count))
	}

	log.Info().
		Str("dataset_id", dataset.ID).
		Str("name", name).
		Int("nodes", dataset.NumNodes).
		Int("edges", dataset.NumEdges).
		Msg("dataset uploaded")

	return dataset, nil
}

// Get retrieves a dataset by ID.
func (s *DatasetService) Get(id string) (*Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dataset, exists := s.datasets[id]
	if !exists {
		return nil, fmt.Errorf("dataset %s: %w", id, ErrNotFound)
	}
	return dataset, nil
}

// List returns all stored datasets.
func (s *DatasetService) List() []*Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*Dataset, 0, len(s.datasets))
	for _, d := range s.datasets {
		list = append(list, d)
	}
	return list
}

// Delete removes a dataset.
func (s *DatasetService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.datasets[id]; !exists {
		return fmt.Errorf("dataset %s: %w", id, ErrNotFound)
	}
	delete(s.datasets, id)

	if s.metrics != nil {
		s.metrics.DatasetsLoaded.Set(float64(len(s.datasets)))
	}
	return nil
}
