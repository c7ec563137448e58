package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/stwalsh4118/schoolfinder/internal/logger"
	"github.com/stwalsh4118/schoolfinder/internal/models"
	"github.com/stwalsh4118/schoolfinder/internal/repository"
	"github.com/stwalsh4118/schoolfinder/internal/search"
)

// Service-level errors
var (
	ErrDatasetNotReady    = errors.New("school dataset is still loading")
	ErrDatasetUnavailable = errors.New("school dataset is unavailable")
	ErrSchoolNotFound     = errors.New("school not found")
)

// DatasetState is the lifecycle stage of the school dataset.
type DatasetState string

const (
	StateNotReady DatasetState = "not_ready"
	StateReady    DatasetState = "ready"
	StateFailed   DatasetState = "failed"
)

// Status is a snapshot of the dataset lifecycle.
type Status struct {
	State    DatasetState `json:"state"`
	Origin   string       `json:"origin,omitempty"`
	Schools  int          `json:"schools"`
	Skipped  int          `json:"skipped"`
	LoadedAt *time.Time   `json:"loaded_at,omitempty"`
	Error    string       `json:"-"`
}

// SchoolService defines the interface for school directory operations.
type SchoolService interface {
	// Load fetches the dataset and builds the search index. Only the first
	// call does any work; later calls return its result. A failed load is
	// never retried.
	Load(ctx context.Context) error

	// Search returns the schools matching criteria in dataset order.
	// Returns ErrDatasetNotReady before Load completes and
	// ErrDatasetUnavailable after a failed load.
	Search(ctx context.Context, criteria models.Criteria) ([]models.School, error)

	// GetSchool returns ErrSchoolNotFound if no school has the id.
	GetSchool(ctx context.Context, id models.SchoolID) (*models.School, error)

	// GetSchoolBySlug returns ErrSchoolNotFound if no school has the slug.
	GetSchoolBySlug(ctx context.Context, slug string) (*models.School, error)

	// ListSchools returns the full collection in dataset order.
	ListSchools(ctx context.Context) ([]models.School, error)

	// States returns per-state school counts sorted by state code.
	States(ctx context.Context) ([]models.StateCount, error)

	Status() Status
}

// schoolService is the concrete implementation of SchoolService.
type schoolService struct {
	source repository.SchoolSource
	log    *logger.Logger

	once    sync.Once
	loadErr error

	mu       sync.RWMutex
	state    DatasetState
	index    *search.Index
	origin   string
	skipped  int
	loadedAt time.Time
	failure  error
}

// NewSchoolService creates a new instance of SchoolService.
func NewSchoolService(source repository.SchoolSource, log *logger.Logger) SchoolService {
	return &schoolService{
		source: source,
		log:    log,
		state:  StateNotReady,
	}
}

// Load runs the dataset fetch exactly once.
func (s *schoolService) Load(ctx context.Context) error {
	s.once.Do(func() {
		s.loadErr = s.load(ctx)
	})
	return s.loadErr
}

func (s *schoolService) load(ctx context.Context) error {
	start := time.Now()
	s.log.Info("Loading school dataset", nil)

	ds, err := s.source.Fetch(ctx)
	if err != nil {
		s.log.Error("Failed to load school dataset", err, map[string]interface{}{
			"duration_ms": time.Since(start).Milliseconds(),
		})
		s.mu.Lock()
		s.state = StateFailed
		s.failure = err
		s.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrDatasetUnavailable, err)
	}

	idx, report := search.New(ds.Schools)
	skipped := report.Skipped() + ds.Rejected

	if skipped > 0 {
		s.log.Warn("Skipped malformed school records", map[string]interface{}{
			"undecodable": ds.Rejected,
			"malformed":   report.Malformed,
			"duplicates":  report.Duplicates,
		})
	}

	s.mu.Lock()
	s.state = StateReady
	s.index = idx
	s.origin = ds.Origin
	s.skipped = skipped
	s.loadedAt = time.Now()
	s.mu.Unlock()

	s.log.Info("School dataset loaded", map[string]interface{}{
		"origin":      ds.Origin,
		"schools":     report.Indexed,
		"skipped":     skipped,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

// ready returns the index, or the error matching the current state.
func (s *schoolService) ready() (*search.Index, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch s.state {
	case StateReady:
		return s.index, nil
	case StateFailed:
		return nil, ErrDatasetUnavailable
	default:
		return nil, ErrDatasetNotReady
	}
}

// Search filters the dataset with criteria.
func (s *schoolService) Search(ctx context.Context, criteria models.Criteria) ([]models.School, error) {
	idx, err := s.ready()
	if err != nil {
		return nil, err
	}

	results := idx.Search(criteria)

	s.log.Debug("Searched schools", map[string]interface{}{
		"q":           criteria.NameQuery,
		"state":       criteria.State,
		"postal_code": criteria.PostalCodePrefix,
		"count":       len(results),
	})

	return results, nil
}

// GetSchool looks a school up by id.
func (s *schoolService) GetSchool(ctx context.Context, id models.SchoolID) (*models.School, error) {
	idx, err := s.ready()
	if err != nil {
		return nil, err
	}

	school, ok := idx.ByID(models.SchoolID(strings.TrimSpace(id.String())))
	if !ok {
		s.log.Debug("No school found for id", map[string]interface{}{
			"id": id,
		})
		return nil, ErrSchoolNotFound
	}
	return &school, nil
}

// GetSchoolBySlug looks a school up by its URL slug.
func (s *schoolService) GetSchoolBySlug(ctx context.Context, slug string) (*models.School, error) {
	idx, err := s.ready()
	if err != nil {
		return nil, err
	}

	school, ok := idx.BySlug(strings.TrimSpace(slug))
	if !ok {
		s.log.Debug("No school found for slug", map[string]interface{}{
			"slug": slug,
		})
		return nil, ErrSchoolNotFound
	}
	return &school, nil
}

// ListSchools returns every indexed school.
func (s *schoolService) ListSchools(ctx context.Context) ([]models.School, error) {
	idx, err := s.ready()
	if err != nil {
		return nil, err
	}
	return idx.All(), nil
}

// States returns the per-state counts of the dataset.
func (s *schoolService) States(ctx context.Context) ([]models.StateCount, error) {
	idx, err := s.ready()
	if err != nil {
		return nil, err
	}
	return idx.States(), nil
}

// Status reports the dataset lifecycle for health checks.
func (s *schoolService) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		State:   s.state,
		Origin:  s.origin,
		Schools: s.index.Len(),
		Skipped: s.skipped,
	}
	if !s.loadedAt.IsZero() {
		loadedAt := s.loadedAt
		st.LoadedAt = &loadedAt
	}
	if s.failure != nil {
		st.Error = s.failure.Error()
	}
	return st
}
