package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/stwalsh4118/schoolfinder/internal/config"
	"github.com/stwalsh4118/schoolfinder/internal/database"
	"github.com/stwalsh4118/schoolfinder/internal/models"
)

// ErrInvalidDataset is returned when the payload is not a JSON array.
var ErrInvalidDataset = errors.New("dataset must be a JSON array of schools")

// Dataset is the result of one fetch of the school collection.
type Dataset struct {
	// Schools in source order.
	Schools []models.School
	// Rejected counts entries that could not be decoded at all.
	Rejected int
	// Origin describes where the dataset came from, for logging.
	Origin string
}

// SchoolSource fetches the full school collection. Implementations are
// called once per process; they do not cache or retry.
type SchoolSource interface {
	Fetch(ctx context.Context) (*Dataset, error)
}

// NewSource selects the dataset source configured in cfg. db is only
// used for the postgres source and may be nil otherwise.
func NewSource(cfg config.DatasetConfig, db *database.Database) (SchoolSource, error) {
	switch cfg.Source {
	case config.SourceFile:
		return NewFileSource(cfg.Path), nil
	case config.SourceHTTP:
		return NewHTTPSource(cfg.URL, nil), nil
	case config.SourcePostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres dataset source requires a database connection")
		}
		return NewPostgresSource(db), nil
	default:
		return nil, fmt.Errorf("unknown dataset source %q", cfg.Source)
	}
}

// DecodeDataset reads a JSON array of schools. Entries that are not valid
// school objects are counted as rejected instead of failing the whole load.
func DecodeDataset(r io.Reader) ([]models.School, int, error) {
	var raw []json.RawMessage
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, 0, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
		}
		return nil, 0, fmt.Errorf("failed to decode dataset: %w", err)
	}
	if raw == nil {
		// a literal null is not a collection
		return nil, 0, ErrInvalidDataset
	}

	schools := make([]models.School, 0, len(raw))
	rejected := 0
	for _, entry := range raw {
		if !bytes.HasPrefix(bytes.TrimSpace(entry), []byte("{")) {
			rejected++
			continue
		}
		var s models.School
		if err := json.Unmarshal(entry, &s); err != nil {
			rejected++
			continue
		}
		schools = append(schools, s)
	}

	return schools, rejected, nil
}
