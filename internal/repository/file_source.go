package repository

import (
	"context"
	"fmt"
	"os"

	"github.com/stwalsh4118/schoolfinder/internal/models"
)

// fileSource reads the dataset from a JSON file on local disk.
type fileSource struct {
	path string
}

// NewFileSource creates a SchoolSource backed by the JSON file at path.
func NewFileSource(path string) SchoolSource {
	return &fileSource{path: path}
}

// Fetch opens and decodes the dataset file.
func (s *fileSource) Fetch(ctx context.Context) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", s.path, err)
	}
	defer f.Close()

	schools, rejected, err := DecodeDataset(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", s.path, err)
	}

	return &Dataset{Schools: schools, Rejected: rejected, Origin: "file:" + s.path}, nil
}

// WriteDataset writes schools to path as an indented JSON array.
func WriteDataset(path string, schools []models.School) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dataset %s: %w", path, err)
	}

	if err := EncodeDataset(f, schools); err != nil {
		f.Close()
		return fmt.Errorf("failed to write dataset %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close dataset %s: %w", path, err)
	}
	return nil
}
