package repository

import (
	"encoding/json"
	"io"

	"github.com/stwalsh4118/schoolfinder/internal/models"
)

// EncodeDataset writes schools as an indented JSON array without escaping
// HTML characters in names and descriptions.
func EncodeDataset(w io.Writer, schools []models.School) error {
	if schools == nil {
		schools = []models.School{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(schools)
}
