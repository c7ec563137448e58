// Package importer converts the niche/NCES match CSV export into the JSON
// school dataset served by the finder.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/stwalsh4118/schoolfinder/internal/models"
)

// CSV columns read by the importer.
const (
	ColID            = "niche_id"
	ColName          = "name"
	ColAlternateName = "alternateName[0]"
	ColDescription   = "description"
	ColStreet        = "address.streetAddress"
	ColCity          = "address.addressLocality"
	ColState         = "address.addressRegion"
	ColPostalCode    = "address.postalCode"
	ColCounty        = "PSS_COUNTY_NAME"
	ColTelephone     = "telephone"
	ColWebsite       = "sameAs"
	ColLoGrade       = "LoGrade"
	ColHiGrade       = "HiGrade"
	ColEnrollment    = "PSS_ENROLL_T"
	ColRatingValue   = "aggregateRating.ratingValue"
	ColRatingCount   = "aggregateRating.reviewCount"
	ColImage         = "image"
)

// ErrMissingColumn is returned when the CSV header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Report summarises one import.
type Report struct {
	Rows     int
	Imported int
	// Unnamed counts rows dropped for having no school name.
	Unnamed int
	// States holds per-state counts, largest first.
	States []models.StateCount
}

// TopStates returns at most n entries of States.
func (r Report) TopStates(n int) []models.StateCount {
	if n < 0 || n > len(r.States) {
		n = len(r.States)
	}
	return r.States[:n]
}

// ImportFile reads the CSV at path.
func ImportFile(path string) ([]models.School, Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Report{}, fmt.Errorf("failed to open csv: %w", err)
	}
	defer f.Close()

	return Import(f)
}

// Import converts CSV rows into schools, in row order. Rows without a
// name are skipped. Slugs are made unique across the import by appending
// a counter.
func Import(r io.Reader) ([]models.School, Report, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, Report{}, fmt.Errorf("%w: %s (empty file)", ErrMissingColumn, ColName)
		}
		return nil, Report{}, fmt.Errorf("failed to read csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		// a UTF-8 BOM sticks to the first header cell
		cols[strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")] = i
	}
	if _, ok := cols[ColName]; !ok {
		return nil, Report{}, fmt.Errorf("%w: %s", ErrMissingColumn, ColName)
	}

	var (
		report    Report
		schools   []models.School
		slugsSeen = make(map[string]int)
		states    = make(map[string]int)
	)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, report, fmt.Errorf("failed to read csv row %d: %w", report.Rows+2, err)
		}
		report.Rows++

		row := csvRow{cols: cols, record: record}
		school, ok := buildSchool(row, slugsSeen)
		if !ok {
			report.Unnamed++
			continue
		}
		if school.Address.State != "" {
			states[school.Address.State]++
		}
		schools = append(schools, school)
	}

	if schools == nil {
		schools = []models.School{}
	}
	report.Imported = len(schools)
	report.States = sortStates(states)
	return schools, report, nil
}

type csvRow struct {
	cols   map[string]int
	record []string
}

// get returns the cleaned value of column name, or "" when absent.
func (r csvRow) get(name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(r.record) {
		return ""
	}
	return cleanValue(r.record[i])
}

// dict returns the first value of a "{1: value}" cell.
func (r csvRow) dict(name string) string {
	return parseDictValue(r.get(name))
}

func buildSchool(row csvRow, slugsSeen map[string]int) (models.School, bool) {
	name := row.get(ColName)
	if name == "" {
		return models.School{}, false
	}
	city := row.get(ColCity)
	state := row.get(ColState)

	school := models.School{
		ID:            models.SchoolID(row.get(ColID)),
		Name:          name,
		Slug:          uniqueSlug(schoolSlug(name, city, state), slugsSeen),
		AlternateName: optional(row.get(ColAlternateName)),
		Description:   optional(row.get(ColDescription)),
		Address: models.Address{
			Street:     row.get(ColStreet),
			City:       city,
			State:      state,
			PostalCode: row.get(ColPostalCode),
			County:     row.dict(ColCounty),
		},
		Telephone:       optional(row.get(ColTelephone)),
		Website:         optional(row.get(ColWebsite)),
		GradeRange:      GradeRange(row.dict(ColLoGrade), row.dict(ColHiGrade)),
		TotalEnrollment: parseInt(row.dict(ColEnrollment)),
		Image:           optional(row.get(ColImage)),
	}

	if value := parseFloat(row.get(ColRatingValue)); value != nil {
		school.Rating = &models.Rating{
			Value: *value,
			Count: parseInt(row.get(ColRatingCount)),
		}
	}

	return school, true
}

func sortStates(counts map[string]int) []models.StateCount {
	states := make([]models.StateCount, 0, len(counts))
	for code, n := range counts {
		states = append(states, models.StateCount{Code: code, Count: n})
	}
	sort.Slice(states, func(i, j int) bool {
		if states[i].Count != states[j].Count {
			return states[i].Count > states[j].Count
		}
		return states[i].Code < states[j].Code
	})
	return states
}

// cleanValue trims v and maps empty and "nan" cells to "".
func cleanValue(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "nan") {
		return ""
	}
	return v
}

// parseDictValue unwraps single-entry dictionary literals such as
// "{1: 3}" or "{1: 'Franklin'}". Other values are returned cleaned.
func parseDictValue(v string) string {
	if !strings.HasPrefix(v, "{") || !strings.HasSuffix(v, "}") {
		return cleanValue(v)
	}
	inner := strings.TrimSpace(v[1 : len(v)-1])
	if inner == "" {
		return ""
	}
	_, value, found := strings.Cut(inner, ":")
	if !found {
		return cleanValue(inner)
	}
	value = strings.TrimSpace(value)
	// only the first entry counts
	if len(value) > 0 && value[0] != '\'' && value[0] != '"' {
		value, _, _ = strings.Cut(value, ",")
	}
	return cleanValue(unquote(strings.TrimSpace(value)))
}

func unquote(v string) string {
	if len(v) >= 2 {
		if (v[0] == '\'' && v[len(v)-1] == '\'') || (v[0] == '"' && v[len(v)-1] == '"') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func parseInt(v string) *int {
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	n := int(f)
	return &n
}

func parseFloat(v string) *float64 {
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	f = math.Round(f*100) / 100
	return &f
}
