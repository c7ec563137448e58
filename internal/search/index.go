// Package search holds the in-memory school index and its filter logic.
//
// An Index is built once from the full dataset and never mutated
// afterwards, so it is safe for concurrent readers. Every search runs
// over the original collection and returns matches in collection order.
package search

import (
	"sort"
	"strings"

	"github.com/stwalsh4118/schoolfinder/internal/models"
)

// BuildReport describes the records dropped while building an index.
type BuildReport struct {
	Indexed    int
	Malformed  int
	Duplicates int
}

// Skipped returns the total number of records that were not indexed.
func (r BuildReport) Skipped() int {
	return r.Malformed + r.Duplicates
}

// Index is the immutable school collection together with its lookup tables.
type Index struct {
	schools []models.School
	byID    map[models.SchoolID]int
	bySlug  map[string]int
	// folded name and city per school, aligned with schools
	names  []string
	cities []string
}

// New builds an index over records, keeping their order. Records without
// an id or name are skipped, as are records repeating an earlier id.
// An empty input yields a valid, empty index.
func New(records []models.School) (*Index, BuildReport) {
	idx := &Index{
		schools: make([]models.School, 0, len(records)),
		byID:    make(map[models.SchoolID]int, len(records)),
		bySlug:  make(map[string]int, len(records)),
		names:   make([]string, 0, len(records)),
		cities:  make([]string, 0, len(records)),
	}
	var report BuildReport

	for _, rec := range records {
		if !rec.Valid() {
			report.Malformed++
			continue
		}
		if _, dup := idx.byID[rec.ID]; dup {
			report.Duplicates++
			continue
		}

		pos := len(idx.schools)
		idx.schools = append(idx.schools, rec)
		idx.byID[rec.ID] = pos
		if rec.Slug != "" {
			if _, taken := idx.bySlug[rec.Slug]; !taken {
				idx.bySlug[rec.Slug] = pos
			}
		}
		idx.names = append(idx.names, strings.ToLower(rec.Name))
		idx.cities = append(idx.cities, strings.ToLower(rec.Address.City))
	}

	report.Indexed = len(idx.schools)
	return idx, report
}

// Len returns the number of indexed schools.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.schools)
}

// All returns a copy of the full collection in original order.
func (idx *Index) All() []models.School {
	if idx == nil {
		return []models.School{}
	}
	out := make([]models.School, len(idx.schools))
	copy(out, idx.schools)
	return out
}

// Search returns the schools matching every non-empty criterion, in
// collection order. Empty criteria match the whole collection.
// The result is never truncated and never aliases the index.
func (idx *Index) Search(criteria models.Criteria) []models.School {
	if idx == nil {
		return []models.School{}
	}

	c := criteria.Normalize()
	query := strings.ToLower(c.NameQuery)

	results := make([]models.School, 0)
	for i := range idx.schools {
		if query != "" && !strings.Contains(idx.names[i], query) && !strings.Contains(idx.cities[i], query) {
			continue
		}

		addr := &idx.schools[i].Address
		if c.State != "" && !strings.EqualFold(addr.State, c.State) {
			continue
		}
		if c.PostalCodePrefix != "" && !strings.HasPrefix(addr.PostalCode, c.PostalCodePrefix) {
			continue
		}

		results = append(results, idx.schools[i])
	}

	return results
}

// ByID looks up a school by its identifier.
func (idx *Index) ByID(id models.SchoolID) (models.School, bool) {
	if idx == nil {
		return models.School{}, false
	}
	pos, ok := idx.byID[id]
	if !ok {
		return models.School{}, false
	}
	return idx.schools[pos], true
}

// BySlug looks up a school by its URL slug. When two records share a
// slug the first one wins.
func (idx *Index) BySlug(slug string) (models.School, bool) {
	if idx == nil || slug == "" {
		return models.School{}, false
	}
	pos, ok := idx.bySlug[slug]
	if !ok {
		return models.School{}, false
	}
	return idx.schools[pos], true
}

// States returns the number of schools per state, sorted by state code.
// Schools without a state are not counted.
func (idx *Index) States() []models.StateCount {
	if idx == nil {
		return []models.StateCount{}
	}

	counts := make(map[string]int)
	for i := range idx.schools {
		if state := idx.schools[i].Address.State; state != "" {
			counts[state]++
		}
	}

	states := make([]models.StateCount, 0, len(counts))
	for code, n := range counts {
		states = append(states, models.StateCount{Code: code, Count: n})
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].Code < states[j].Code
	})
	return states
}
