package search

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/schoolfinder/internal/models"
)

func school(id, name, city, state, zip string) models.School {
	return models.School{
		ID:   models.SchoolID(id),
		Name: name,
		Slug: strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		Address: models.Address{
			City:       city,
			State:      state,
			PostalCode: zip,
		},
	}
}

func fixture() []models.School {
	return []models.School{
		school("1", "Lincoln Academy", "Columbus", "OH", "43215"),
		school("2", "St. Mary School", "Boston", "MA", "02134"),
		school("3", "Lincoln Christian School", "Tulsa", "OK", "74101"),
		school("4", "Harbor Day School", "Lincoln", "NE", "68501"),
		school("5", "Grace Prep", "New York", "NY", "10021"),
		school("6", "Columbus Montessori", "Dayton", "OH", "45402"),
		school("7", "Hillside School", "", "", ""),
	}
}

func ids(schools []models.School) []string {
	out := make([]string, 0, len(schools))
	for _, s := range schools {
		out = append(out, s.ID.String())
	}
	return out
}

func TestNew_SkipsMalformedAndDuplicates(t *testing.T) {
	records := []models.School{
		school("1", "Lincoln Academy", "Columbus", "OH", "43215"),
		{ID: "", Name: "No ID School"},
		{ID: "9", Name: ""},
		school("1", "Duplicate Lincoln", "Columbus", "OH", "43215"),
		school("2", "Grace Prep", "New York", "NY", "10021"),
	}

	idx, report := New(records)

	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, 2, report.Indexed)
	assert.Equal(t, 2, report.Malformed)
	assert.Equal(t, 1, report.Duplicates)
	assert.Equal(t, 3, report.Skipped())

	first, ok := idx.ByID("1")
	require.True(t, ok)
	assert.Equal(t, "Lincoln Academy", first.Name, "first record with a given id wins")
}

func TestNew_EmptyDataset(t *testing.T) {
	idx, report := New(nil)

	assert.Equal(t, 0, idx.Len())
	assert.Equal(t, 0, report.Skipped())

	results := idx.Search(models.Criteria{NameQuery: "lincoln"})
	assert.NotNil(t, results)
	assert.Empty(t, results)

	assert.Empty(t, idx.Search(models.Criteria{}))
	assert.Empty(t, idx.States())
}

func TestSearch_EmptyCriteriaReturnsFullCollection(t *testing.T) {
	idx, _ := New(fixture())

	results := idx.Search(models.Criteria{})
	assert.Equal(t, ids(fixture()), ids(results))

	results = idx.Search(models.Criteria{NameQuery: "   ", State: "any"})
	assert.Equal(t, ids(fixture()), ids(results))
}

func TestSearch_NameQuery(t *testing.T) {
	idx, _ := New(fixture())

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "matches name case-insensitively", query: "LINCOLN", want: []string{"1", "3", "4"}},
		{name: "matches city", query: "boston", want: []string{"2"}},
		{name: "matches inner substring", query: "ont", want: []string{"6"}},
		{name: "name or city", query: "columbus", want: []string{"1", "6"}},
		{name: "trims whitespace", query: "  grace ", want: []string{"5"}},
		{name: "no match", query: "zzz", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := idx.Search(models.Criteria{NameQuery: tt.query})
			assert.Equal(t, tt.want, ids(results))
		})
	}
}

func TestSearch_NameQueryMembership(t *testing.T) {
	records := fixture()
	idx, _ := New(records)

	// Every substring of a name or city must find its record.
	for _, rec := range records {
		for _, field := range []string{rec.Name, rec.Address.City} {
			if len(field) < 3 {
				continue
			}
			q := strings.ToUpper(field[1:3])
			results := idx.Search(models.Criteria{NameQuery: q})
			assert.Contains(t, ids(results), rec.ID.String(), "query %q should find %s", q, rec.Name)
		}
	}
}

func TestSearch_StateFilter(t *testing.T) {
	idx, _ := New(fixture())

	results := idx.Search(models.Criteria{State: "OH"})
	assert.Equal(t, []string{"1", "6"}, ids(results))
	for _, s := range results {
		assert.Equal(t, "OH", s.Address.State)
	}

	lower := idx.Search(models.Criteria{State: "oh"})
	assert.Equal(t, ids(results), ids(lower), "state comparison is case-insensitive")

	assert.Empty(t, idx.Search(models.Criteria{State: "O"}), "state must match exactly, not by prefix")
	assert.Empty(t, idx.Search(models.Criteria{State: "TX"}))
}

func TestSearch_PostalCodePrefix(t *testing.T) {
	idx, _ := New(fixture())

	t.Run("prefix matches", func(t *testing.T) {
		results := idx.Search(models.Criteria{PostalCodePrefix: "432"})
		assert.Equal(t, []string{"1"}, ids(results))
	})

	t.Run("excludes non-prefix", func(t *testing.T) {
		results := idx.Search(models.Criteria{PostalCodePrefix: "021"})
		assert.Equal(t, []string{"2"}, ids(results), "02134 matches, 10021 does not")
		for _, s := range results {
			assert.True(t, strings.HasPrefix(s.Address.PostalCode, "021"))
		}
	})

	t.Run("full code", func(t *testing.T) {
		results := idx.Search(models.Criteria{PostalCodePrefix: "43215"})
		assert.Equal(t, []string{"1"}, ids(results))
	})

	t.Run("schools without postal code never match", func(t *testing.T) {
		results := idx.Search(models.Criteria{PostalCodePrefix: "0"})
		assert.NotContains(t, ids(results), "7")
	})
}

func TestSearch_CriteriaAreConjunctive(t *testing.T) {
	idx, _ := New(fixture())

	results := idx.Search(models.Criteria{NameQuery: "lincoln", State: "OH"})
	assert.Equal(t, []string{"1"}, ids(results))

	results = idx.Search(models.Criteria{NameQuery: "columbus", State: "OH", PostalCodePrefix: "454"})
	assert.Equal(t, []string{"6"}, ids(results))

	results = idx.Search(models.Criteria{NameQuery: "lincoln", State: "MA"})
	assert.Empty(t, results)
}

func TestSearch_PreservesOrderAndDoesNotAlias(t *testing.T) {
	records := fixture()
	idx, _ := New(records)

	results := idx.Search(models.Criteria{NameQuery: "school"})
	require.NotEmpty(t, results)

	// results must be a subsequence of the input order
	pos := -1
	for _, r := range results {
		next := -1
		for i := pos + 1; i < len(records); i++ {
			if records[i].ID == r.ID {
				next = i
				break
			}
		}
		require.NotEqual(t, -1, next, "result %s out of order", r.ID)
		pos = next
	}

	results[0].Name = "Mutated"
	again := idx.Search(models.Criteria{NameQuery: "school"})
	assert.NotEqual(t, "Mutated", again[0].Name, "search results must not alias index storage")
}

func TestSearch_IsRepeatable(t *testing.T) {
	idx, _ := New(fixture())

	narrow := idx.Search(models.Criteria{State: "NE"})
	assert.Len(t, narrow, 1)

	// a later search runs over the original collection, not the previous subset
	broad := idx.Search(models.Criteria{NameQuery: "lincoln"})
	assert.Len(t, broad, 3)
}

func TestSearch_BroadStateFilterWithDisplayCap(t *testing.T) {
	records := make([]models.School, 0, 200)
	for i := 0; i < 150; i++ {
		records = append(records, school(fmt.Sprintf("oh-%d", i), fmt.Sprintf("Ohio School %d", i), "Columbus", "OH", "43215"))
	}
	for i := 0; i < 50; i++ {
		records = append(records, school(fmt.Sprintf("tx-%d", i), fmt.Sprintf("Texas School %d", i), "Austin", "TX", "73301"))
	}
	idx, _ := New(records)

	results := idx.Search(models.Criteria{State: "OH"})
	require.Len(t, results, 150, "search itself never truncates")

	page := Cap(results, DefaultDisplayCap)
	assert.Equal(t, 150, page.Total)
	assert.Equal(t, 100, page.Displayed)
	assert.Len(t, page.Schools, 100)
	assert.True(t, page.Truncated())
	assert.Equal(t, "oh-0", page.Schools[0].ID.String())
	assert.Equal(t, "oh-99", page.Schools[99].ID.String())
}

func TestLookups(t *testing.T) {
	idx, _ := New(fixture())

	s, ok := idx.ByID("3")
	require.True(t, ok)
	assert.Equal(t, "Lincoln Christian School", s.Name)

	_, ok = idx.ByID("404")
	assert.False(t, ok)

	s, ok = idx.BySlug("grace-prep")
	require.True(t, ok)
	assert.Equal(t, models.SchoolID("5"), s.ID)

	_, ok = idx.BySlug("")
	assert.False(t, ok)
	_, ok = idx.BySlug("missing")
	assert.False(t, ok)
}

func TestStates(t *testing.T) {
	idx, _ := New(fixture())

	states := idx.States()
	assert.Equal(t, []models.StateCount{
		{Code: "MA", Count: 1},
		{Code: "NE", Count: 1},
		{Code: "NY", Count: 1},
		{Code: "OH", Count: 2},
		{Code: "OK", Count: 1},
	}, states)
}

func TestNilIndex(t *testing.T) {
	var idx *Index

	assert.Equal(t, 0, idx.Len())
	assert.Empty(t, idx.Search(models.Criteria{}))
	assert.Empty(t, idx.All())
	assert.Empty(t, idx.States())
	_, ok := idx.ByID("1")
	assert.False(t, ok)
}
