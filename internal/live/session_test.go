package live

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/schoolfinder/internal/models"
	"github.com/stwalsh4118/schoolfinder/internal/search"
	"go.uber.org/goleak"
)

type indexSearcher struct {
	idx *search.Index
	err error
}

func (s indexSearcher) Search(ctx context.Context, criteria models.Criteria) ([]models.School, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.idx.Search(criteria), nil
}

func newSearcher(schools ...models.School) indexSearcher {
	idx, _ := search.New(schools)
	return indexSearcher{idx: idx}
}

func sampleSchools() []models.School {
	return []models.School{
		{ID: "1", Name: "Lincoln Academy", Address: models.Address{City: "Columbus", State: "OH", PostalCode: "43215"}},
		{ID: "2", Name: "St. Mary School", Address: models.Address{City: "Boston", State: "MA", PostalCode: "02134"}},
		{ID: "3", Name: "Columbus Christian", Address: models.Address{City: "Columbus", State: "NE", PostalCode: "68601"}},
	}
}

func collect() (func(Result), chan Result) {
	ch := make(chan Result, 16)
	return func(r Result) { ch <- r }, ch
}

func waitResult(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(time.Second):
		require.FailNow(t, "timed out waiting for search result")
		return Result{}
	}
}

func assertNoResult(t *testing.T, ch <-chan Result) {
	t.Helper()
	select {
	case r := <-ch:
		assert.Failf(t, "unexpected result", "%+v", r.Criteria)
	case <-time.After(3 * testWindow):
	}
}

func TestShouldQuery(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{query: "", want: true},
		{query: "   ", want: true},
		{query: "a", want: false},
		{query: " a ", want: false},
		{query: "ab", want: true},
		{query: "日本", want: true},
		{query: "lincoln", want: true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.query), func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldQuery(tt.query))
		})
	}
}

func TestSession_NameQueryIsDebounced(t *testing.T) {
	defer goleak.VerifyNone(t)

	onResult, results := collect()
	s := NewSession(context.Background(), newSearcher(sampleSchools()...), onResult, Options{Window: testWindow})
	defer s.Close()

	for _, q := range []string{"co", "col", "colu", "columbus"} {
		assert.True(t, s.SetNameQuery(q))
	}

	r := waitResult(t, results)
	require.NoError(t, r.Err)
	assert.Equal(t, "columbus", r.Criteria.NameQuery)
	assert.Equal(t, 2, r.Total)
	assert.Len(t, r.Schools, 2)

	assertNoResult(t, results)
}

func TestSession_ShortQueryIsIgnored(t *testing.T) {
	defer goleak.VerifyNone(t)

	onResult, results := collect()
	s := NewSession(context.Background(), newSearcher(sampleSchools()...), onResult, Options{Window: testWindow})
	defer s.Close()

	assert.False(t, s.SetNameQuery("l"))
	assertNoResult(t, results)
	assert.Empty(t, s.Criteria().NameQuery)

	// clearing the query always searches
	assert.True(t, s.SetNameQuery(""))
	r := waitResult(t, results)
	assert.Equal(t, 3, r.Total)
}

func TestSession_ShortQueryCancelsPendingSearch(t *testing.T) {
	defer goleak.VerifyNone(t)

	onResult, results := collect()
	s := NewSession(context.Background(), newSearcher(sampleSchools()...), onResult, Options{Window: testWindow})
	defer s.Close()

	assert.True(t, s.SetNameQuery("lincoln"))
	assert.False(t, s.SetNameQuery("l"))

	assertNoResult(t, results)
}

func TestSession_StateAndPostalCodeSearchImmediately(t *testing.T) {
	defer goleak.VerifyNone(t)

	onResult, results := collect()
	s := NewSession(context.Background(), newSearcher(sampleSchools()...), onResult, Options{Window: time.Hour})
	defer s.Close()

	s.SetState("oh")
	require.Len(t, results, 1, "delivered before SetState returns")
	r := <-results
	assert.Equal(t, 1, r.Total)
	assert.Equal(t, models.SchoolID("1"), r.Schools[0].ID)

	s.SetState("any")
	s.SetPostalCode("021")
	require.Len(t, results, 2)
	<-results
	r = <-results
	assert.Equal(t, []models.SchoolID{"2"}, []models.SchoolID{r.Schools[0].ID})
	assert.Equal(t, models.Criteria{PostalCodePrefix: "021"}, r.Criteria)
}

func TestSession_Flush(t *testing.T) {
	defer goleak.VerifyNone(t)

	onResult, results := collect()
	s := NewSession(context.Background(), newSearcher(sampleSchools()...), onResult, Options{Window: time.Hour})
	defer s.Close()

	s.SetNameQuery("boston")
	assert.Empty(t, results)

	s.Flush()
	require.Len(t, results, 1)
	r := <-results
	assert.Equal(t, 1, r.Total)

	// nothing pending, nothing to flush
	s.Flush()
	assert.Empty(t, results)
}

func TestSession_FlushAfterTimerFired(t *testing.T) {
	defer goleak.VerifyNone(t)

	onResult, results := collect()
	s := NewSession(context.Background(), newSearcher(sampleSchools()...), onResult, Options{Window: testWindow})
	defer s.Close()

	s.SetNameQuery("boston")
	r := waitResult(t, results)
	assert.Equal(t, 1, r.Total)

	// the debounced search already ran, so there is nothing left to flush
	s.Flush()
	assertNoResult(t, results)
}

func TestSession_DisplayCap(t *testing.T) {
	defer goleak.VerifyNone(t)

	schools := make([]models.School, 150)
	for i := range schools {
		schools[i] = models.School{
			ID:      models.SchoolID(fmt.Sprintf("%d", i+1)),
			Name:    fmt.Sprintf("School %d", i+1),
			Address: models.Address{State: "OH"},
		}
	}

	onResult, results := collect()
	s := NewSession(context.Background(), newSearcher(schools...), onResult, Options{DisplayCap: 100})
	defer s.Close()

	s.SetState("OH")
	r := <-results
	assert.Equal(t, 150, r.Total)
	assert.Len(t, r.Schools, 100)
}

func TestSession_SearchError(t *testing.T) {
	defer goleak.VerifyNone(t)

	searchErr := errors.New("dataset unavailable")
	onResult, results := collect()
	s := NewSession(context.Background(), indexSearcher{err: searchErr}, onResult, Options{})
	defer s.Close()

	s.SetState("OH")
	r := <-results
	assert.ErrorIs(t, r.Err, searchErr)
	assert.Empty(t, r.Schools)
}

func TestSession_CancelledContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	onResult, results := collect()
	s := NewSession(ctx, newSearcher(sampleSchools()...), onResult, Options{})
	defer s.Close()

	s.SetState("OH")
	assert.Empty(t, results)
}

func TestSession_CloseCancelsPending(t *testing.T) {
	defer goleak.VerifyNone(t)

	onResult, results := collect()
	s := NewSession(context.Background(), newSearcher(sampleSchools()...), onResult, Options{Window: testWindow})

	s.SetNameQuery("lincoln")
	s.Close()

	assertNoResult(t, results)
}

func TestSession_NoResultsAfterClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	onResult, results := collect()
	s := NewSession(context.Background(), newSearcher(sampleSchools()...), onResult, Options{})
	s.Close()

	s.SetState("OH")
	assert.Empty(t, results)
}
