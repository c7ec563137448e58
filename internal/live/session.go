package live

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/stwalsh4118/schoolfinder/internal/models"
	"github.com/stwalsh4118/schoolfinder/internal/search"
)

// DefaultMinQueryLength is the shortest non-empty name query that triggers
// a search.
const DefaultMinQueryLength = 2

// ShouldQuery reports whether a name query is long enough to search with
// the default threshold. An empty query always qualifies because it clears
// the name filter.
func ShouldQuery(q string) bool {
	return MeetsThreshold(q, DefaultMinQueryLength)
}

// MeetsThreshold reports whether the trimmed query is empty or has at
// least min runes.
func MeetsThreshold(q string, min int) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(q))
	return n == 0 || n >= min
}

// Searcher is the part of the school service a Session needs.
type Searcher interface {
	Search(ctx context.Context, criteria models.Criteria) ([]models.School, error)
}

// Result is one completed search of a Session.
type Result struct {
	Criteria models.Criteria
	// Schools holds at most the display cap of matches.
	Schools []models.School
	// Total is the number of matches before capping.
	Total int
	Err   error
}

// Options tunes a Session. Zero values pick the defaults.
type Options struct {
	Window         time.Duration
	MinQueryLength int
	DisplayCap     int
}

// Session holds the filter state of one interactive user. Name input is
// gated by the minimum length and debounced; state and postal code
// changes search immediately. Results are delivered to the callback in
// the order searches complete, and a result is dropped when a newer
// search has already been delivered.
type Session struct {
	ctx      context.Context
	searcher Searcher
	onResult func(Result)
	debounce *Debouncer
	minLen   int
	cap      int

	mu       sync.Mutex
	criteria models.Criteria
	seq      uint64

	// serializes callbacks
	deliverMu sync.Mutex
	delivered uint64
	closed    bool
}

// NewSession creates a Session. onResult is called from the caller's
// goroutine for immediate searches and from a timer goroutine for
// debounced ones, never concurrently. It must not call back into the
// Session's setters.
func NewSession(ctx context.Context, searcher Searcher, onResult func(Result), opts Options) *Session {
	if opts.MinQueryLength <= 0 {
		opts.MinQueryLength = DefaultMinQueryLength
	}
	return &Session{
		ctx:      ctx,
		searcher: searcher,
		onResult: onResult,
		debounce: NewDebouncer(opts.Window),
		minLen:   opts.MinQueryLength,
		cap:      opts.DisplayCap,
	}
}

// Criteria returns the filters currently in effect.
func (s *Session) Criteria() models.Criteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.criteria
}

// SetNameQuery records new name input. Every call cancels a pending name
// search. Input below the threshold leaves the previous query in effect
// and schedules nothing; otherwise a search is scheduled after the
// debounce window.
func (s *Session) SetNameQuery(q string) bool {
	if !MeetsThreshold(q, s.minLen) {
		s.debounce.Stop()
		return false
	}

	s.mu.Lock()
	s.criteria.NameQuery = strings.TrimSpace(q)
	s.mu.Unlock()

	s.debounce.Trigger(s.run)
	return true
}

// SetState changes the state filter and searches immediately.
func (s *Session) SetState(state string) {
	s.mu.Lock()
	s.criteria.State = state
	s.mu.Unlock()
	s.run()
}

// SetPostalCode changes the postal code prefix and searches immediately.
func (s *Session) SetPostalCode(prefix string) {
	s.mu.Lock()
	s.criteria.PostalCodePrefix = prefix
	s.mu.Unlock()
	s.run()
}

// Flush runs a pending debounced search now.
func (s *Session) Flush() {
	if s.debounce.Cancel() {
		s.run()
	}
}

// Close cancels any pending search. No result is delivered after Close
// returns.
func (s *Session) Close() {
	s.debounce.Stop()

	s.deliverMu.Lock()
	s.closed = true
	s.deliverMu.Unlock()
}

func (s *Session) run() {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	criteria := s.criteria.Normalize()
	s.mu.Unlock()

	if err := s.ctx.Err(); err != nil {
		return
	}

	res := Result{Criteria: criteria}
	schools, err := s.searcher.Search(s.ctx, criteria)
	if err != nil {
		res.Err = err
	} else {
		page := search.Cap(schools, s.cap)
		res.Schools = page.Schools
		res.Total = page.Total
	}

	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	if s.closed || seq < s.delivered {
		return
	}
	s.delivered = seq
	s.onResult(res)
}
