package admin

import (
	"context"
	"sync"
	"time"

	"github.com/ateliercarvalho/atelier/pkg/logging"
)

// DefaultSearchDebounce is how long a query must stay unchanged before it runs.
const DefaultSearchDebounce = 500 * time.Millisecond

// CustomerSearcher runs one customer query. An empty filter lists everyone.
type CustomerSearcher interface {
	Search(ctx context.Context, filter string) ([]Customer, error)
}

// SearchResult is delivered for the latest query only.
type SearchResult struct {
	Seq       uint64     `json:"seq"`
	Query     string     `json:"query"`
	Customers []Customer `json:"customers"`
	Err       error      `json:"-"`
}

// Searcher debounces live customer search. Each Query supersedes the
// previous one: a pending query is dropped and a running one is cancelled,
// and results from superseded queries are never delivered.
type Searcher struct {
	source CustomerSearcher
	delay  time.Duration
	logger *logging.Logger

	mu      sync.Mutex
	seq     uint64
	timer   *time.Timer
	cancel  context.CancelFunc
	closed  bool
	results chan SearchResult
}

func NewSearcher(source CustomerSearcher, delay time.Duration, logger *logging.Logger) *Searcher {
	if delay <= 0 {
		delay = DefaultSearchDebounce
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Searcher{
		source:  source,
		delay:   delay,
		logger:  logger,
		results: make(chan SearchResult, 1),
	}
}

// Results yields the outcome of the newest query. The channel is closed by Close.
func (s *Searcher) Results() <-chan SearchResult {
	return s.results
}

// Query schedules q after the debounce delay and returns its sequence number.
func (s *Searcher) Query(ctx context.Context, q string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.seq
	}
	s.stopLocked()
	s.seq++
	seq := s.seq

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.timer = time.AfterFunc(s.delay, func() { s.run(runCtx, seq, q) })
	return seq
}

// Close stops pending work and closes Results.
func (s *Searcher) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopLocked()
	close(s.results)
}

func (s *Searcher) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Searcher) run(ctx context.Context, seq uint64, q string) {
	customers, err := s.source.Search(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || seq != s.seq {
		s.logger.Debug("dropping stale customer search", "seq", seq, "latest", s.seq)
		return
	}
	if err != nil {
		s.logger.Warn("customer search failed", "error", err)
	}
	res := SearchResult{Seq: seq, Query: q, Customers: customers, Err: err}
	select {
	case <-s.results:
	default:
	}
	s.results <- res
}
