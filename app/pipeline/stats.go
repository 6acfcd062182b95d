package pipeline

import (
	"fmt"
	"strings"
	"sync"

	"github.com/openchess/tourmap/app/database"
)

// RunStats aggregates counters across region workers. All mutation goes
// through the mutex; workers share one instance per run.
type RunStats struct {
	mu sync.Mutex

	regions    int
	listings   int
	written    int
	errors     int
	shortfalls []string
	budgetHit  bool
}

func NewRunStats() *RunStats {
	return &RunStats{}
}

func (s *RunStats) RegionProcessed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regions++
}

func (s *RunStats) AddListings(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings += n
}

func (s *RunStats) AddWritten() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.written++
}

func (s *RunStats) AddError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors++
}

// AddShortfall records a region that yielded fewer listings than its
// target. A shortfall is operational signal, not an error.
func (s *RunStats) AddShortfall(region string, got, want int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shortfalls = append(s.shortfalls, fmt.Sprintf("%s %d/%d", region, got, want))
}

func (s *RunStats) MarkBudgetExceeded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgetHit = true
}

func (s *RunStats) ListingsFound() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listings
}

func (s *RunStats) Errors() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errors
}

func (s *RunStats) Counters() database.RunCounters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return database.RunCounters{
		RegionsProcessed:   s.regions,
		ListingsFound:      s.listings,
		TournamentsWritten: s.written,
		Errors:             s.errors,
	}
}

// Note summarizes the run for the ledger's free-text field.
func (s *RunStats) Note() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var parts []string
	if s.budgetHit {
		parts = append(parts, "wall-clock budget exceeded, partial coverage")
	}
	if len(s.shortfalls) > 0 {
		parts = append(parts, "shortfalls: "+strings.Join(s.shortfalls, ", "))
	}
	return strings.Join(parts, "; ")
}
