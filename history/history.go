// Package history implements SPEC_FULL.md §12's supplemented feature: a
// small, optional run-history store. Each finished Aggregator run is
// persisted as one row (files, good, bad, totals, start/stop) to a local
// SQLite database, so a caller can compare "did this run get worse than
// last time" across invocations.
//
// Grounded on the gorm.Open(sqlite.Open(...))/AutoMigrate/Create shape: a
// small gorm model, a migration call, and a plain Create — nothing more
// elaborate than that.
package history

import (
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/FollowTheProcess/tapharness/aggregator"
)

// Run is one persisted row: the aggregator totals for a single harness
// invocation, plus wall-clock bounds and the overall one-line result.
type Run struct {
	ID         uint `gorm:"primaryKey"`
	StartedAt  time.Time
	StoppedAt  time.Time
	Files      int
	Good       int
	Bad        int
	TotalTests int
	Passed     int
	Failed     int
	Skipped    int
	Todo       int
	Bonus      int
	Result     string // "Result: PASS" / "FAIL" / "NOTESTS"
}

// Store wraps a gorm.DB connection to the history database.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if necessary) a SQLite database at path and ensures
// the Run table exists.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Run{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Record persists one finished Aggregator run. aggregator.Aggregator keeps
// no files or good/bad counters, so Record derives them from agg's
// per-test summaries (a test is bad if it HasProblems, good otherwise);
// the caller supplies only the run's start and stop times.
func (s *Store) Record(agg *aggregator.Aggregator, started, stopped time.Time) error {
	totals := agg.Totals()
	good, bad := 0, 0
	for _, name := range agg.Names() {
		summary, ok := agg.Get(name)
		if !ok {
			continue
		}
		if summary.HasProblems {
			bad++
		} else {
			good++
		}
	}

	run := Run{
		StartedAt:  started,
		StoppedAt:  stopped,
		Files:      len(agg.Names()),
		Good:       good,
		Bad:        bad,
		TotalTests: totals.TestsRun,
		Passed:     totals.Passed,
		Failed:     totals.Failed,
		Skipped:    totals.Skipped,
		Todo:       totals.Todo,
		Bonus:      totals.TodoPassed,
		Result:     agg.Description(),
	}
	return s.db.Create(&run).Error
}

// Last returns the n most recent runs, most recent first.
func (s *Store) Last(n int) ([]Run, error) {
	var runs []Run
	err := s.db.Order("id desc").Limit(n).Find(&runs).Error
	return runs, err
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
