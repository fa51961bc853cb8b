// Package forkpool implements the "fork-and-join" execution strategy: run
// each test's Parser to completion on a worker from a bounded pool and
// collect the finished summaries in completion order.
//
// One goroutine per job, at most limit of them running at once, and a
// results channel drained by Run, with the worker-pool bookkeeping handled
// by golang.org/x/sync/errgroup + SetLimit rather than a hand-rolled
// WaitGroup-plus-error-slice.
package forkpool

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/FollowTheProcess/tapharness/parser"
)

// Job is one unit of work: a name (for aggregation) and a thunk that builds
// the Parser to run. The thunk, not a ready-made Parser, is passed in
// because building a Parser may itself involve spawning a child process,
// and that work needs to happen on the worker, not the caller.
type Job struct {
	Name  string
	Stash any
	Build func() (*parser.Parser, error)
	// OnResult, if set, is called on the worker goroutine for every Result
	// the Parser produces, in order, before the worker moves on to the
	// next line. Run itself keeps nothing but the finished Parser, so a
	// caller that needs the Results (the harness collects them for its
	// Sessions) gathers them here.
	OnResult func(parser.Result)
}

// Summary is one finished Job's outcome.
type Summary struct {
	Name   string
	Stash  any
	Parser *parser.Parser
	Err    error
}

// Run drains jobs across at most limit concurrent workers, returning
// summaries in completion order: full parallel execution, so the order of
// completion is arbitrary. Each worker drives its Parser's Next() loop
// fully, forwarding each Result to job.OnResult as it's produced, before
// returning its Summary; per-parser state is never shared across workers.
func Run(ctx context.Context, jobs []Job, limit int) []Summary {
	results := make(chan Summary, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, job := range jobs {
		job := job
		g.Go(func() error {
			p, err := job.Build()
			if err != nil {
				results <- Summary{Name: job.Name, Stash: job.Stash, Err: err}
				return nil
			}
			for {
				result, ok := p.Next()
				if !ok {
					break
				}
				if job.OnResult != nil {
					job.OnResult(result)
				}
				select {
				case <-ctx.Done():
					results <- Summary{Name: job.Name, Stash: job.Stash, Parser: p, Err: ctx.Err()}
					return nil
				default:
				}
			}
			results <- Summary{Name: job.Name, Stash: job.Stash, Parser: p}
			return nil
		})
	}

	go func() {
		g.Wait()
		close(results)
	}()

	summaries := make([]Summary, 0, len(jobs))
	for s := range results {
		summaries = append(summaries, s)
	}
	return summaries
}
