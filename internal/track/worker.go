package track

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/groundtrack/groundtrack/internal/geo"
	"github.com/groundtrack/groundtrack/internal/sgp4"
)

// projectJob is a unit of work for the instant fan-out.
type projectJob struct {
	idx int
	at  time.Time
}

// projectResult carries the outcome for one instant back to its index slot.
type projectResult struct {
	idx   int
	point geo.Point
	err   error
	at    time.Time
}

// projectParallel propagates and projects the instants on a bounded worker
// pool. Results are written into points by input index, so output order
// always matches input order regardless of completion order. On failure
// the error for the earliest failing instant is returned, matching the
// sequential fail-fast behavior.
func (t *Tracker) projectParallel(ctx context.Context, model *sgp4.Model, instants []time.Time, points []geo.Point) error {
	workers := t.config.Workers
	if workers > len(instants) {
		workers = len(instants)
	}

	jobs := make(chan projectJob, workers*2)
	results := make(chan projectResult, workers*2)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				st, err := model.StateAt(job.at)
				res := projectResult{idx: job.idx, at: job.at, err: err}
				if err == nil {
					res.point = geo.Project(st)
				}
				select {
				case results <- res:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, at := range instants {
			select {
			case jobs <- projectJob{idx: i, at: at}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	firstErrIdx := -1
	var firstErr error
	var firstErrAt time.Time
	received := 0
	for res := range results {
		received++
		if res.err != nil {
			if firstErrIdx == -1 || res.idx < firstErrIdx {
				firstErrIdx = res.idx
				firstErr = res.err
				firstErrAt = res.at
			}
			continue
		}
		points[res.idx] = res.point
	}

	if firstErr != nil {
		return fmt.Errorf("instant %d (%s): %w", firstErrIdx, firstErrAt.UTC().Format(time.RFC3339), firstErr)
	}
	if received < len(instants) {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fmt.Errorf("computed %d of %d instants", received, len(instants))
	}
	return nil
}
