// Package track composes the element set parser, the SGP4 propagator, and
// the ground-track projector into a per-satellite tracking pipeline.
//
// The pipeline is fail-fast: the first instant that cannot be propagated
// aborts the whole track. Callers needing partial results should call
// PointAt per instant themselves. Element staleness is a warning attached
// to the result, never a failure.
package track

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/groundtrack/groundtrack/internal/geo"
	"github.com/groundtrack/groundtrack/internal/sgp4"
	"github.com/groundtrack/groundtrack/internal/tle"
)

// DefaultStaleAfter is the element age past which tracks are flagged as
// computed from stale elements. TLE accuracy degrades over days; a week is
// the customary trust horizon.
const DefaultStaleAfter = 7 * 24 * time.Hour

// Config holds pipeline configuration.
type Config struct {
	Workers    int           // parallel fan-out across instants; <= 1 is sequential
	StaleAfter time.Duration // staleness threshold; 0 means DefaultStaleAfter
}

// StaleElementsWarning flags a track computed from an element set older
// than the configured threshold. Informational, not an error.
type StaleElementsWarning struct {
	Elapsed   time.Duration
	Threshold time.Duration
}

func (w *StaleElementsWarning) String() string {
	return fmt.Sprintf("elements are %.1f days old at the furthest requested instant (threshold %.1f days); positions are low-confidence",
		w.Elapsed.Hours()/24.0, w.Threshold.Hours()/24.0)
}

// Track is an ordered sequence of sub-satellite points, one per requested
// instant and in request order, plus display identity for the presentation
// layer.
type Track struct {
	Name          string
	CatalogNumber string
	Points        []geo.Point
	Stale         *StaleElementsWarning // nil when elements are fresh
}

// Tracker runs the propagate-then-project pipeline for one element set at
// a time. It holds no state between calls.
type Tracker struct {
	config Config
	logger *slog.Logger
}

// New creates a Tracker.
func New(config Config, logger *slog.Logger) *Tracker {
	if config.StaleAfter <= 0 {
		config.StaleAfter = DefaultStaleAfter
	}
	return &Tracker{config: config, logger: logger}
}

// Track propagates the element set to each instant in the given order and
// projects every state to its sub-satellite point. The output has exactly
// one point per instant, in input order. The first failing instant aborts
// the track and its error is returned.
func (t *Tracker) Track(ctx context.Context, els tle.ElementSet, instants []time.Time) (Track, error) {
	model, err := sgp4.NewModel(els)
	if err != nil {
		return Track{}, fmt.Errorf("initializing propagator for catalog %s: %w", els.CatalogNumber, err)
	}

	points := make([]geo.Point, len(instants))
	if t.config.Workers > 1 && len(instants) > 1 {
		if err := t.projectParallel(ctx, model, instants, points); err != nil {
			return Track{}, err
		}
	} else {
		for i, at := range instants {
			if err := ctx.Err(); err != nil {
				return Track{}, err
			}
			st, err := model.StateAt(at)
			if err != nil {
				return Track{}, fmt.Errorf("instant %d (%s): %w", i, at.UTC().Format(time.RFC3339), err)
			}
			points[i] = geo.Project(st)
		}
	}

	trk := Track{
		Name:          els.Name,
		CatalogNumber: els.CatalogNumber,
		Points:        points,
		Stale:         staleness(els.Epoch, instants, t.config.StaleAfter),
	}
	if trk.Stale != nil {
		t.logger.Warn("track computed from stale elements",
			"catalog_number", els.CatalogNumber,
			"elapsed_days", trk.Stale.Elapsed.Hours()/24.0,
		)
	}
	return trk, nil
}

// PointAt propagates and projects a single instant. Lower-level call for
// callers that want partial results across instants.
func (t *Tracker) PointAt(els tle.ElementSet, at time.Time) (geo.Point, error) {
	model, err := sgp4.NewModel(els)
	if err != nil {
		return geo.Point{}, fmt.Errorf("initializing propagator for catalog %s: %w", els.CatalogNumber, err)
	}
	st, err := model.StateAt(at)
	if err != nil {
		return geo.Point{}, err
	}
	return geo.Project(st), nil
}

// staleness returns a warning when the furthest requested instant is more
// than threshold away from the element epoch, in either direction.
func staleness(epoch time.Time, instants []time.Time, threshold time.Duration) *StaleElementsWarning {
	var maxElapsed time.Duration
	for _, at := range instants {
		elapsed := at.Sub(epoch)
		if elapsed < 0 {
			elapsed = -elapsed
		}
		if elapsed > maxElapsed {
			maxElapsed = elapsed
		}
	}
	if maxElapsed <= threshold {
		return nil
	}
	return &StaleElementsWarning{Elapsed: maxElapsed, Threshold: threshold}
}
