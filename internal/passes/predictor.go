// Package passes predicts satellite visibility passes over a ground
// observer by scanning propagated look angles for horizon crossings.
package passes

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/groundtrack/groundtrack/internal/geo"
	"github.com/groundtrack/groundtrack/internal/sgp4"
	"github.com/groundtrack/groundtrack/internal/tle"
	"github.com/groundtrack/groundtrack/internal/transform"
)

// TrackPoint is a sub-satellite position sampled during a pass, with the
// elevation seen from the observer at that instant.
type TrackPoint struct {
	geo.Point
	ElevationDeg float64 `json:"elevation"`
}

// Pass describes a single satellite pass over an observer location.
type Pass struct {
	StartTime        time.Time    `json:"start_time"`
	MaxElevationTime time.Time    `json:"max_elevation_time"`
	EndTime          time.Time    `json:"end_time"`
	DurationSeconds  float64      `json:"duration_seconds"`
	MaxElevation     float64      `json:"max_elevation"`
	AzimuthAtMax     float64      `json:"azimuth_at_max"`
	StartAzimuth     float64      `json:"start_azimuth"`
	EndAzimuth       float64      `json:"end_azimuth"`
	Track            []TrackPoint `json:"track"`
}

// SatellitePasses holds the predicted passes for one satellite.
type SatellitePasses struct {
	CatalogNumber string `json:"catalog_number"`
	Name          string `json:"name,omitempty"`
	Passes        []Pass `json:"passes"`
	Error         string `json:"error,omitempty"`
}

// Request holds the parameters for a pass prediction request.
type Request struct {
	Observer     transform.ObserverPosition
	Satellites   []tle.ElementSet
	Start        time.Time
	HorizonHours float64
	MinElevation float64 // degrees
	MaxPasses    int
}

const (
	coarseStepSec = 30 // seconds between coarse scan steps
	fineStepSec   = 1  // seconds between fine scan steps
	trackStepSec  = 10 // seconds between sampled track points
	minPassDur    = 10 * time.Second
)

// Predict computes passes for every satellite in the request. Each
// satellite is processed in its own goroutine, bounded by a semaphore,
// and results keep request order.
func Predict(ctx context.Context, req Request) []SatellitePasses {
	results := make([]SatellitePasses, len(req.Satellites))
	sem := make(chan struct{}, runtime.NumCPU())
	var wg sync.WaitGroup

	for i, els := range req.Satellites {
		wg.Add(1)
		go func(idx int, e tle.ElementSet) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[idx] = SatellitePasses{
					CatalogNumber: e.CatalogNumber,
					Name:          e.Name,
					Error:         "cancelled",
				}
				return
			}

			passes, err := predictSatellite(ctx, req, e)
			if err != nil {
				results[idx] = SatellitePasses{
					CatalogNumber: e.CatalogNumber,
					Name:          e.Name,
					Error:         err.Error(),
				}
				return
			}
			results[idx] = SatellitePasses{
				CatalogNumber: e.CatalogNumber,
				Name:          e.Name,
				Passes:        passes,
			}
		}(i, els)
	}

	wg.Wait()
	return results
}

// predictSatellite finds all passes for a single satellite.
func predictSatellite(ctx context.Context, req Request, els tle.ElementSet) ([]Pass, error) {
	model, err := sgp4.NewModel(els)
	if err != nil {
		return nil, fmt.Errorf("sgp4 init: %w", err)
	}

	end := req.Start.Add(time.Duration(req.HorizonHours * float64(time.Hour)))
	var passes []Pass

	// Coarse scan: step through the time range looking for elevation > 0.
	t := req.Start
	for t.Before(end) && len(passes) < req.MaxPasses {
		if ctx.Err() != nil {
			return passes, nil
		}

		el, _, _, err := elevationAt(model, req.Observer, t)
		if err != nil {
			t = t.Add(coarseStepSec * time.Second)
			continue
		}

		if el > 0 {
			// Candidate window, fine scan to find the full pass.
			pass, windowEnd := refinePass(ctx, model, req.Observer, t, req.Start, end, req.MinElevation)
			if pass != nil && pass.EndTime.Sub(pass.StartTime) >= minPassDur {
				passes = append(passes, *pass)
			}
			// Jump past the end of this window.
			t = windowEnd.Add(coarseStepSec * time.Second)
		} else {
			t = t.Add(coarseStepSec * time.Second)
		}
	}

	return passes, nil
}

// refinePass does a fine-grained scan around a coarse-detected
// above-horizon region. It backs up to find the actual rise, then scans
// forward to find set. Returns the pass and the time the window ends.
func refinePass(ctx context.Context, model *sgp4.Model, obs transform.ObserverPosition, coarseHit, windowStart, windowEnd time.Time, minElev float64) (*Pass, time.Time) {
	searchStart := coarseHit.Add(-coarseStepSec * time.Second)
	if searchStart.Before(windowStart) {
		searchStart = windowStart
	}

	var (
		riseTime  time.Time
		setTime   time.Time
		riseAz    float64
		setAz     float64
		maxEl     float64
		maxElTime time.Time
		maxElAz   float64
		wasAbove  bool
		foundRise bool
		track     []TrackPoint
	)

	t := searchStart
	for t.Before(windowEnd) {
		if ctx.Err() != nil {
			break
		}

		el, la, st, err := elevationAt(model, obs, t)
		if err != nil {
			t = t.Add(fineStepSec * time.Second)
			continue
		}

		above := el >= minElev

		if above && !wasAbove {
			riseTime = t
			riseAz = la.AzimuthDeg
			foundRise = true
			maxEl = el
			maxElTime = t
			maxElAz = la.AzimuthDeg
		}

		if above && foundRise {
			if el > maxEl {
				maxEl = el
				maxElTime = t
				maxElAz = la.AzimuthDeg
			}
			secSinceRise := int(t.Sub(riseTime).Seconds())
			if secSinceRise%trackStepSec == 0 {
				track = append(track, TrackPoint{
					Point:        geo.Project(st),
					ElevationDeg: el,
				})
			}
		}

		if !above && wasAbove && foundRise {
			setTime = t
			setAz = la.AzimuthDeg
			break
		}

		wasAbove = above
		t = t.Add(fineStepSec * time.Second)
	}

	// Satellite still above the horizon at windowEnd: close the pass there.
	if foundRise && setTime.IsZero() && wasAbove {
		el, la, _, err := elevationAt(model, obs, t)
		if err == nil {
			setTime = t
			setAz = la.AzimuthDeg
			if el > maxEl {
				maxEl = el
				maxElTime = t
				maxElAz = la.AzimuthDeg
			}
		} else {
			setTime = t
		}
	}

	if !foundRise || setTime.IsZero() {
		return nil, t
	}

	return &Pass{
		StartTime:        riseTime,
		MaxElevationTime: maxElTime,
		EndTime:          setTime,
		DurationSeconds:  setTime.Sub(riseTime).Seconds(),
		MaxElevation:     maxEl,
		AzimuthAtMax:     maxElAz,
		StartAzimuth:     riseAz,
		EndAzimuth:       setAz,
		Track:            track,
	}, setTime
}

// elevationAt propagates the satellite to t and computes the look angles
// from the observer.
func elevationAt(model *sgp4.Model, obs transform.ObserverPosition, t time.Time) (float64, transform.LookAngles, sgp4.State, error) {
	st, err := model.StateAt(t)
	if err != nil {
		return 0, transform.LookAngles{}, sgp4.State{}, err
	}
	ecef := transform.TEMEToECEF(transform.PositionTEME{
		X: st.X, Y: st.Y, Z: st.Z,
		VX: st.VX, VY: st.VY, VZ: st.VZ,
	}, t)
	la := transform.ECEFToLookAngles(obs, ecef.X, ecef.Y, ecef.Z)
	return la.ElevationDeg, la, st, nil
}
