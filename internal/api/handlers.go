package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/groundtrack/groundtrack/internal/geo"
	"github.com/groundtrack/groundtrack/internal/metrics"
	"github.com/groundtrack/groundtrack/internal/passes"
	"github.com/groundtrack/groundtrack/internal/sgp4"
	"github.com/groundtrack/groundtrack/internal/tle"
	"github.com/groundtrack/groundtrack/internal/transform"
)

const (
	defaultSamples     = 10
	defaultStepSeconds = 60

	defaultPassHours   = 24.0
	defaultMinElevDeg  = 10.0
	defaultMaxPasses   = 10
	maxPassHorizonHrs  = 72.0
	passPredictTimeout = 30 * time.Second
)

type satelliteSummary struct {
	Name          string    `json:"name,omitempty"`
	CatalogNumber string    `json:"catalog_number"`
	NORADID       int       `json:"norad_id"`
	Epoch         time.Time `json:"epoch"`
}

type satellitesResponse struct {
	Count      int                `json:"count"`
	Source     string             `json:"source"`
	FetchedAt  time.Time          `json:"fetched_at"`
	Satellites []satelliteSummary `json:"satellites"`
}

type trackResponse struct {
	Name          string      `json:"name,omitempty"`
	CatalogNumber string      `json:"catalog_number"`
	Points        []geo.Point `json:"points"`
	StaleWarning  string      `json:"stale_warning,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleSatellites(w http.ResponseWriter, r *http.Request) {
	ds := s.store.Get()
	if ds == nil {
		writeError(w, http.StatusServiceUnavailable, "no catalog loaded")
		return
	}

	resp := satellitesResponse{
		Count:      len(ds.Satellites),
		Source:     ds.Source,
		FetchedAt:  ds.FetchedAt,
		Satellites: make([]satelliteSummary, 0, len(ds.Satellites)),
	}
	for _, e := range ds.Satellites {
		resp.Satellites = append(resp.Satellites, satelliteSummary{
			Name:          e.Name,
			CatalogNumber: e.CatalogNumber,
			NORADID:       e.NORADID,
			Epoch:         e.Epoch,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	cat := s.catalog()
	if cat == nil {
		writeError(w, http.StatusServiceUnavailable, "no catalog loaded")
		return
	}

	els, ok := cat.ByNumber(r.PathValue("catnum"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown catalog number")
		return
	}

	q := r.URL.Query()

	start := time.Now().UTC()
	if v := q.Get("start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start must be an RFC3339 timestamp")
			return
		}
		start = t.UTC()
	}

	stepSec := defaultStepSeconds
	if v := q.Get("step"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "step must be a positive integer (seconds)")
			return
		}
		stepSec = n
	}
	if stepSec > s.limits.MaxStepSeconds {
		writeError(w, http.StatusBadRequest, "step exceeds limit of "+strconv.Itoa(s.limits.MaxStepSeconds)+" seconds")
		return
	}

	samples := defaultSamples
	if v := q.Get("samples"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "samples must be a positive integer")
			return
		}
		samples = n
	}
	if samples > s.limits.MaxSamples {
		writeError(w, http.StatusBadRequest, "samples exceeds limit of "+strconv.Itoa(s.limits.MaxSamples))
		return
	}

	instants := make([]time.Time, samples)
	for i := range instants {
		instants[i] = start.Add(time.Duration(i*stepSec) * time.Second)
	}

	began := time.Now()
	trk, err := s.tracker.Track(r.Context(), els, instants)
	if err != nil {
		var deep *sgp4.DeepSpaceError
		var propErr sgp4.PropagationError
		switch {
		case errors.As(err, &deep):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.As(err, &propErr):
			writeError(w, http.StatusInternalServerError, err.Error())
		case r.Context().Err() != nil:
			// Client went away; status code is moot.
			writeError(w, http.StatusInternalServerError, "request cancelled")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	metrics.ObserveTrack(time.Since(began), len(trk.Points), trk.Stale != nil)

	resp := trackResponse{
		Name:          trk.Name,
		CatalogNumber: trk.CatalogNumber,
		Points:        trk.Points,
	}
	if trk.Stale != nil {
		resp.StaleWarning = trk.Stale.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePasses(w http.ResponseWriter, r *http.Request) {
	cat := s.catalog()
	if cat == nil {
		writeError(w, http.StatusServiceUnavailable, "no catalog loaded")
		return
	}

	els, ok := cat.ByNumber(r.PathValue("catnum"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown catalog number")
		return
	}

	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		writeError(w, http.StatusBadRequest, "lat is required and must be in [-90, 90]")
		return
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		writeError(w, http.StatusBadRequest, "lon is required and must be in [-180, 180]")
		return
	}

	var altM float64
	if v := q.Get("alt"); v != "" {
		altM, err = strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "alt must be a number (meters)")
			return
		}
	}

	hours := defaultPassHours
	if v := q.Get("hours"); v != "" {
		hours, err = strconv.ParseFloat(v, 64)
		if err != nil || hours <= 0 || hours > maxPassHorizonHrs {
			writeError(w, http.StatusBadRequest, "hours must be in (0, 72]")
			return
		}
	}

	minElev := defaultMinElevDeg
	if v := q.Get("min_elevation"); v != "" {
		minElev, err = strconv.ParseFloat(v, 64)
		if err != nil || minElev < 0 || minElev >= 90 {
			writeError(w, http.StatusBadRequest, "min_elevation must be in [0, 90)")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), passPredictTimeout)
	defer cancel()

	results := passes.Predict(ctx, passes.Request{
		Observer:     transform.NewObserverPosition(lat, lon, altM),
		Satellites:   []tle.ElementSet{els},
		Start:        time.Now().UTC(),
		HorizonHours: hours,
		MinElevation: minElev,
		MaxPasses:    defaultMaxPasses,
	})

	writeJSON(w, http.StatusOK, results[0])
}
