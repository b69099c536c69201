package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/groundtrack/groundtrack/internal/auth"
	"github.com/groundtrack/groundtrack/internal/tle"
	"github.com/groundtrack/groundtrack/internal/track"
)

// Synthetic ISS-like element set, epoch 2024-04-09T12:00:00Z.
const (
	issLine1 = "1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9009"
	issLine2 = "2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    01"
)

// Synthetic geostationary element set, outside the near-earth model.
const (
	geoLine1 = "1 19548U 88091B   24100.50000000  .00000050  00000-0  00000-0 0  9990"
	geoLine2 = "2 19548   0.0500  95.0000 0002000 150.0000 210.0000  1.00270000 12349"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func testServer(t *testing.T, authCfg auth.Config, loaded bool) *Server {
	t.Helper()

	store := tle.NewStore()
	if loaded {
		iss, err := tle.ParseSet("ISS (ZARYA)", issLine1, issLine2)
		if err != nil {
			t.Fatalf("ParseSet failed: %v", err)
		}
		geo, err := tle.ParseSet("GEO-TEST", geoLine1, geoLine2)
		if err != nil {
			t.Fatalf("ParseSet failed: %v", err)
		}
		store.Set(tle.NewDataset("test", time.Now(), []tle.ElementSet{iss, geo}))
	}

	tracker := track.New(track.Config{Workers: 2}, testLogger())
	return NewServer(":0", testLogger(), authCfg, store, tracker, Limits{
		MaxSamples:     500,
		MaxStepSeconds: 3600,
	})
}

func do(s *Server, method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthAndReadiness(t *testing.T) {
	empty := testServer(t, auth.Config{}, false)

	if w := do(empty, "GET", "/healthz", nil); w.Code != http.StatusOK {
		t.Errorf("healthz = %d, want 200", w.Code)
	}
	if w := do(empty, "GET", "/readyz", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz without catalog = %d, want 503", w.Code)
	}

	loaded := testServer(t, auth.Config{}, true)
	if w := do(loaded, "GET", "/readyz", nil); w.Code != http.StatusOK {
		t.Errorf("readyz with catalog = %d, want 200", w.Code)
	}
}

func TestSatellitesListing(t *testing.T) {
	s := testServer(t, auth.Config{}, true)

	w := do(s, "GET", "/api/v1/satellites", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp satellitesResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Count != 2 || len(resp.Satellites) != 2 {
		t.Fatalf("count = %d, satellites = %d, want 2/2", resp.Count, len(resp.Satellites))
	}
	if resp.Satellites[0].CatalogNumber != "25544" {
		t.Errorf("first satellite = %q, want 25544", resp.Satellites[0].CatalogNumber)
	}
}

func TestTrackEndpoint(t *testing.T) {
	s := testServer(t, auth.Config{}, true)

	w := do(s, "GET", "/api/v1/track/25544?start=2024-04-09T12:00:00Z&step=60&samples=5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp trackResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.CatalogNumber != "25544" || resp.Name != "ISS (ZARYA)" {
		t.Errorf("identity: %q %q", resp.CatalogNumber, resp.Name)
	}
	if len(resp.Points) != 5 {
		t.Fatalf("got %d points, want 5", len(resp.Points))
	}

	start := time.Date(2024, 4, 9, 12, 0, 0, 0, time.UTC)
	for i, p := range resp.Points {
		want := start.Add(time.Duration(i) * time.Minute)
		if !p.Time.Equal(want) {
			t.Errorf("point %d: time %v, want %v", i, p.Time, want)
		}
		if p.Latitude < -90 || p.Latitude > 90 || p.Longitude < -180 || p.Longitude >= 180 {
			t.Errorf("point %d out of range: %+v", i, p)
		}
	}

	// The elements are years old relative to the request window, so the
	// response should carry a staleness warning but still succeed.
	w = do(s, "GET", "/api/v1/track/25544?samples=1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	resp = trackResponse{}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.StaleWarning == "" {
		t.Error("expected stale warning for old elements at current time")
	}
}

func TestTrackValidation(t *testing.T) {
	s := testServer(t, auth.Config{}, true)

	tests := []struct {
		name       string
		target     string
		wantStatus int
	}{
		{"unknown satellite", "/api/v1/track/99999", http.StatusNotFound},
		{"bad start", "/api/v1/track/25544?start=yesterday", http.StatusBadRequest},
		{"zero step", "/api/v1/track/25544?step=0", http.StatusBadRequest},
		{"step over limit", "/api/v1/track/25544?step=7200", http.StatusBadRequest},
		{"negative samples", "/api/v1/track/25544?samples=-1", http.StatusBadRequest},
		{"samples over limit", "/api/v1/track/25544?samples=501", http.StatusBadRequest},
		{"deep space satellite", "/api/v1/track/19548?start=2024-04-09T12:00:00Z", http.StatusUnprocessableEntity},
		{"within limits", "/api/v1/track/25544?start=2024-04-09T12:00:00Z&samples=500&step=3600", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(s, "GET", tt.target, nil)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				var resp map[string]any
				json.NewDecoder(w.Body).Decode(&resp)
				if resp["error"] == nil {
					t.Error("expected error field in response")
				}
			}
		})
	}
}

func TestTrackWithoutCatalog(t *testing.T) {
	s := testServer(t, auth.Config{}, false)
	if w := do(s, "GET", "/api/v1/track/25544", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestAuthEnforcement(t *testing.T) {
	s := testServer(t, auth.Config{Enabled: true, Token: "hunter2"}, true)

	// Passes endpoint requires auth.
	if w := do(s, "GET", "/api/v1/passes/25544?lat=45&lon=7.5&hours=0.5", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", w.Code)
	}
	hdr := http.Header{"Authorization": []string{"Bearer wrong"}}
	if w := do(s, "GET", "/api/v1/passes/25544?lat=45&lon=7.5&hours=0.5", hdr); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token: status = %d, want 401", w.Code)
	}
	hdr = http.Header{"Authorization": []string{"Bearer hunter2"}}
	if w := do(s, "GET", "/api/v1/passes/25544?lat=45&lon=7.5&hours=0.5", hdr); w.Code == http.StatusUnauthorized {
		t.Errorf("valid token: status = %d, want non-401", w.Code)
	}

	// Track and listing endpoints stay public.
	if w := do(s, "GET", "/api/v1/satellites", nil); w.Code != http.StatusOK {
		t.Errorf("satellites without token: status = %d, want 200", w.Code)
	}
	if w := do(s, "GET", "/api/v1/track/25544?start=2024-04-09T12:00:00Z&samples=1", nil); w.Code != http.StatusOK {
		t.Errorf("track without token: status = %d, want 200", w.Code)
	}
}

func TestPassesValidation(t *testing.T) {
	s := testServer(t, auth.Config{}, true)

	tests := []struct {
		name   string
		target string
	}{
		{"missing lat", "/api/v1/passes/25544?lon=7.5"},
		{"lat out of range", "/api/v1/passes/25544?lat=91&lon=7.5"},
		{"lon out of range", "/api/v1/passes/25544?lat=45&lon=181"},
		{"hours over limit", "/api/v1/passes/25544?lat=45&lon=7.5&hours=100"},
		{"bad min elevation", "/api/v1/passes/25544?lat=45&lon=7.5&min_elevation=95"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := do(s, "GET", tt.target, nil); w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}

	if w := do(s, "GET", "/api/v1/passes/99999?lat=45&lon=7.5", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown satellite: status = %d, want 404", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := testServer(t, auth.Config{}, true)

	// Generate one real request so the counters exist.
	do(s, "GET", "/api/v1/satellites", nil)

	w := do(s, "GET", "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "groundtrack_http_requests_total") {
		t.Error("metrics output missing groundtrack_http_requests_total")
	}
}
