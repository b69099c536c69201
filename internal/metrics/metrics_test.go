package metrics

import "testing"

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		// Known exact routes.
		{"/healthz", "/healthz"},
		{"/readyz", "/readyz"},
		{"/metrics", "/metrics"},
		{"/api/v1/satellites", "/api/v1/satellites"},

		// Parameterized routes collapse to one label.
		{"/api/v1/track/25544", "/api/v1/track/{catnum}"},
		{"/api/v1/track/88888", "/api/v1/track/{catnum}"},
		{"/api/v1/passes/25544", "/api/v1/passes/{catnum}"},

		// Unknown/bot paths collapse to "other". No root route is
		// registered, so "/" is unknown too.
		{"/", "other"},
		{"/wp-admin", "other"},
		{"/robots.txt", "other"},
		{"/.env", "other"},
		{"/api/v2/something", "other"},
		{"/favicon.ico", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := normalizeRoute(tt.path); got != tt.want {
				t.Errorf("normalizeRoute(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

// TestMetricsCardinality verifies that many distinct catalog numbers
// produce exactly one path label, not one per satellite.
func TestMetricsCardinality(t *testing.T) {
	seen := make(map[string]bool)
	for i := 10000; i < 10100; i++ {
		label := normalizeRoute("/api/v1/track/" + string(rune('0'+i%10)) + "9999")
		seen[label] = true
	}
	if len(seen) != 1 {
		t.Errorf("expected 1 unique label for parameterized paths, got %d: %v", len(seen), seen)
	}
}
