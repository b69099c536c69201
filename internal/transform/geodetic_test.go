package transform

import (
	"math"
	"testing"
)

// TestECEFToGeodeticRoundTrip feeds geodetic-to-ECEF output back through
// the inverse conversion. NewObserverPosition implements the forward
// direction, so the pair must agree.
func TestECEFToGeodeticRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		lat  float64
		lon  float64
		altM float64
	}{
		{"equator prime meridian", 0, 0, 0},
		{"mid latitude", 45.0, 7.5, 500},
		{"southern hemisphere", -33.8688, 151.2093, 58},
		{"high latitude", 78.2232, 15.6267, 0},
		{"western longitude", 40.7128, -74.006, 10},
		{"LEO altitude", 51.64, -120.0, 420000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := NewObserverPosition(tt.lat, tt.lon, tt.altM)
			g := ECEFToGeodetic(obs.ECEFx, obs.ECEFy, obs.ECEFz)

			if math.Abs(g.LatDeg-tt.lat) > 1e-6 {
				t.Errorf("latitude: got %.8f, want %.8f", g.LatDeg, tt.lat)
			}
			if math.Abs(g.LonDeg-tt.lon) > 1e-6 {
				t.Errorf("longitude: got %.8f, want %.8f", g.LonDeg, tt.lon)
			}
			if math.Abs(g.AltM-tt.altM) > 0.01 {
				t.Errorf("altitude: got %.4f m, want %.4f m", g.AltM, tt.altM)
			}
		})
	}
}

// TestECEFToGeodeticEquator checks a point on the equatorial plane at a
// known distance from the geocenter.
func TestECEFToGeodeticEquator(t *testing.T) {
	g := ECEFToGeodetic(wgs84A+400000.0, 0, 0)

	if math.Abs(g.LatDeg) > 1e-9 {
		t.Errorf("latitude = %.10f, want 0", g.LatDeg)
	}
	if math.Abs(g.LonDeg) > 1e-9 {
		t.Errorf("longitude = %.10f, want 0", g.LonDeg)
	}
	if math.Abs(g.AltM-400000.0) > 0.01 {
		t.Errorf("altitude = %.3f m, want 400000", g.AltM)
	}
}

// TestECEFToGeodeticPole exercises the cos(lat) ~ 0 altitude branch.
func TestECEFToGeodeticPole(t *testing.T) {
	const wgs84B = wgs84A * (1 - wgs84F) // polar radius

	g := ECEFToGeodetic(0, 0, wgs84B+1000.0)

	if math.Abs(g.LatDeg-90.0) > 1e-6 {
		t.Errorf("latitude = %.8f, want 90", g.LatDeg)
	}
	if math.Abs(g.AltM-1000.0) > 0.5 {
		t.Errorf("altitude = %.3f m, want ~1000", g.AltM)
	}
}

// TestGeodeticVsGeocentricLatitude pins the ellipsoidal behavior: at 45
// degrees geodetic, the geocentric latitude of the same surface point is
// about 0.19 degrees smaller. A spherical conversion would erase this.
func TestGeodeticVsGeocentricLatitude(t *testing.T) {
	obs := NewObserverPosition(45.0, 0, 0)
	p := math.Sqrt(obs.ECEFx*obs.ECEFx + obs.ECEFy*obs.ECEFy)
	geocentric := math.Atan2(obs.ECEFz, p) * 180.0 / math.Pi

	diff := 45.0 - geocentric
	if diff < 0.15 || diff > 0.25 {
		t.Errorf("geodetic-geocentric difference at 45 deg = %.4f deg, want ~0.19", diff)
	}

	g := ECEFToGeodetic(obs.ECEFx, obs.ECEFy, obs.ECEFz)
	if math.Abs(g.LatDeg-45.0) > 1e-6 {
		t.Errorf("conversion returned %.8f, want geodetic 45", g.LatDeg)
	}
}
