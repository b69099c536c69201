// Package geo projects propagated orbital states onto the Earth's surface
// as sub-satellite points.
package geo

import (
	"time"

	"github.com/groundtrack/groundtrack/internal/sgp4"
	"github.com/groundtrack/groundtrack/internal/transform"
)

// Point is a sub-satellite position at a specific instant.
type Point struct {
	Time      time.Time `json:"time"`
	Latitude  float64   `json:"latitude"`  // degrees, [-90, 90]
	Longitude float64   `json:"longitude"` // degrees, [-180, 180)
	AltKm     float64   `json:"altitude_km"`
}

// Project converts a TEME orbital state to the geodetic sub-satellite
// point, rotating into the Earth-fixed frame by sidereal time at the
// state's instant. Pure function, no side effects.
func Project(st sgp4.State) Point {
	ecef := transform.TEMEToECEF(transform.PositionTEME{
		X: st.X, Y: st.Y, Z: st.Z,
		VX: st.VX, VY: st.VY, VZ: st.VZ,
	}, st.Time)

	g := transform.ECEFToGeodetic(ecef.X, ecef.Y, ecef.Z)

	return Point{
		Time:      st.Time,
		Latitude:  clampLatitude(g.LatDeg),
		Longitude: normalizeLongitude(g.LonDeg),
		AltKm:     g.AltM / 1000.0,
	}
}

// normalizeLongitude wraps a longitude in degrees to [-180, 180).
func normalizeLongitude(lon float64) float64 {
	for lon >= 180.0 {
		lon -= 360.0
	}
	for lon < -180.0 {
		lon += 360.0
	}
	return lon
}

// clampLatitude guards against float noise pushing a pole crossing a hair
// past ±90.
func clampLatitude(lat float64) float64 {
	if lat > 90.0 {
		return 90.0
	}
	if lat < -90.0 {
		return -90.0
	}
	return lat
}
