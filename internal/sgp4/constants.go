package sgp4

import "math"

// WGS-72 gravity constants, the set the SGP4 model was fitted against and
// the one NORAD element sets assume. Distances in earth radii (ER) unless
// noted, angular rates in radians per minute.
const (
	xkmper = 6378.135              // earth equatorial radius, km
	xke    = 7.43669161331734e-2   // sqrt(GM) in ER^1.5/min
	xj2    = 1.082616e-3           // second gravitational zonal harmonic
	xj3    = -2.53881e-6           // third zonal harmonic
	xj4    = -1.65597e-6           // fourth zonal harmonic
	ck2    = 0.5 * xj2             // 1/2 J2
	ck4    = -0.375 * xj4          // -3/8 J4
	qo     = 120.0                 // density function upper altitude bound, km
	so     = 78.0                  // density function lower altitude bound, km
	s      = 1.0 + so/xkmper       // s parameter, ER
	a3ovk2 = -xj3 / ck2            // -J3 / (1/2 J2), ae = 1
	twoPi  = 2.0 * math.Pi
	deg2rad = math.Pi / 180.0
	minutesPerDay = 1440.0
)

// qoms2t is (qo - so)^4 in ER^4, precomputed.
var qoms2t = math.Pow((qo-so)/xkmper, 4.0)

// deepSpacePeriodMin is the orbital period boundary (minutes) above which
// the near-earth SGP4 model no longer applies and SDP4 would be required.
const deepSpacePeriodMin = 225.0
