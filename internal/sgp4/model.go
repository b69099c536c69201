// Package sgp4 implements the near-earth SGP4 orbit propagation model:
// secular J2/J3/J4 gravitational perturbations, atmospheric drag through
// the B* term, long-period and short-period periodic corrections. Output
// states are in the TEME frame (km, km/s).
//
// Element sets with orbital periods of 225 minutes or more belong to the
// deep-space SDP4 regime and are rejected at model construction.
package sgp4

import (
	"math"
	"time"

	"github.com/groundtrack/groundtrack/internal/tle"
)

// Model holds the epoch elements and derived propagation constants for a
// single element set. Immutable after construction; safe for concurrent
// use from multiple goroutines.
type Model struct {
	epoch time.Time

	// Epoch mean elements, radians and radians/minute.
	ecco  float64 // eccentricity
	inclo float64 // inclination
	nodeo float64 // right ascension of ascending node
	argpo float64 // argument of perigee
	mo    float64 // mean anomaly
	bstar float64 // drag term, 1/ER

	// Brouwer mean motion and semi-major axis recovered from the Kozai
	// mean motion in the element set.
	xnodp float64 // rad/min
	aodp  float64 // ER

	// Derived constants, computed once at init.
	cosio, sinio           float64
	x3thm1, x1mth2, x7thm1 float64
	c1, c4, c5             float64
	d2, d3, d4             float64
	t2cof, t3cof, t4cof, t5cof float64
	xmdot, omgdot, xnodot  float64
	xnodcf                 float64
	xlcof, aycof           float64
	eta, delmo, sinmo      float64
	omgcof, xmcof          float64

	// Simplified drag model for very low perigees (< 220 km).
	isSimple bool
}

// NewModel validates an element set against the near-earth model's domain
// and precomputes the propagation constants.
func NewModel(els tle.ElementSet) (*Model, error) {
	m := &Model{
		epoch: els.Epoch,
		ecco:  els.Eccentricity,
		inclo: els.InclinationDeg * deg2rad,
		nodeo: els.RAANDeg * deg2rad,
		argpo: els.ArgPerigeeDeg * deg2rad,
		mo:    els.MeanAnomalyDeg * deg2rad,
		bstar: els.Bstar,
	}

	// Kozai mean motion from the element set, rad/min.
	no := els.MeanMotion * twoPi / minutesPerDay

	// Recover the Brouwer mean motion and semi-major axis (un-Kozai).
	cosio := math.Cos(m.inclo)
	theta2 := cosio * cosio
	x3thm1 := 3.0*theta2 - 1.0
	eosq := m.ecco * m.ecco
	betao2 := 1.0 - eosq
	betao := math.Sqrt(betao2)

	a1 := math.Pow(xke/no, 2.0/3.0)
	del1 := 1.5 * ck2 * x3thm1 / (a1 * a1 * betao * betao2)
	ao := a1 * (1.0 - del1*(1.0/3.0+del1*(1.0+134.0/81.0*del1)))
	delo := 1.5 * ck2 * x3thm1 / (ao * ao * betao * betao2)
	m.xnodp = no / (1.0 + delo)
	m.aodp = ao / (1.0 - delo)

	if period := twoPi / m.xnodp; period >= deepSpacePeriodMin {
		return nil, &DeepSpaceError{PeriodMinutes: period}
	}

	// Altitude-dependent density bounds. Below 156 km perigee the s
	// parameter is recomputed; below 220 km the truncated drag model is
	// used (isSimple).
	perigeeKm := (m.aodp*(1.0-m.ecco) - 1.0) * xkmper
	m.isSimple = perigeeKm < 220.0

	s4 := s
	qoms24 := qoms2t
	if perigeeKm < 156.0 {
		s4 = perigeeKm - so
		if perigeeKm < 98.0 {
			s4 = 20.0
		}
		qoms24 = math.Pow((qo-s4)/xkmper, 4.0)
		s4 = s4/xkmper + 1.0
	}

	pinvsq := 1.0 / (m.aodp * m.aodp * betao2 * betao2)
	tsi := 1.0 / (m.aodp - s4)
	m.eta = m.aodp * m.ecco * tsi
	etasq := m.eta * m.eta
	eeta := m.ecco * m.eta
	psisq := math.Abs(1.0 - etasq)
	coef := qoms24 * math.Pow(tsi, 4.0)
	coef1 := coef / math.Pow(psisq, 3.5)

	c2 := coef1 * m.xnodp *
		(m.aodp*(1.0+1.5*etasq+eeta*(4.0+etasq)) +
			0.75*ck2*tsi/psisq*x3thm1*(8.0+3.0*etasq*(8.0+etasq)))
	m.c1 = m.bstar * c2

	m.cosio = cosio
	m.sinio = math.Sin(m.inclo)
	m.x3thm1 = x3thm1
	m.x1mth2 = 1.0 - theta2
	m.x7thm1 = 7.0*theta2 - 1.0

	var c3 float64
	if m.ecco > 1.0e-4 {
		c3 = coef * tsi * a3ovk2 * m.xnodp * m.sinio / m.ecco
	}

	m.c4 = 2.0 * m.xnodp * coef1 * m.aodp * betao2 *
		(m.eta*(2.0+0.5*etasq) + m.ecco*(0.5+2.0*etasq) -
			2.0*ck2*tsi/(m.aodp*psisq)*
				(-3.0*x3thm1*(1.0-2.0*eeta+etasq*(1.5-0.5*eeta))+
					0.75*m.x1mth2*(2.0*etasq-eeta*(1.0+etasq))*math.Cos(2.0*m.argpo)))
	m.c5 = 2.0 * coef1 * m.aodp * betao2 * (1.0 + 2.75*(etasq+eeta) + eeta*etasq)

	theta4 := theta2 * theta2
	temp1 := 3.0 * ck2 * pinvsq * m.xnodp
	temp2 := temp1 * ck2 * pinvsq
	temp3 := 1.25 * ck4 * pinvsq * pinvsq * m.xnodp
	m.xmdot = m.xnodp + 0.5*temp1*betao*x3thm1 +
		0.0625*temp2*betao*(13.0-78.0*theta2+137.0*theta4)
	x1m5th := 1.0 - 5.0*theta2
	m.omgdot = -0.5*temp1*x1m5th +
		0.0625*temp2*(7.0-114.0*theta2+395.0*theta4) +
		temp3*(3.0-36.0*theta2+49.0*theta4)
	xhdot1 := -temp1 * cosio
	m.xnodot = xhdot1 + (0.5*temp2*(4.0-19.0*theta2)+2.0*temp3*(3.0-7.0*theta2))*cosio
	m.xnodcf = 3.5 * betao2 * xhdot1 * m.c1
	m.t2cof = 1.5 * m.c1

	// xlcof denominator degenerates as inclination approaches 180 degrees.
	onePlusCosio := 1.0 + cosio
	if math.Abs(onePlusCosio) < 1.5e-12 {
		onePlusCosio = 1.5e-12
	}
	m.xlcof = 0.125 * a3ovk2 * m.sinio * (3.0 + 5.0*cosio) / onePlusCosio
	m.aycof = 0.25 * a3ovk2 * m.sinio

	if !m.isSimple {
		c1sq := m.c1 * m.c1
		m.d2 = 4.0 * m.aodp * tsi * c1sq
		temp := m.d2 * tsi * m.c1 / 3.0
		m.d3 = (17.0*m.aodp + s4) * temp
		m.d4 = 0.5 * temp * m.aodp * tsi * (221.0*m.aodp + 31.0*s4) * m.c1
		m.t3cof = m.d2 + 2.0*c1sq
		m.t4cof = 0.25 * (3.0*m.d3 + m.c1*(12.0*m.d2+10.0*c1sq))
		m.t5cof = 0.2 * (3.0*m.d4 + 12.0*m.c1*m.d3 + 6.0*m.d2*m.d2 +
			15.0*c1sq*(2.0*m.d2+c1sq))
		m.delmo = math.Pow(1.0+m.eta*math.Cos(m.mo), 3.0)
		m.sinmo = math.Sin(m.mo)
		m.omgcof = m.bstar * c3 * math.Cos(m.argpo)
		if m.ecco > 1.0e-4 {
			m.xmcof = -(2.0 / 3.0) * coef * m.bstar / eeta
		}
	}

	return m, nil
}

// Epoch returns the element set epoch the model propagates from.
func (m *Model) Epoch() time.Time {
	return m.epoch
}
