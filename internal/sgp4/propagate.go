package sgp4

import (
	"math"
	"time"
)

// State is a satellite position and velocity in the TEME frame at a given
// instant. Valid only for the model that produced it.
type State struct {
	Time       time.Time
	X, Y, Z    float64 // km
	VX, VY, VZ float64 // km/s
}

// StateAt propagates the model to an absolute UTC instant.
func (m *Model) StateAt(at time.Time) (State, error) {
	st, err := m.StateAtMinutes(at.Sub(m.epoch).Minutes())
	if err != nil {
		return State{}, err
	}
	st.Time = at
	return st, nil
}

// StateAtMinutes propagates the model to tsince minutes past the element
// epoch (negative values propagate backwards). Deterministic: identical
// inputs produce identical output.
func (m *Model) StateAtMinutes(tsince float64) (State, error) {
	// Secular gravity and drag.
	xmdf := m.mo + m.xmdot*tsince
	omgadf := m.argpo + m.omgdot*tsince
	xnoddf := m.nodeo + m.xnodot*tsince

	omega := omgadf
	xmp := xmdf

	tsq := tsince * tsince
	xnode := xnoddf + m.xnodcf*tsq
	tempa := 1.0 - m.c1*tsince
	tempe := m.bstar * m.c4 * tsince
	templ := m.t2cof * tsq

	if !m.isSimple {
		delomg := m.omgcof * tsince
		var delm float64
		if m.eta != 0.0 {
			delm = m.xmcof * (math.Pow(1.0+m.eta*math.Cos(xmdf), 3.0) - m.delmo)
		}
		temp := delomg + delm
		xmp += temp
		omega -= temp

		tcube := tsq * tsince
		tfour := tsince * tcube
		tempa = tempa - m.d2*tsq - m.d3*tcube - m.d4*tfour
		tempe += m.bstar * m.c5 * (math.Sin(xmp) - m.sinmo)
		templ += m.t3cof*tcube + tfour*(m.t4cof+tsince*m.t5cof)
	}

	a := m.aodp * tempa * tempa
	e := m.ecco - tempe
	xl := xmp + omega + xnode + m.xnodp*templ

	if e <= -0.001 {
		return State{}, &DegenerateOrbitError{Tsince: tsince, Quantity: "eccentricity", Value: e}
	} else if e < 1.0e-6 {
		e = 1.0e-6
	} else if e > 1.0-1.0e-6 {
		e = 1.0 - 1.0e-6
	}

	beta2 := 1.0 - e*e
	if beta2 < 0.0 {
		return State{}, &DegenerateOrbitError{Tsince: tsince, Quantity: "beta squared", Value: beta2}
	}
	if a < 0.0 {
		return State{}, &DegenerateOrbitError{Tsince: tsince, Quantity: "semi-major axis", Value: a}
	}
	xn := xke / math.Pow(a, 1.5)

	// Long-period periodics.
	axn := e * math.Cos(omega)
	temp11 := 1.0 / (a * beta2)
	xll := temp11 * m.xlcof * axn
	aynl := temp11 * m.aycof
	xlt := xl + xll
	ayn := e*math.Sin(omega) + aynl

	elsq := axn*axn + ayn*ayn
	if elsq >= 1.0 {
		return State{}, &DegenerateOrbitError{Tsince: tsince, Quantity: "perturbed eccentricity squared", Value: elsq}
	}

	// Solve Kepler's equation for the eccentric longitude by
	// Newton-Raphson with a capped first step.
	capu := math.Mod(xlt-xnode, twoPi)
	epw := capu

	var sinepw, cosepw, ecose, esine float64
	maxStep := 1.25 * math.Abs(math.Sqrt(elsq))

	for i := 0; i < 10; i++ {
		sinepw = math.Sin(epw)
		cosepw = math.Cos(epw)
		ecose = axn*cosepw + ayn*sinepw
		esine = axn*sinepw - ayn*cosepw

		f := capu - epw + esine
		if math.Abs(f) < 1.0e-12 {
			break
		}

		fdot := 1.0 - ecose
		delta := f / fdot
		if i == 0 {
			if delta > maxStep {
				delta = maxStep
			} else if delta < -maxStep {
				delta = -maxStep
			}
		} else {
			delta = f / (fdot + 0.5*esine*delta)
		}
		epw += delta
	}

	// Short-period preliminary quantities.
	temp21 := math.Max(1.0-elsq, 0.0)
	pl := a * temp21
	if pl < 0.0 {
		return State{}, &DegenerateOrbitError{Tsince: tsince, Quantity: "semi-latus rectum", Value: pl}
	}

	r := a * (1.0 - ecose)
	if r == 0.0 {
		r = 1e-9
	}
	temp31 := 1.0 / r
	rdot := xke * math.Sqrt(a) * esine * temp31
	rfdot := xke * math.Sqrt(pl) * temp31

	temp32 := a * temp31
	betal := math.Sqrt(temp21)
	temp33 := 1.0 / (1.0 + betal)

	cosu := temp32 * (cosepw - axn + ayn*esine*temp33)
	sinu := temp32 * (sinepw - ayn - axn*esine*temp33)
	u := math.Atan2(sinu, cosu)

	sin2u := 2.0 * sinu * cosu
	cos2u := 2.0*cosu*cosu - 1.0

	// Short-period periodics.
	temp41 := 1.0 / pl
	temp42 := ck2 * temp41
	temp43 := temp42 * temp41

	rk := r*(1.0-1.5*temp43*betal*m.x3thm1) + 0.5*temp42*m.x1mth2*cos2u
	uk := u - 0.25*temp43*m.x7thm1*sin2u
	xnodek := xnode + 1.5*temp43*m.cosio*sin2u
	xinck := m.inclo + 1.5*temp43*m.cosio*m.sinio*cos2u
	rdotk := rdot - xn*temp42*m.x1mth2*sin2u
	rfdotk := rfdot + xn*temp42*(m.x1mth2*cos2u+1.5*m.x3thm1)

	if rk < 1.0 {
		return State{}, &DecayError{Tsince: tsince, RadiusER: rk}
	}

	// Orientation vectors and the TEME position/velocity.
	sinuk := math.Sin(uk)
	cosuk := math.Cos(uk)
	sinik := math.Sin(xinck)
	cosik := math.Cos(xinck)
	sinnok := math.Sin(xnodek)
	cosnok := math.Cos(xnodek)

	xmx := -sinnok * cosik
	xmy := cosnok * cosik

	ux := xmx*sinuk + cosnok*cosuk
	uy := xmy*sinuk + sinnok*cosuk
	uz := sinik * sinuk
	vx := xmx*cosuk - cosnok*sinuk
	vy := xmy*cosuk - sinnok*sinuk
	vz := sinik * cosuk

	// rdotk and rfdotk are in ER/min; xkmper/60 converts to km/s.
	vFactor := xkmper / 60.0

	return State{
		X:  rk * ux * xkmper,
		Y:  rk * uy * xkmper,
		Z:  rk * uz * xkmper,
		VX: (rdotk*ux + rfdotk*vx) * vFactor,
		VY: (rdotk*uy + rfdotk*vy) * vFactor,
		VZ: (rdotk*uz + rfdotk*vz) * vFactor,
	}, nil
}
