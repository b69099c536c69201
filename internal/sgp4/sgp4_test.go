package sgp4

import (
	"errors"
	"math"
	"testing"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/groundtrack/groundtrack/internal/tle"
)

// Spacetrack Report #3 test satellite, epoch 1980. The report publishes
// reference state vectors for this orbit.
const (
	str3Line1 = "1 88888U          80275.98708465  .00073094  13844-3  66816-4 0     9"
	str3Line2 = "2 88888  72.8435 115.9689 0086731  52.6988 110.5714 16.05824518  1058"
)

// Synthetic ISS-like element set with an exact-second epoch
// (2024-04-09T12:00:00Z) so reference libraries taking integer seconds
// see the identical instant.
const (
	issLine1 = "1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9009"
	issLine2 = "2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    01"
)

// Synthetic geostationary element set, period ~1436 minutes.
const (
	geoLine1 = "1 19548U 88091B   24100.50000000  .00000050  00000-0  00000-0 0  9990"
	geoLine2 = "2 19548   0.0500  95.0000 0002000 150.0000 210.0000  1.00270000 12349"
)

func mustModel(t *testing.T, name, line1, line2 string) *Model {
	t.Helper()
	els, err := tle.ParseSet(name, line1, line2)
	if err != nil {
		t.Fatalf("ParseSet(%s) failed: %v", name, err)
	}
	m, err := NewModel(els)
	if err != nil {
		t.Fatalf("NewModel(%s) failed: %v", name, err)
	}
	return m
}

// TestSpacetrackReferenceVectors checks position and velocity against the
// values published in Spacetrack Report #3 for the 88888 test orbit.
func TestSpacetrackReferenceVectors(t *testing.T) {
	m := mustModel(t, "SGP4-TEST", str3Line1, str3Line2)

	tests := []struct {
		tsince     float64
		x, y, z    float64 // km
		vx, vy, vz float64 // km/s
	}{
		{0.0,
			2328.97048951, -5995.22076416, 1719.97067261,
			2.91207230, -0.98341546, -7.09081703},
		{360.0,
			2456.10705566, -6071.93853760, 1222.89727783,
			2.67938992, -0.44829041, -7.22879231},
	}

	const posTol = 0.01  // km
	const velTol = 1e-4 // km/s

	for _, tt := range tests {
		st, err := m.StateAtMinutes(tt.tsince)
		if err != nil {
			t.Fatalf("StateAtMinutes(%v) failed: %v", tt.tsince, err)
		}
		if math.Abs(st.X-tt.x) > posTol || math.Abs(st.Y-tt.y) > posTol || math.Abs(st.Z-tt.z) > posTol {
			t.Errorf("tsince=%v position = [%.8f, %.8f, %.8f], want [%.8f, %.8f, %.8f]",
				tt.tsince, st.X, st.Y, st.Z, tt.x, tt.y, tt.z)
		}
		if math.Abs(st.VX-tt.vx) > velTol || math.Abs(st.VY-tt.vy) > velTol || math.Abs(st.VZ-tt.vz) > velTol {
			t.Errorf("tsince=%v velocity = [%.8f, %.8f, %.8f], want [%.8f, %.8f, %.8f]",
				tt.tsince, st.VX, st.VY, st.VZ, tt.vx, tt.vy, tt.vz)
		}
	}
}

// TestCrossValidateGoSatellite compares the propagator against the
// go-satellite library (WGS-72 gravity) over a day of flight.
func TestCrossValidateGoSatellite(t *testing.T) {
	m := mustModel(t, "ISS", issLine1, issLine2)
	ref := satellite.TLEToSat(issLine1, issLine2, satellite.GravityWGS72)

	epoch := time.Date(2024, 4, 9, 12, 0, 0, 0, time.UTC)
	if !m.Epoch().Equal(epoch) {
		t.Fatalf("epoch = %v, want %v", m.Epoch(), epoch)
	}

	const posTol = 2.0  // km
	const velTol = 0.01 // km/s

	for _, minutes := range []int{0, 10, 60, 360, 1440} {
		target := epoch.Add(time.Duration(minutes) * time.Minute)

		st, err := m.StateAt(target)
		if err != nil {
			t.Fatalf("StateAt(+%dmin) failed: %v", minutes, err)
		}

		refPos, refVel := satellite.Propagate(ref,
			target.Year(), int(target.Month()), target.Day(),
			target.Hour(), target.Minute(), target.Second())

		if math.Abs(st.X-refPos.X) > posTol || math.Abs(st.Y-refPos.Y) > posTol || math.Abs(st.Z-refPos.Z) > posTol {
			t.Errorf("+%dmin position: ours [%.4f, %.4f, %.4f], go-satellite [%.4f, %.4f, %.4f]",
				minutes, st.X, st.Y, st.Z, refPos.X, refPos.Y, refPos.Z)
		}
		if math.Abs(st.VX-refVel.X) > velTol || math.Abs(st.VY-refVel.Y) > velTol || math.Abs(st.VZ-refVel.Z) > velTol {
			t.Errorf("+%dmin velocity: ours [%.6f, %.6f, %.6f], go-satellite [%.6f, %.6f, %.6f]",
				minutes, st.VX, st.VY, st.VZ, refVel.X, refVel.Y, refVel.Z)
		}
	}
}

// TestDeterminism verifies bit-identical output for identical input.
func TestDeterminism(t *testing.T) {
	m := mustModel(t, "ISS", issLine1, issLine2)

	for _, tsince := range []float64{0, 1.5, 90, 5432.1} {
		a, err := m.StateAtMinutes(tsince)
		if err != nil {
			t.Fatalf("StateAtMinutes(%v) failed: %v", tsince, err)
		}
		b, err := m.StateAtMinutes(tsince)
		if err != nil {
			t.Fatalf("StateAtMinutes(%v) second call failed: %v", tsince, err)
		}
		if a != b {
			t.Errorf("tsince=%v: repeated propagation differs: %+v vs %+v", tsince, a, b)
		}
	}
}

// TestBackwardPropagation checks that negative tsince works and stays on
// a physical orbit.
func TestBackwardPropagation(t *testing.T) {
	m := mustModel(t, "SGP4-TEST", str3Line1, str3Line2)

	st, err := m.StateAtMinutes(-360.0)
	if err != nil {
		t.Fatalf("StateAtMinutes(-360) failed: %v", err)
	}
	mag := math.Sqrt(st.X*st.X + st.Y*st.Y + st.Z*st.Z)
	if mag < 6400 || mag > 7200 {
		t.Errorf("position magnitude = %.1f km, outside plausible LEO band", mag)
	}
}

// TestDeepSpaceRejected verifies that orbits with periods of 225 minutes
// or more are refused at model construction.
func TestDeepSpaceRejected(t *testing.T) {
	els, err := tle.ParseSet("GEO-TEST", geoLine1, geoLine2)
	if err != nil {
		t.Fatalf("ParseSet failed: %v", err)
	}

	_, err = NewModel(els)
	var deep *DeepSpaceError
	if !errors.As(err, &deep) {
		t.Fatalf("NewModel error = %v, want *DeepSpaceError", err)
	}
	if deep.PeriodMinutes < 1400 || deep.PeriodMinutes > 1500 {
		t.Errorf("PeriodMinutes = %.1f, want ~1436", deep.PeriodMinutes)
	}
}

// TestDegenerateOrbit propagates the high-drag 88888 orbit far past any
// physical validity; accumulated drag drives the eccentricity negative
// and the propagator must refuse rather than emit garbage.
func TestDegenerateOrbit(t *testing.T) {
	m := mustModel(t, "SGP4-TEST", str3Line1, str3Line2)

	// 400 days past epoch.
	_, err := m.StateAtMinutes(400 * 24 * 60)
	var degen *DegenerateOrbitError
	if !errors.As(err, &degen) {
		t.Fatalf("StateAtMinutes error = %v, want *DegenerateOrbitError", err)
	}

	var propErr PropagationError
	if !errors.As(err, &propErr) {
		t.Error("DegenerateOrbitError does not implement PropagationError")
	}
}

// TestStateAtSetsTime verifies the absolute-time wrapper agrees with the
// tsince form and stamps the instant.
func TestStateAtSetsTime(t *testing.T) {
	m := mustModel(t, "ISS", issLine1, issLine2)

	at := m.Epoch().Add(90 * time.Minute)
	st, err := m.StateAt(at)
	if err != nil {
		t.Fatalf("StateAt failed: %v", err)
	}
	if !st.Time.Equal(at) {
		t.Errorf("State.Time = %v, want %v", st.Time, at)
	}

	raw, err := m.StateAtMinutes(90)
	if err != nil {
		t.Fatalf("StateAtMinutes failed: %v", err)
	}
	if st.X != raw.X || st.Y != raw.Y || st.Z != raw.Z {
		t.Errorf("StateAt and StateAtMinutes disagree: %+v vs %+v", st, raw)
	}
}

// TestErrorTypes pins the error taxonomy: decay and degenerate orbits are
// propagation errors, deep-space rejection is not.
func TestErrorTypes(t *testing.T) {
	var propErr PropagationError

	if !errors.As(error(&DecayError{Tsince: 10, RadiusER: 0.99}), &propErr) {
		t.Error("DecayError should implement PropagationError")
	}
	if !errors.As(error(&DegenerateOrbitError{Tsince: 10, Quantity: "eccentricity", Value: -0.1}), &propErr) {
		t.Error("DegenerateOrbitError should implement PropagationError")
	}
	if errors.As(error(&DeepSpaceError{PeriodMinutes: 1436}), &propErr) {
		t.Error("DeepSpaceError should not implement PropagationError")
	}
}
