package core

import (
	"math"
	"testing"

	"github.com/matterwavelabs/splitstep/grid"
)

func TestFullKineticStepIsReversible(t *testing.T) {
	p := newTestPropagator(t, Config{Dt: 0.01}, 1)
	f, _ := p.Field(0)

	orig := make([]complex128, p.desc.N)
	copy(orig, f.Data())

	p.FullKineticStep()
	p.SetDt(-0.01)
	p.FullKineticStep()

	if d := maxComplexDiff(orig, f.Data()); d > 1e-10 {
		t.Fatalf("field differs from original by %g after dt/-dt round trip", d)
	}
	if math.Abs(p.Time()) > 1e-15 {
		t.Fatalf("time = %v after cancelling steps, want 0", p.Time())
	}
}

func TestKineticStepConservesNorm(t *testing.T) {
	p := newTestPropagator(t, Config{Dt: 0.01}, 1)

	before, _ := p.ParticleNumber(0)
	p.FullKineticStep()
	p.HalfKineticStep()
	after, _ := p.ParticleNumber(0)

	if d := math.Abs(after - before); d > 1e-12 {
		t.Fatalf("particle number drifted by %g across unitary steps", d)
	}
}

func TestKineticStepAdvancesTime(t *testing.T) {
	p := newTestPropagator(t, Config{Dt: 0.01}, 1)

	p.HalfKineticStep()
	if d := math.Abs(p.Time() - 0.005); d > 1e-15 {
		t.Fatalf("time after half step = %v, want 0.005", p.Time())
	}
	p.FullKineticStep()
	if d := math.Abs(p.Time() - 0.015); d > 1e-15 {
		t.Fatalf("time after full step = %v, want 0.015", p.Time())
	}
}

func TestNonlinearStepIsIdentityWithoutInteraction(t *testing.T) {
	// Zero coupling matrix and uninitialised potential: the phase is zero at
	// every index.
	p := newTestPropagator(t, Config{Dt: 0.01}, 2)
	f0, _ := p.Field(0)

	orig := make([]complex128, p.desc.N)
	copy(orig, f0.Data())

	before := p.Time()
	p.NonlinearStep()

	if d := maxComplexDiff(orig, f0.Data()); d != 0 {
		t.Fatalf("field changed by %g with zero interaction", d)
	}
	if p.Time() != before {
		t.Fatalf("nonlinear step advanced time from %v to %v", before, p.Time())
	}
}

func TestNonlinearStepAppliesDensityPhase(t *testing.T) {
	g := 2.5
	dt := 0.01
	p := newTestPropagator(t, Config{Dt: dt, GS: []float64{g}}, 1)
	f, _ := p.Field(0)

	orig := make([]complex128, p.desc.N)
	copy(orig, f.Data())

	p.NonlinearStep()

	data := f.Data()
	for l := range data {
		v := orig[l]
		den := real(v)*real(v) + imag(v)*imag(v)
		phi := -dt * g * den
		want := v * complex(math.Cos(phi), math.Sin(phi))
		if d := cmplxAbs(data[l] - want); d > 1e-14 {
			t.Fatalf("index %d: rotation off by %g", l, d)
		}
	}
}

func TestNonlinearStepUsesCrossComponentDensity(t *testing.T) {
	dt := 0.01
	// Component 0 feels only component 1's density and vice versa.
	gs := []float64{0, 1.5, 1.5, 0}
	p := newTestPropagator(t, Config{Dt: dt, GS: gs}, 2)
	f0, _ := p.Field(0)
	f1, _ := p.Field(1)

	orig0 := make([]complex128, p.desc.N)
	copy(orig0, f0.Data())
	orig1 := make([]complex128, p.desc.N)
	copy(orig1, f1.Data())

	p.NonlinearStep()

	data0 := f0.Data()
	for l := range data0 {
		v1 := orig1[l]
		den := real(v1)*real(v1) + imag(v1)*imag(v1)
		phi := -dt * 1.5 * den
		want := orig0[l] * complex(math.Cos(phi), math.Sin(phi))
		if d := cmplxAbs(data0[l] - want); d > 1e-14 {
			t.Fatalf("index %d: cross-coupled rotation off by %g", l, d)
		}
	}
}

func TestNonlinearStepAppliesExternalPotential(t *testing.T) {
	dt := 0.01
	p := newTestPropagator(t, Config{Dt: dt}, 1)
	f, _ := p.Field(0)

	p.InitPotential()
	for l := 0; l < p.desc.N; l++ {
		x := p.desc.X(l, 0)
		if err := p.SetPotential(0, l, 0.5*x*x); err != nil {
			t.Fatalf("SetPotential(%d): %v", l, err)
		}
	}

	orig := make([]complex128, p.desc.N)
	copy(orig, f.Data())

	p.NonlinearStep()

	data := f.Data()
	for l := range data {
		x := p.desc.X(l, 0)
		phi := -dt * 0.5 * x * x
		want := orig[l] * complex(math.Cos(phi), math.Sin(phi))
		if d := cmplxAbs(data[l] - want); d > 1e-14 {
			t.Fatalf("index %d: potential rotation off by %g", l, d)
		}
	}
}

func TestSetupMomentumAppliesPhaseKick(t *testing.T) {
	p := newTestPropagator(t, Config{Dt: 0.01}, 1)
	f, _ := p.Field(0)

	orig := make([]complex128, p.desc.N)
	copy(orig, f.Data())

	k0 := 2 * p.desc.Dk[0]
	if err := p.SetupMomentum([]float64{k0}, 0); err != nil {
		t.Fatalf("SetupMomentum: %v", err)
	}

	data := f.Data()
	for l := range data {
		phase := k0 * p.desc.X(l, 0)
		want := orig[l] * complex(math.Cos(phase), math.Sin(phase))
		if d := cmplxAbs(data[l] - want); d > 1e-14 {
			t.Fatalf("index %d: phase kick off by %g", l, d)
		}
	}
}

func TestSetupMomentumTwoDimensional(t *testing.T) {
	desc, err := grid.NewDescriptor(2, []int{8, 8}, []float64{-4, -4}, []float64{4, 4})
	if err != nil {
		t.Fatalf("NewDescriptor: %v", err)
	}
	f := grid.NewField(desc)
	for l := range f.Data() {
		f.Data()[l] = 1
	}
	p, err := NewFromFields([]*grid.Field{f}, Config{Alpha: []float64{1, 1}, Dt: 0.01})
	if err != nil {
		t.Fatalf("NewFromFields: %v", err)
	}

	// Kick along x only: the applied phase is exp(i*(1.0*x + 0.0*y)).
	if err := p.SetupMomentum([]float64{1.0, 0.0}, 0); err != nil {
		t.Fatalf("SetupMomentum: %v", err)
	}

	data := f.Data()
	for _, l := range []int{0, 27, desc.N - 1} {
		x := desc.X(l, 0)
		want := complex(math.Cos(x), math.Sin(x))
		if d := cmplxAbs(data[l] - want); d > 1e-14 {
			t.Fatalf("index %d: amplitude %v, want %v", l, data[l], want)
		}
	}
}

func TestSetupMomentumRejectsBadInput(t *testing.T) {
	p := newTestPropagator(t, Config{Dt: 0.01}, 1)

	if err := p.SetupMomentum([]float64{1.0}, 3); err == nil {
		t.Fatalf("expected component bound error")
	}
	if err := p.SetupMomentum(nil, 0); err == nil {
		t.Fatalf("expected short momentum vector error")
	}
}
