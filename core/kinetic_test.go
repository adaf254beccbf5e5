package core

import (
	"math"
	"testing"
)

func TestHalfPhaseIsSquareRootOfFullPhase(t *testing.T) {
	p := newTestPropagator(t, Config{Dt: 0.01}, 1)

	for l := 0; l < p.desc.N; l++ {
		h := p.kin.half[l]
		f := p.kin.full[l]
		if d := cmplxAbs(h*h - f); d > 1e-14 {
			t.Fatalf("index %d: half^2 differs from full by %g", l, d)
		}
		if d := math.Abs(cmplxAbs(f) - 1); d > 1e-14 {
			t.Fatalf("index %d: |full| = 1%+g, want unit magnitude", l, d)
		}
	}
}

func TestZeroMomentumPhaseIsIdentity(t *testing.T) {
	p := newTestPropagator(t, Config{Dt: 0.01}, 1)

	// Linear index 0 carries k = 0 in FFT frequency ordering.
	if p.kin.full[0] != 1 {
		t.Fatalf("full[0] = %v, want 1", p.kin.full[0])
	}
	if p.kin.half[0] != 1 {
		t.Fatalf("half[0] = %v, want 1", p.kin.half[0])
	}
}

func TestPhaseMatchesDispersionRelation(t *testing.T) {
	alpha := []float64{0.5}
	p := newTestPropagator(t, Config{Dt: 0.01, Alpha: alpha}, 1)

	for l := 0; l < p.desc.N; l++ {
		k := p.desc.K(l, 0)
		phi := -0.01 * alpha[0] * k * k
		want := complex(math.Cos(phi), math.Sin(phi))
		if d := cmplxAbs(p.kin.full[l] - want); d > 1e-14 {
			t.Fatalf("index %d: full phase off by %g", l, d)
		}
	}
}
