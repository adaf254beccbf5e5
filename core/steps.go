package core

import (
	"math"

	"github.com/matterwavelabs/splitstep/grid"
	"github.com/matterwavelabs/splitstep/internal/parallel"
)

// FullKineticStep applies exp(-i dt K) to every component in momentum space
// and advances simulation time by dt.
func (p *Propagator) FullKineticStep() {
	p.kineticStep(p.kin.full)
	p.header.T += p.header.Dt
}

// HalfKineticStep applies exp(-i dt K / 2) and advances time by dt/2.
func (p *Propagator) HalfKineticStep() {
	p.kineticStep(p.kin.half)
	p.header.T += 0.5 * p.header.Dt
}

func (p *Propagator) kineticStep(phase []complex128) {
	for _, f := range p.fields {
		f.Transform(grid.Forward)
	}
	for _, f := range p.fields {
		psi := f.Data()
		parallel.For(p.desc.N, func(lo, hi int) {
			for l := lo; l < hi; l++ {
				psi[l] *= phase[l]
			}
		})
	}
	for _, f := range p.fields {
		f.Transform(grid.Backward)
	}
}

// NonlinearStep applies the real-space phase rotation from the external
// potential and the density-dependent self-interaction:
//
//	phi_i(x) = -dt * ( V_i(x) + sum_j gs[i,j] |Psi_j(x)|^2 )
//
// All component densities at a grid index are read before any component at
// that index is rotated, so the update depends only on the instantaneous
// local density. Simulation time is not advanced; the surrounding kinetic
// steps carry the clock.
func (p *Propagator) NonlinearStep() {
	dt := -p.header.Dt
	states := len(p.fields)

	data := make([][]complex128, states)
	for i, f := range p.fields {
		data[i] = f.Data()
	}

	parallel.For(p.desc.N, func(lo, hi int) {
		density := make([]float64, states)
		for l := lo; l < hi; l++ {
			for i := 0; i < states; i++ {
				v := data[i][l]
				density[i] = real(v)*real(v) + imag(v)*imag(v)
			}
			for i := 0; i < states; i++ {
				phi := p.potential.At(i, l)
				for j := 0; j < states; j++ {
					phi += p.gs[i*states+j] * density[j]
				}
				phi *= dt
				s, c := math.Sincos(phi)
				data[i][l] *= complex(c, s)
			}
		}
	})
}

// SetupMomentum applies the spatially varying phase kick exp(i p.x) to one
// component. Pure real-space operation; no time advance.
func (p *Propagator) SetupMomentum(momentum []float64, comp int) error {
	if err := p.checkComp(comp); err != nil {
		return err
	}
	if len(momentum) < p.desc.Dim {
		return ErrBadMomentumVector
	}

	psi := p.fields[comp].Data()
	parallel.For(p.desc.N, func(lo, hi int) {
		for l := lo; l < hi; l++ {
			var phase float64
			for d := 0; d < p.desc.Dim; d++ {
				phase += momentum[d] * p.desc.X(l, d)
			}
			s, c := math.Sincos(phase)
			psi[l] *= complex(c, s)
		}
	})
	return nil
}

// InitPotential allocates the external potential store. Idempotent.
func (p *Propagator) InitPotential() { p.potential.Init() }

// SetPotential writes one external potential value for a component.
func (p *Propagator) SetPotential(comp, index int, val float64) error {
	return p.potential.Set(comp, index, val)
}
