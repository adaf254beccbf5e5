package core

import (
	"github.com/matterwavelabs/splitstep/grid"
	"github.com/matterwavelabs/splitstep/internal/parallel"
)

// ParticleNumber returns the particle number of one component: the sum of
// |Psi|^2 over all grid indices scaled by the real-space volume element.
// The reduction runs as per-worker partial sums combined in a second, ordered
// phase; the summation order may perturb the last bits.
func (p *Propagator) ParticleNumber(comp int) (float64, error) {
	if err := p.checkComp(comp); err != nil {
		return 0, err
	}
	psi := p.fields[comp].Data()

	partials := make([]float64, parallel.Workers())
	parallel.ForWorker(p.desc.N, func(worker, lo, hi int) {
		var s float64
		for l := lo; l < hi; l++ {
			v := psi[l]
			s += real(v)*real(v) + imag(v)*imag(v)
		}
		partials[worker] = s
	})

	var sum float64
	for _, s := range partials {
		sum += s
	}
	return p.desc.Ar * sum, nil
}

// PositionExpectation returns the density-weighted mean position of one
// component, one entry per grid dimension. Evaluated in real-space
// representation.
func (p *Propagator) PositionExpectation(comp int) ([]float64, error) {
	if err := p.checkComp(comp); err != nil {
		return nil, err
	}
	res := p.expectation(p.fields[comp], p.desc.X)
	for d := range res {
		res[d] *= p.desc.Ar
	}
	return res, nil
}

// MomentumExpectation returns the density-weighted mean momentum of one
// component. The field is transformed to momentum space for the reduction and
// back afterwards; the stored real-space representation is unchanged up to
// floating-point rounding.
func (p *Propagator) MomentumExpectation(comp int) ([]float64, error) {
	if err := p.checkComp(comp); err != nil {
		return nil, err
	}
	f := p.fields[comp]
	f.Transform(grid.Forward)
	res := p.expectation(f, p.desc.K)
	f.Transform(grid.Backward)
	for d := range res {
		res[d] *= p.desc.ArK
	}
	return res, nil
}

// expectation reduces coord(l, d) * |Psi[l]|^2 over all indices for every
// dimension, using per-worker partial accumulators combined in order.
func (p *Propagator) expectation(f *grid.Field, coord func(l, dim int) float64) []float64 {
	dim := p.desc.Dim
	psi := f.Data()

	partials := make([]float64, parallel.Workers()*dim)
	parallel.ForWorker(p.desc.N, func(worker, lo, hi int) {
		acc := partials[worker*dim : (worker+1)*dim]
		for l := lo; l < hi; l++ {
			v := psi[l]
			den := real(v)*real(v) + imag(v)*imag(v)
			for d := 0; d < dim; d++ {
				acc[d] += coord(l, d) * den
			}
		}
	})

	res := make([]float64, dim)
	for w := 0; w < parallel.Workers(); w++ {
		for d := 0; d < dim; d++ {
			res[d] += partials[w*dim+d]
		}
	}
	return res
}
