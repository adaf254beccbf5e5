package core

import (
	"math"

	"github.com/matterwavelabs/splitstep/grid"
	"github.com/matterwavelabs/splitstep/internal/parallel"
)

// kineticCache holds the momentum-space phase factors of the kinetic
// evolution operator. The arrays are derived state keyed on (dt, alpha):
// they are recomputed whenever the key changes and never mutated in place
// otherwise. alpha is fixed at construction, so the effective key is dt.
type kineticCache struct {
	desc  *grid.Descriptor
	alpha []float64
	dt    float64

	// half[l] is the principal square root of full[l]: both are unit
	// magnitude, with arg(half) = arg(full)/2.
	half []complex128
	full []complex128
}

func newKineticCache(desc *grid.Descriptor, alpha []float64, dt float64) *kineticCache {
	k := &kineticCache{
		desc:  desc,
		alpha: alpha,
		half:  make([]complex128, desc.N),
		full:  make([]complex128, desc.N),
	}
	k.recompute(dt)
	return k
}

// recompute fills both phase arrays for the given time step. Each index is
// independent of every other, so the fill is a plain fork-join over the grid.
func (k *kineticCache) recompute(dt float64) {
	k.dt = dt
	parallel.For(k.desc.N, func(lo, hi int) {
		for l := lo; l < hi; l++ {
			phi := -dt * k.desc.KSquared(l, k.alpha)
			s, c := math.Sincos(0.5 * phi)
			k.half[l] = complex(c, s)
			s, c = math.Sincos(phi)
			k.full[l] = complex(c, s)
		}
	})
}

// ensure recomputes the phase arrays when the time step changed.
func (k *kineticCache) ensure(dt float64) {
	if dt != k.dt {
		k.recompute(dt)
	}
}
