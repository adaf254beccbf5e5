// Package grid owns the discretised spatial/momentum grid and the
// per-component wavefunction arrays the propagation core operates on.
package grid

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/matterwavelabs/splitstep/model"
)

// MaxDims is the highest supported grid dimensionality.
const MaxDims = 3

var (
	// ErrBadGeometry indicates inconsistent grid construction arguments.
	ErrBadGeometry = errors.New("grid: invalid geometry")
)

// Descriptor captures the grid geometry: per-dimension extents and spacings,
// the linear-index layout, and the physical scaling factors used by the
// reductions. Immutable after construction.
type Descriptor struct {
	Dim int
	N   int

	// Dims holds the per-dimension point counts; unused dimensions are 1.
	Dims [MaxDims]int

	XMin [MaxDims]float64
	XMax [MaxDims]float64
	Dx   [MaxDims]float64
	Dk   [MaxDims]float64

	// Ar is the real-space volume element, the weight of one grid point in
	// real-space reductions. ArK is the corresponding momentum-space weight
	// for reductions over an unnormalised forward transform: with
	// sum|FFT|^2 = N * sum|psi|^2 (Parseval) and dk = 2*pi/(n*dx) per
	// dimension, the continuum-normalised momentum density weight works out
	// to Ar/N.
	Ar  float64
	ArK float64

	strides [MaxDims]int
	x       [MaxDims][]float64
	k       [MaxDims][]float64
}

// NewDescriptor builds a grid descriptor for dim dimensions with the given
// per-dimension point counts and real-space extents [xmin, xmax).
func NewDescriptor(dim int, dims []int, xmin, xmax []float64) (*Descriptor, error) {
	if dim < 1 || dim > MaxDims {
		return nil, fmt.Errorf("%w: dim %d", ErrBadGeometry, dim)
	}
	if len(dims) < dim || len(xmin) < dim || len(xmax) < dim {
		return nil, fmt.Errorf("%w: need %d entries per per-dimension argument", ErrBadGeometry, dim)
	}

	d := &Descriptor{Dim: dim, N: 1, Ar: 1}
	for i := range d.Dims {
		d.Dims[i] = 1
	}
	for i := 0; i < dim; i++ {
		n := dims[i]
		if n < 1 {
			return nil, fmt.Errorf("%w: dimension %d has %d points", ErrBadGeometry, i, n)
		}
		if xmax[i] <= xmin[i] {
			return nil, fmt.Errorf("%w: empty extent in dimension %d", ErrBadGeometry, i)
		}
		d.Dims[i] = n
		d.N *= n
		d.XMin[i] = xmin[i]
		d.XMax[i] = xmax[i]
		d.Dx[i] = (xmax[i] - xmin[i]) / float64(n)
		d.Dk[i] = 2 * math.Pi / (xmax[i] - xmin[i])
		d.Ar *= d.Dx[i]
	}
	d.ArK = d.Ar / float64(d.N)

	// Row-major layout with the first dimension slowest, matching the
	// snapshot payload enumeration order.
	stride := 1
	for i := dim - 1; i >= 0; i-- {
		d.strides[i] = stride
		stride *= d.Dims[i]
	}

	for i := 0; i < dim; i++ {
		n := d.Dims[i]
		xs := make([]float64, n)
		if n > 1 {
			floats.Span(xs, d.XMin[i], d.XMax[i]-d.Dx[i])
		} else {
			xs[0] = d.XMin[i]
		}
		d.x[i] = xs

		// FFT frequency ordering: 0..n/2-1, then the negative half.
		ks := make([]float64, n)
		for j := 0; j < n; j++ {
			f := j
			if j >= (n+1)/2 {
				f = j - n
			}
			ks[j] = float64(f) * d.Dk[i]
		}
		d.k[i] = ks
	}
	return d, nil
}

// FromHeader reconstructs the descriptor a snapshot header describes.
func FromHeader(h *model.Header) (*Descriptor, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	dim := int(h.NDims)
	dims := []int{int(h.NDimX), int(h.NDimY), int(h.NDimZ)}
	xmin := []float64{h.XMin, h.YMin, h.ZMin}
	xmax := []float64{h.XMax, h.YMax, h.ZMax}
	return NewDescriptor(dim, dims[:dim], xmin[:dim], xmax[:dim])
}

// FillHeader writes the grid geometry into a header record.
func (d *Descriptor) FillHeader(h *model.Header) {
	h.Nself = model.HeaderBytes
	h.NDims = int64(d.Dim)
	h.NDimX = int64(d.Dims[0])
	h.NDimY = int64(d.Dims[1])
	h.NDimZ = int64(d.Dims[2])
	h.XMin, h.XMax, h.Dx, h.Dkx = d.XMin[0], d.XMax[0], d.Dx[0], d.Dk[0]
	if d.Dim >= 2 {
		h.YMin, h.YMax, h.Dy, h.Dky = d.XMin[1], d.XMax[1], d.Dx[1], d.Dk[1]
	}
	if d.Dim >= 3 {
		h.ZMin, h.ZMax, h.Dz, h.Dkz = d.XMin[2], d.XMax[2], d.Dx[2], d.Dk[2]
	}
}

// index returns the per-dimension index of linear index l along dimension dim.
func (d *Descriptor) index(l, dim int) int {
	return (l / d.strides[dim]) % d.Dims[dim]
}

// X returns the real-space coordinate along dimension dim at linear index l.
func (d *Descriptor) X(l, dim int) float64 {
	return d.x[dim][d.index(l, dim)]
}

// K returns the momentum coordinate along dimension dim at linear index l,
// in FFT frequency ordering.
func (d *Descriptor) K(l, dim int) float64 {
	return d.k[dim][d.index(l, dim)]
}

// KSquared returns the alpha-weighted quadratic form k . diag(alpha) . k at
// linear index l. alpha must have at least Dim entries.
func (d *Descriptor) KSquared(l int, alpha []float64) float64 {
	var s float64
	for i := 0; i < d.Dim; i++ {
		k := d.K(l, i)
		s += alpha[i] * k * k
	}
	return s
}

// lines returns the number of independent 1-D lines along the given axis.
func (d *Descriptor) lines(axis int) int {
	return d.N / d.Dims[axis]
}

// lineBase returns the linear index of the first element of the line'th line
// along axis, enumerating the remaining dimensions in row-major order.
func (d *Descriptor) lineBase(axis, line int) int {
	base := 0
	rem := line
	for i := d.Dim - 1; i >= 0; i-- {
		if i == axis {
			continue
		}
		base += (rem % d.Dims[i]) * d.strides[i]
		rem /= d.Dims[i]
	}
	return base
}
