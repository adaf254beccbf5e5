package grid

import (
	"github.com/mjibson/go-dsp/fft"

	"github.com/matterwavelabs/splitstep/internal/parallel"
)

// Transform directions, matching the sign convention of the propagation core:
// Forward moves the field into momentum space, Backward returns it to real
// space.
const (
	Forward  = -1
	Backward = 1
)

// Field is one internal state of the multi-component wavefunction: a complex
// array of length Descriptor.N, stored in either real-space or momentum-space
// representation.
type Field struct {
	desc     *Descriptor
	data     []complex128
	momentum bool
	fixed    bool
}

// NewField allocates a zero field on the given grid, in real-space
// representation.
func NewField(d *Descriptor) *Field {
	return &Field{desc: d, data: make([]complex128, d.N)}
}

// Desc returns the grid descriptor the field lives on.
func (f *Field) Desc() *Descriptor { return f.desc }

// Data exposes the underlying amplitude array. The slice aliases the field's
// storage; step operators mutate it in place.
func (f *Field) Data() []complex128 { return f.data }

// InMomentumSpace reports the current representation.
func (f *Field) InMomentumSpace() bool { return f.momentum }

// SetFixed marks the field as living on a fixed (non-movable) grid.
func (f *Field) SetFixed(fixed bool) { f.fixed = fixed }

// Fixed reports whether the grid is fixed.
func (f *Field) Fixed() bool { return f.fixed }

// Transform applies the d-dimensional discrete Fourier transform in the given
// direction, one axis at a time. The forward transform is unnormalised; the
// backward transform carries the full 1/N factor, so a forward/backward pair
// reproduces the input up to floating-point rounding.
func (f *Field) Transform(direction int) {
	for axis := 0; axis < f.desc.Dim; axis++ {
		f.transformAxis(axis, direction)
	}
	f.momentum = direction == Forward
}

func (f *Field) transformAxis(axis, direction int) {
	n := f.desc.Dims[axis]
	if n == 1 {
		return
	}
	stride := f.desc.strides[axis]
	lines := f.desc.lines(axis)

	parallel.For(lines, func(lo, hi int) {
		buf := make([]complex128, n)
		for line := lo; line < hi; line++ {
			base := f.desc.lineBase(axis, line)
			for j := 0; j < n; j++ {
				buf[j] = f.data[base+j*stride]
			}
			var out []complex128
			if direction == Forward {
				out = fft.FFT(buf)
			} else {
				out = fft.IFFT(buf)
			}
			for j := 0; j < n; j++ {
				f.data[base+j*stride] = out[j]
			}
		}
	})
}

// Copy returns a deep copy of the field in its current representation.
func (f *Field) Copy() *Field {
	c := &Field{desc: f.desc, data: make([]complex128, len(f.data)), momentum: f.momentum, fixed: f.fixed}
	copy(c.data, f.data)
	return c
}
