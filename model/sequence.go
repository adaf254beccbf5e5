package model

import (
	"errors"
	"fmt"
	"strings"
)

// Freq selects how often a per-iteration action of the sequence engine fires.
type Freq int

const (
	// FreqNone disables the action for the whole instruction.
	FreqNone Freq = iota
	// FreqEach fires after every outer propagation iteration.
	FreqEach
	// FreqLast fires once, after the final iteration.
	FreqLast
	// FreqPacked appends every iteration's state to one per-sequence file.
	// Only meaningful for snapshot output.
	FreqPacked
)

// ErrBadFreq indicates an unrecognised frequency keyword in a parameter file.
var ErrBadFreq = errors.New("model: unknown frequency")

// ParseFreq maps the parameter-file keywords onto Freq values. The empty
// string means none.
func ParseFreq(s string) (Freq, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return FreqNone, nil
	case "each":
		return FreqEach, nil
	case "last":
		return FreqLast, nil
	case "packed":
		return FreqPacked, nil
	}
	return FreqNone, fmt.Errorf("%w: %q", ErrBadFreq, s)
}

func (f Freq) String() string {
	switch f {
	case FreqNone:
		return "none"
	case FreqEach:
		return "each"
	case FreqLast:
		return "last"
	case FreqPacked:
		return "packed"
	}
	return fmt.Sprintf("Freq(%d)", int(f))
}

// SequenceItem is one instruction of the run plan. Instructions are consumed
// strictly in order by the sequence engine; the engine keeps no state across
// instructions beyond the shared header time.
type SequenceItem struct {
	// Name selects the step operator from the dispatch table, or the
	// special instruction "set_momentum".
	Name string
	// Content is an operator-specific payload, e.g. a comma-separated
	// momentum vector for set_momentum.
	Content string
	// Comp is the target component for component-addressed instructions.
	Comp int
	// Duration holds the requested per-component propagation durations.
	// The engine propagates for the maximum entry.
	Duration []float64
	// Dt is the time step to use for this instruction. When it differs
	// from the current header dt the kinetic operators are recomputed.
	Dt float64
	// Nk is the number of inner sub-steps between kinetic half steps.
	Nk int

	// OutputFreq controls snapshot output, ParticleFreq particle-number
	// reporting, CustomFreq invocation of the custom step hook.
	OutputFreq   Freq
	ParticleFreq Freq
	CustomFreq   Freq
}
