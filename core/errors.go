package core

import "errors"

// Domain errors for the propagation core. Precondition violations surface as
// wrapped sentinels at the call boundary; configuration errors abort the run.
var (
	// ErrComponentOutOfRange indicates a component index outside
	// [0, number of internal states).
	ErrComponentOutOfRange = errors.New("core: component index out of range")

	// ErrIndexOutOfRange indicates a grid index outside [0, N).
	ErrIndexOutOfRange = errors.New("core: grid index out of range")

	// ErrPotentialNotInitialized indicates a write to the potential store
	// before InitPotential.
	ErrPotentialNotInitialized = errors.New("core: potential store not initialized")

	// ErrUnknownStep indicates a sequence instruction naming a step operator
	// missing from the dispatch table. Unrecoverable for the whole run.
	ErrUnknownStep = errors.New("core: unknown step operator")

	// ErrBadMomentumVector indicates a set_momentum payload with fewer
	// numeric tokens than grid dimensions.
	ErrBadMomentumVector = errors.New("core: malformed momentum vector")

	// ErrBadSequence indicates a structurally invalid sequence instruction,
	// e.g. a sub-step count below one.
	ErrBadSequence = errors.New("core: invalid sequence instruction")

	// ErrBadConfig indicates inconsistent propagator construction arguments.
	ErrBadConfig = errors.New("core: invalid configuration")
)
