package core

import "fmt"

// PotentialStore holds the optional time-independent external potential, one
// real array per internal state. The store is logically zero everywhere until
// Init is called; reads never fail, writes require initialization.
type PotentialStore struct {
	states      int
	n           int
	v           [][]float64
	initialized bool
}

func newPotentialStore(states, n int) *PotentialStore {
	return &PotentialStore{states: states, n: n}
}

// Init allocates one zero-filled array per component. Idempotent.
func (s *PotentialStore) Init() {
	if s.initialized {
		return
	}
	s.v = make([][]float64, s.states)
	for i := range s.v {
		s.v[i] = make([]float64, s.n)
	}
	s.initialized = true
}

// Initialized reports whether Init has been called.
func (s *PotentialStore) Initialized() bool { return s.initialized }

// Set writes one potential value. The store must be initialized and both
// indices must be in range.
func (s *PotentialStore) Set(comp, index int, val float64) error {
	if !s.initialized {
		return ErrPotentialNotInitialized
	}
	if comp < 0 || comp >= s.states {
		return fmt.Errorf("%w: component %d of %d", ErrComponentOutOfRange, comp, s.states)
	}
	if index < 0 || index >= s.n {
		return fmt.Errorf("%w: index %d of %d", ErrIndexOutOfRange, index, s.n)
	}
	s.v[comp][index] = val
	return nil
}

// At returns the potential for a component at a grid index. An uninitialized
// store reads as zero potential everywhere.
func (s *PotentialStore) At(comp, index int) float64 {
	if !s.initialized {
		return 0
	}
	return s.v[comp][index]
}

// Component returns the backing array for one component, or nil when the
// store was never initialized.
func (s *PotentialStore) Component(comp int) []float64 {
	if !s.initialized || comp < 0 || comp >= s.states {
		return nil
	}
	return s.v[comp]
}
