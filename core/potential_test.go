package core

import (
	"errors"
	"testing"
)

func TestPotentialStoreLifecycle(t *testing.T) {
	s := newPotentialStore(2, 8)

	if s.Initialized() {
		t.Fatalf("fresh store reports initialised")
	}
	if got := s.At(0, 3); got != 0 {
		t.Fatalf("uninitialised read = %v, want 0", got)
	}
	if err := s.Set(0, 3, 1.5); !errors.Is(err, ErrPotentialNotInitialized) {
		t.Fatalf("Set before Init: %v, want ErrPotentialNotInitialized", err)
	}

	s.Init()
	if !s.Initialized() {
		t.Fatalf("store not initialised after Init")
	}
	if err := s.Set(1, 7, 2.25); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := s.At(1, 7); got != 2.25 {
		t.Fatalf("At(1,7) = %v, want 2.25", got)
	}

	// Init again must keep existing values.
	s.Init()
	if got := s.At(1, 7); got != 2.25 {
		t.Fatalf("second Init cleared values: At(1,7) = %v", got)
	}
}

func TestPotentialStoreBounds(t *testing.T) {
	s := newPotentialStore(2, 8)
	s.Init()

	if err := s.Set(2, 0, 1); !errors.Is(err, ErrComponentOutOfRange) {
		t.Fatalf("Set(2,0): %v, want ErrComponentOutOfRange", err)
	}
	if err := s.Set(-1, 0, 1); !errors.Is(err, ErrComponentOutOfRange) {
		t.Fatalf("Set(-1,0): %v, want ErrComponentOutOfRange", err)
	}
	if err := s.Set(0, 8, 1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("Set(0,8): %v, want ErrIndexOutOfRange", err)
	}
}

func TestPotentialComponentView(t *testing.T) {
	s := newPotentialStore(1, 4)
	if s.Component(0) != nil {
		t.Fatalf("uninitialised store returned a backing array")
	}
	s.Init()
	v := s.Component(0)
	if len(v) != 4 {
		t.Fatalf("component length = %d, want 4", len(v))
	}
	v[2] = 9
	if got := s.At(0, 2); got != 9 {
		t.Fatalf("backing array not shared: At(0,2) = %v", got)
	}
	if s.Component(1) != nil {
		t.Fatalf("out-of-range component should be nil")
	}
}
