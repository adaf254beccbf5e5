package params

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/matterwavelabs/splitstep/model"
)

func writeParams(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "params.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

const fixture = `
constants:
  dt: 0.001
  internal_states: 2
  alpha_1: [1.0, 1.0]
  gs_1: [1.0, 0.5, 0.5, 1.0]
simulation:
  filename: psi0_1.bin
  filename_2: psi0_2.bin
  output_dir: out
sequence:
  - name: freeprop
    duration: [1.0]
    dt: 0.001
    nk: 10
    output_freq: last
    pn_freq: each
  - name: set_momentum
    content: "0.5,0"
    comp: 1
`

func TestLoadParsesFullFile(t *testing.T) {
	h, err := Load(writeParams(t, fixture))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if h.Dt() != 0.001 {
		t.Fatalf("dt = %v, want 0.001", h.Dt())
	}
	if h.InternalStates() != 2 {
		t.Fatalf("internal states = %d, want 2", h.InternalStates())
	}
	if got := h.Alpha(); len(got) != 2 || got[0] != 1.0 {
		t.Fatalf("alpha = %v", got)
	}
	if got := h.GS(); len(got) != 4 || got[1] != 0.5 {
		t.Fatalf("gs = %v", got)
	}
	if got := h.InputFiles(); len(got) != 2 || got[1] != "psi0_2.bin" {
		t.Fatalf("input files = %v", got)
	}
	if h.OutputDir() != "out" {
		t.Fatalf("output dir = %q, want out", h.OutputDir())
	}

	seq := h.Sequence()
	if len(seq) != 2 {
		t.Fatalf("sequence length = %d, want 2", len(seq))
	}
	first := seq[0]
	if first.Name != "freeprop" || first.Nk != 10 || first.Dt != 0.001 {
		t.Fatalf("first item = %+v", first)
	}
	if first.OutputFreq != model.FreqLast || first.ParticleFreq != model.FreqEach {
		t.Fatalf("first item frequencies = %v/%v", first.OutputFreq, first.ParticleFreq)
	}
	if first.CustomFreq != model.FreqNone {
		t.Fatalf("unset custom frequency = %v, want none", first.CustomFreq)
	}

	second := seq[1]
	if second.Name != "set_momentum" || second.Content != "0.5,0" || second.Comp != 1 {
		t.Fatalf("second item = %+v", second)
	}
	// Nk defaults to 1 when the file leaves it out.
	if second.Nk != 1 {
		t.Fatalf("defaulted nk = %d, want 1", second.Nk)
	}
}

func TestLoadDefaultsSingleState(t *testing.T) {
	h, err := Load(writeParams(t, `
constants:
  dt: 0.01
  alpha_1: [0.5]
simulation:
  filename: psi.bin
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if h.InternalStates() != 1 {
		t.Fatalf("internal states = %d, want 1", h.InternalStates())
	}
	if got := h.InputFiles(); len(got) != 1 || got[0] != "psi.bin" {
		t.Fatalf("input files = %v", got)
	}
	if h.GS() != nil {
		t.Fatalf("gs = %v, want nil when unconfigured", h.GS())
	}
}

func TestLoadRejectsBadFiles(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"non-positive dt", `
constants:
  dt: 0
  alpha_1: [1.0]
simulation:
  filename: psi.bin
`},
		{"missing alpha", `
constants:
  dt: 0.01
simulation:
  filename: psi.bin
`},
		{"wrong gs size", `
constants:
  dt: 0.01
  internal_states: 2
  alpha_1: [1.0]
  gs_1: [1.0, 2.0]
simulation:
  filename: a.bin
  filename_2: b.bin
`},
		{"missing filename", `
constants:
  dt: 0.01
  alpha_1: [1.0]
`},
		{"missing second filename", `
constants:
  dt: 0.01
  internal_states: 2
  alpha_1: [1.0]
simulation:
  filename: a.bin
`},
		{"bad frequency keyword", `
constants:
  dt: 0.01
  alpha_1: [1.0]
simulation:
  filename: psi.bin
sequence:
  - name: freeprop
    duration: [1.0]
    output_freq: sometimes
`},
		{"nameless sequence entry", `
constants:
  dt: 0.01
  alpha_1: [1.0]
simulation:
  filename: psi.bin
sequence:
  - duration: [1.0]
`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeParams(t, tc.content))
			if !errors.Is(err, ErrBadParams) {
				t.Fatalf("Load: %v, want ErrBadParams", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
