package core

import (
	"fmt"

	"github.com/matterwavelabs/splitstep/grid"
	"github.com/matterwavelabs/splitstep/internal/logging"
	"github.com/matterwavelabs/splitstep/internal/observability"
	"github.com/matterwavelabs/splitstep/model"
)

// Built-in step operator names resolvable through the dispatch table.
const (
	StepHalf        = "half_step"
	StepFull        = "full_step"
	StepFreeprop    = "freeprop"
	StepFreepropLin = "freeprop_lin"

	// SetMomentumStep is the momentum-kick instruction handled directly by
	// the sequence engine, not through the dispatch table.
	SetMomentumStep = "set_momentum"
)

// StepFunc is one entry of the step dispatch table. Step operators mutate the
// whole field set in place; the sequence item carries operator-specific
// context such as the target component.
type StepFunc func(p *Propagator, item *model.SequenceItem)

// SequenceHandler is consulted once per instruction before built-in handling.
// Returning true consumes the instruction.
type SequenceHandler interface {
	HandleSequence(p *Propagator, item *model.SequenceItem) bool
}

// NoopSequenceHandler is the explicit "no custom handling" default.
type NoopSequenceHandler struct{}

// HandleSequence never consumes an instruction.
func (NoopSequenceHandler) HandleSequence(*Propagator, *model.SequenceItem) bool { return false }

// Config collects the construction inputs of a propagator.
type Config struct {
	// Files names one snapshot file per internal state; the field set size
	// is len(Files). The first file's header fixes the grid geometry.
	Files []string

	// Alpha is the per-dimension kinetic scaling vector. Must cover the
	// grid dimensionality.
	Alpha []float64

	// GS is the row-major S x S nonlinear coupling matrix between internal
	// states. Nil means no self-interaction.
	GS []float64

	// Dt overrides the header time step when non-zero.
	Dt float64

	// OutDir is where snapshot files are written. Empty means the current
	// working directory.
	OutDir string

	Logger  logging.Logger
	Metrics *observability.PropagatorCollector
}

// Propagator owns the field set and advances it through split-step evolution.
// All mutating operations run on the single control thread; data parallelism
// is confined to the fork-join regions the individual operators open.
type Propagator struct {
	header model.Header
	desc   *grid.Descriptor
	fields []*grid.Field

	alpha []float64
	gs    []float64

	kin       *kineticCache
	potential *PotentialStore

	steps   map[string]StepFunc
	custom  StepFunc
	handler SequenceHandler

	outDir  string
	log     logging.Logger
	metrics *observability.PropagatorCollector
}

// New constructs a propagator from the snapshot files named in cfg, reading
// the grid geometry from the first file's header and loading every
// component's initial wavefunction. Any unreadable input file is fatal and
// reported before any stepping begins.
func New(cfg Config) (*Propagator, error) {
	if len(cfg.Files) == 0 {
		return nil, fmt.Errorf("%w: no input files", ErrBadConfig)
	}

	h, err := model.ReadHeaderFile(cfg.Files[0])
	if err != nil {
		return nil, err
	}
	desc, err := grid.FromHeader(h)
	if err != nil {
		return nil, err
	}

	fields := make([]*grid.Field, len(cfg.Files))
	for i := range fields {
		fields[i] = grid.NewField(desc)
		fields[i].SetFixed(false)
	}

	p, err := newPropagator(desc, fields, cfg)
	if err != nil {
		return nil, err
	}
	p.header.T = h.T
	if cfg.Dt == 0 && h.Dt != 0 {
		p.SetDt(h.Dt)
	}

	for i, path := range cfg.Files {
		if err := loadComponent(path, desc, fields[i]); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// NewFromFields constructs a propagator over already-populated fields. All
// fields must share the same grid descriptor. cfg.Files is ignored.
func NewFromFields(fields []*grid.Field, cfg Config) (*Propagator, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no fields", ErrBadConfig)
	}
	desc := fields[0].Desc()
	for i, f := range fields {
		if f.Desc() != desc {
			return nil, fmt.Errorf("%w: field %d on a different grid", ErrBadConfig, i)
		}
	}
	return newPropagator(desc, fields, cfg)
}

func newPropagator(desc *grid.Descriptor, fields []*grid.Field, cfg Config) (*Propagator, error) {
	states := len(fields)

	if len(cfg.Alpha) < desc.Dim {
		return nil, fmt.Errorf("%w: alpha has %d entries, grid has %d dimensions",
			ErrBadConfig, len(cfg.Alpha), desc.Dim)
	}
	alpha := make([]float64, desc.Dim)
	copy(alpha, cfg.Alpha)

	gs := make([]float64, states*states)
	if cfg.GS != nil {
		if len(cfg.GS) != states*states {
			return nil, fmt.Errorf("%w: coupling matrix has %d entries, want %d",
				ErrBadConfig, len(cfg.GS), states*states)
		}
		copy(gs, cfg.GS)
	}

	log := cfg.Logger
	if log == nil {
		log = logging.Noop()
	}

	p := &Propagator{
		desc:      desc,
		fields:    fields,
		alpha:     alpha,
		gs:        gs,
		potential: newPotentialStore(states, desc.N),
		handler:   NoopSequenceHandler{},
		outDir:    cfg.OutDir,
		log:       log,
		metrics:   cfg.Metrics,
	}

	desc.FillHeader(&p.header)
	p.header.NDatatyp = model.ComplexSampleBytes
	p.header.NselfAndData = model.HeaderBytes + p.header.PayloadBytes()
	p.header.BComplex = 1

	dt := cfg.Dt
	if dt == 0 {
		dt = 1e-3
	}
	p.header.Dt = dt
	p.kin = newKineticCache(desc, alpha, dt)

	p.steps = map[string]StepFunc{
		StepHalf:     func(p *Propagator, _ *model.SequenceItem) { p.HalfKineticStep() },
		StepFull:     func(p *Propagator, _ *model.SequenceItem) { p.FullKineticStep() },
		StepFreeprop: func(p *Propagator, _ *model.SequenceItem) { p.NonlinearStep() },
		// Linear regime: the interaction step degenerates to the identity.
		StepFreepropLin: func(*Propagator, *model.SequenceItem) {},
	}
	return p, nil
}

// Components returns the number of internal states.
func (p *Propagator) Components() int { return len(p.fields) }

// Desc returns the grid descriptor.
func (p *Propagator) Desc() *grid.Descriptor { return p.desc }

// Header returns a copy of the current simulation header.
func (p *Propagator) Header() model.Header { return p.header }

// Time returns the current simulation time.
func (p *Propagator) Time() float64 { return p.header.T }

// Dt returns the current time step.
func (p *Propagator) Dt() float64 { return p.header.Dt }

// SetDt updates the time step and deterministically recomputes the kinetic
// phase arrays, which are derived state keyed on (dt, alpha).
func (p *Propagator) SetDt(dt float64) {
	p.header.Dt = dt
	p.kin.ensure(dt)
}

// Field returns the wavefunction of one internal state.
func (p *Propagator) Field(comp int) (*grid.Field, error) {
	if err := p.checkComp(comp); err != nil {
		return nil, err
	}
	return p.fields[comp], nil
}

// Potential exposes the external potential store.
func (p *Propagator) Potential() *PotentialStore { return p.potential }

// SetCustomStep installs the optional custom step hook invoked per the
// instruction's custom frequency.
func (p *Propagator) SetCustomStep(fn StepFunc) { p.custom = fn }

// SetSequenceHandler replaces the custom sequence strategy consulted before
// built-in instruction handling.
func (p *Propagator) SetSequenceHandler(h SequenceHandler) {
	if h == nil {
		h = NoopSequenceHandler{}
	}
	p.handler = h
}

// checkComp validates a component index. The upper bound is exclusive: the
// legal range is [0, Components).
func (p *Propagator) checkComp(comp int) error {
	if comp < 0 || comp >= len(p.fields) {
		return fmt.Errorf("%w: %d of %d", ErrComponentOutOfRange, comp, len(p.fields))
	}
	return nil
}
