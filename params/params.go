// Package params loads the simulation parameter file: named constants, input
// file names, the nonlinear coupling matrix, and the ordered sequence list
// consumed by the propagation core.
package params

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/matterwavelabs/splitstep/model"
)

// ErrBadParams indicates a structurally invalid parameter file.
var ErrBadParams = errors.New("params: invalid parameter file")

// Handler exposes the parsed parameter file.
type Handler struct {
	v        *viper.Viper
	sequence []model.SequenceItem

	dt       float64
	states   int
	alpha    []float64
	gs       []float64
	files    []string
	outDir   string
}

type constantsSchema struct {
	Dt             float64   `mapstructure:"dt"`
	InternalStates int       `mapstructure:"internal_states"`
	Alpha          []float64 `mapstructure:"alpha_1"`
	GS             []float64 `mapstructure:"gs_1"`
}

type sequenceSchema struct {
	Name         string    `mapstructure:"name"`
	Content      string    `mapstructure:"content"`
	Comp         int       `mapstructure:"comp"`
	Duration     []float64 `mapstructure:"duration"`
	Dt           float64   `mapstructure:"dt"`
	Nk           int       `mapstructure:"nk"`
	OutputFreq   string    `mapstructure:"output_freq"`
	ParticleFreq string    `mapstructure:"pn_freq"`
	CustomFreq   string    `mapstructure:"custom_freq"`
}

// Load reads and validates one parameter file (any format viper understands;
// YAML in practice).
func Load(path string) (*Handler, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read parameter file %s: %w", path, err)
	}

	var consts constantsSchema
	if err := v.UnmarshalKey("constants", &consts); err != nil {
		return nil, fmt.Errorf("%w: constants: %v", ErrBadParams, err)
	}
	if consts.InternalStates < 1 {
		consts.InternalStates = 1
	}
	if consts.Dt <= 0 {
		return nil, fmt.Errorf("%w: constants.dt must be positive", ErrBadParams)
	}
	if len(consts.Alpha) == 0 {
		return nil, fmt.Errorf("%w: constants.alpha_1 missing", ErrBadParams)
	}
	s := consts.InternalStates
	if consts.GS != nil && len(consts.GS) != s*s {
		return nil, fmt.Errorf("%w: constants.gs_1 has %d entries, want %d",
			ErrBadParams, len(consts.GS), s*s)
	}

	var rawSeq []sequenceSchema
	if err := v.UnmarshalKey("sequence", &rawSeq); err != nil {
		return nil, fmt.Errorf("%w: sequence: %v", ErrBadParams, err)
	}
	sequence := make([]model.SequenceItem, 0, len(rawSeq))
	for i, r := range rawSeq {
		item, err := toSequenceItem(r)
		if err != nil {
			return nil, fmt.Errorf("%w: sequence entry %d: %v", ErrBadParams, i, err)
		}
		sequence = append(sequence, item)
	}

	h := &Handler{
		v:        v,
		sequence: sequence,
		dt:       consts.Dt,
		states:   s,
		alpha:    consts.Alpha,
		gs:       consts.GS,
		outDir:   v.GetString("simulation.output_dir"),
	}
	if err := h.resolveInputFiles(); err != nil {
		return nil, err
	}
	return h, nil
}

func toSequenceItem(r sequenceSchema) (model.SequenceItem, error) {
	if r.Name == "" {
		return model.SequenceItem{}, errors.New("missing step name")
	}
	out, err := model.ParseFreq(r.OutputFreq)
	if err != nil {
		return model.SequenceItem{}, err
	}
	pn, err := model.ParseFreq(r.ParticleFreq)
	if err != nil {
		return model.SequenceItem{}, err
	}
	custom, err := model.ParseFreq(r.CustomFreq)
	if err != nil {
		return model.SequenceItem{}, err
	}
	nk := r.Nk
	if nk == 0 {
		nk = 1
	}
	return model.SequenceItem{
		Name:         r.Name,
		Content:      r.Content,
		Comp:         r.Comp,
		Duration:     r.Duration,
		Dt:           r.Dt,
		Nk:           nk,
		OutputFreq:   out,
		ParticleFreq: pn,
		CustomFreq:   custom,
	}, nil
}

// resolveInputFiles collects one input snapshot per internal state. The first
// component's file is keyed simulation.filename; further components use the
// deterministic keys simulation.filename_2, filename_3, ...
func (h *Handler) resolveInputFiles() error {
	files := make([]string, 0, h.states)
	first := h.v.GetString("simulation.filename")
	if first == "" {
		return fmt.Errorf("%w: simulation.filename missing", ErrBadParams)
	}
	files = append(files, first)
	for i := 1; i < h.states; i++ {
		key := fmt.Sprintf("simulation.filename_%d", i+1)
		f := h.v.GetString(key)
		if f == "" {
			return fmt.Errorf("%w: %s missing for internal state %d", ErrBadParams, key, i)
		}
		files = append(files, f)
	}
	h.files = files
	return nil
}

// Dt returns the configured time step.
func (h *Handler) Dt() float64 { return h.dt }

// InternalStates returns the number of wavefunction components.
func (h *Handler) InternalStates() int { return h.states }

// Alpha returns the per-dimension kinetic scaling vector.
func (h *Handler) Alpha() []float64 { return h.alpha }

// GS returns the row-major coupling matrix, or nil when not configured.
func (h *Handler) GS() []float64 { return h.gs }

// InputFiles returns one snapshot path per internal state.
func (h *Handler) InputFiles() []string { return h.files }

// OutputDir returns the snapshot output directory ("" means the working
// directory).
func (h *Handler) OutputDir() string { return h.outDir }

// Sequence returns the ordered instruction list.
func (h *Handler) Sequence() []model.SequenceItem { return h.sequence }
