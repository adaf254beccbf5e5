package core

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/matterwavelabs/splitstep/grid"
	"github.com/matterwavelabs/splitstep/model"
)

// SaveComponent writes one component as a snapshot file: the current header
// followed by N complex samples in grid enumeration order. The file is
// created or truncated.
func (p *Propagator) SaveComponent(path string, comp int) error {
	if err := p.checkComp(comp); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot %s: %w", path, err)
	}
	defer f.Close()

	if err := p.writeComplex(f, p.fields[comp].Data()); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	p.metrics.IncSnapshots()
	return nil
}

// AppendComponent appends a header plus payload record to a packed snapshot
// file. A file that cannot be opened for appending is an unrecoverable I/O
// failure for the run.
func (p *Propagator) AppendComponent(path string, comp int) error {
	if err := p.checkComp(comp); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open packed snapshot %s for append: %w", path, err)
	}
	defer f.Close()

	if err := p.writeComplex(f, p.fields[comp].Data()); err != nil {
		return fmt.Errorf("append snapshot %s: %w", path, err)
	}
	p.metrics.IncSnapshots()
	return nil
}

// SaveReal dumps an arbitrary length-N real buffer with a header variant
// marking the payload as real-valued.
func (p *Propagator) SaveReal(path string, data []float64) error {
	if len(data) != p.desc.N {
		return fmt.Errorf("%w: buffer length %d, grid size %d", ErrBadConfig, len(data), p.desc.N)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot %s: %w", path, err)
	}
	defer f.Close()

	h := p.header
	h.BComplex = 0
	h.NDatatyp = model.RealSampleBytes
	h.NselfAndData = model.HeaderBytes + h.PayloadBytes()

	w := bufio.NewWriter(f)
	if _, err := h.WriteTo(w); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, data); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return w.Flush()
}

func (p *Propagator) writeComplex(f *os.File, data []complex128) error {
	h := p.header
	h.BComplex = 1
	h.NDatatyp = model.ComplexSampleBytes
	h.NselfAndData = model.HeaderBytes + h.PayloadBytes()

	w := bufio.NewWriter(f)
	if _, err := h.WriteTo(w); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, data); err != nil {
		return err
	}
	return w.Flush()
}

// ReadSnapshot loads a complex snapshot file: header plus exactly N complex
// samples.
func ReadSnapshot(path string) (*model.Header, []complex128, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open snapshot %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	h, err := model.ReadHeader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	if h.BComplex != 1 {
		return nil, nil, fmt.Errorf("snapshot %s: %w: payload is not complex", path, model.ErrBadHeader)
	}
	data := make([]complex128, h.GridSize())
	if err := binary.Read(r, binary.LittleEndian, data); err != nil {
		return nil, nil, fmt.Errorf("read snapshot payload %s: %w", path, err)
	}
	return h, data, nil
}

// loadComponent fills a field from a snapshot file, skipping one header-sized
// block and reading exactly N complex samples. The file's geometry must match
// the propagator's grid.
func loadComponent(path string, desc *grid.Descriptor, field *grid.Field) error {
	h, data, err := ReadSnapshot(path)
	if err != nil {
		return err
	}
	if h.GridSize() != desc.N {
		return fmt.Errorf("snapshot %s: %w: grid size %d, want %d",
			path, model.ErrBadHeader, h.GridSize(), desc.N)
	}
	copy(field.Data(), data)
	return nil
}
